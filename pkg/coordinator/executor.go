package coordinator

// Executor wraps probe invocations with caller-defined bookkeeping, the way
// an application framework wraps background work (connection checkout,
// request-scoped state, instrumentation).
type Executor interface {
    // Wrap runs fn inside the executor's scope. The probe result is carried
    // through a closure; Wrap only sees the error.
    Wrap(fn func() error) error

    // ErrorReporter returns the sink for background failures. May return
    // nil, in which case failures are only logged.
    ErrorReporter() ErrorReporter
}

// ErrorReporter receives failures that never reach a caller: scheduled
// sample errors and hook panics.
type ErrorReporter interface {
    Report(err error, handled bool, source string)
}

type nopReporter struct{}

func (nopReporter) Report(error, bool, string) {}
