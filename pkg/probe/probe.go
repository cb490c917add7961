package probe

import "context"

// Probe abstracts how the process decides whether its deployment zone is
// the active (read/write authoritative) one. Implementations may hit a
// database, a file, DNS, gossip metadata or a consensus engine; the
// coordinator calls them on a cadence and caches the answer.
type Probe interface {
    // FetchActiveZone reports whether the local zone is currently active.
    // It may take arbitrary time; the coordinator serializes invocations.
    FetchActiveZone(ctx context.Context) (bool, error)
}

// Func adapts a plain function to the Probe interface.
type Func func(ctx context.Context) (bool, error)

func (f Func) FetchActiveZone(ctx context.Context) (bool, error) { return f(ctx) }

// Static returns a probe with a fixed answer. Useful for single-zone
// deployments and tests.
func Static(active bool) Probe { return staticProbe(active) }

type staticProbe bool

func (p staticProbe) FetchActiveZone(context.Context) (bool, error) { return bool(p), nil }
