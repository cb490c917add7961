package coordinator

import (
    "log"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// DefaultPollingInterval is the sampling cadence used when Options leaves
// PollingInterval zero.
const DefaultPollingInterval = 5 * time.Second

// Options carries the probe and runtime configuration used to assemble a
// Coordinator.
type Options struct {
    // Probe decides whether the local zone is active. Required (the
    // always-active constructor supplies its own).
    Probe probe.Probe

    // PollingInterval is the cadence of the periodic sampler.
    // Zero means DefaultPollingInterval; negative is invalid.
    PollingInterval time.Duration

    // Executor optionally wraps every probe invocation, e.g. for
    // request-scoped setup/teardown around a database call. When it
    // exposes an error reporter, background failures are forwarded there.
    Executor Executor

    // Logger receives info lines on transitions and error lines on
    // background failures. If nil, log.Default() is used.
    Logger *log.Logger

    // Namespace suffixes the error-reporter source tag
    // ("replication_coordinator.<namespace>"). Defaults to "zonecoord".
    Namespace string

    // Zone is an informational label for status surfaces; the core never
    // interprets it.
    Zone string
}

// Validate performs a minimal validation of Options.
func (o Options) Validate() error {
    if o.Probe == nil {
        return ErrNilProbe
    }
    if o.PollingInterval < 0 {
        return ErrInvalidInterval
    }
    return nil
}
