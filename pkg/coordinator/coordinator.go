package coordinator

import (
    "context"
    "os"
    "sync"
    "sync/atomic"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/go-zonecoord/pkg/observability/metrics"
    "github.com/amirimatin/go-zonecoord/pkg/observability/tracing"
    "github.com/amirimatin/go-zonecoord/pkg/scheduler"
    "github.com/amirimatin/go-zonecoord/pkg/sharelock"
)

// errorSourcePrefix tags reports to the error reporter so downstream
// alerting can route them; the suffix comes from Options.Namespace.
const errorSourcePrefix = "replication_coordinator."

// zoneState is the tri-valued cached answer: until the first successful
// sample the cache is unsampled.
type zoneState int32

const (
    stateUnsampled zoneState = iota
    statePassive
    stateActive
)

// Coordinator reports whether the current deployment zone is the active
// (read/write authoritative) zone of a multi-zone replicated system. It
// samples the probe on a cadence, caches the result, and notifies
// registered hooks on transitions.
//
// The cached reads (ActiveZone after the first sample, UpdatedAt) are
// lock-free; sampling itself is serialized by a share lock so the probe is
// never invoked concurrently with itself and a cold-start stampede runs it
// exactly once.
type Coordinator struct {
    opts Options
    ctx  context.Context

    lock      sharelock.ShareLock
    state     atomic.Int32
    updatedAt atomic.Int64 // unix nanos of the last sample; 0 = never

    hooks hookSet

    sched struct {
        mu       sync.Mutex
        timer    *scheduler.Timer
        disabled bool
    }

    reporter ErrorReporter
    variant  string // name used in log lines and reports
}

// New constructs a Coordinator from validated options. No sampling happens
// until the first observation.
func New(opts Options) (*Coordinator, error) {
    if err := opts.Validate(); err != nil {
        return nil, err
    }
    if opts.PollingInterval == 0 {
        opts.PollingInterval = DefaultPollingInterval
    }
    if opts.Namespace == "" {
        opts.Namespace = "zonecoord"
    }
    obsmetrics.Register()
    obsmetrics.Unsampled.Set(1)
    c := &Coordinator{opts: opts, ctx: context.Background(), variant: "zonecoord.Coordinator"}
    c.reporter = nopReporter{}
    if opts.Executor != nil {
        if r := opts.Executor.ErrorReporter(); r != nil {
            c.reporter = r
        }
    }
    return c, nil
}

// PollingInterval returns the effective sampling cadence.
func (c *Coordinator) PollingInterval() time.Duration { return c.opts.PollingInterval }

// ActiveZone reports whether the local zone is currently active. The first
// call (per process, racing callers included) samples the probe once; every
// later call is a lock-free cache read. Observing lazily starts the
// periodic sampler. A probe failure on the seeding call is returned to the
// caller and leaves the cache untouched.
func (c *Coordinator) ActiveZone() (bool, error) {
    if err := c.check(true); err != nil {
        return false, err
    }
    c.ensureScheduler()
    return zoneState(c.state.Load()) == stateActive, nil
}

// UpdatedAt returns the timestamp of the most recent sample. ok is false
// until the first successful sample.
func (c *Coordinator) UpdatedAt() (time.Time, bool) {
    ns := c.updatedAt.Load()
    if ns == 0 {
        return time.Time{}, false
    }
    return time.Unix(0, ns), true
}

// StartMonitoring seeds the cache (firing the initial transition
// synchronously) and starts the periodic sampler. Idempotent.
func (c *Coordinator) StartMonitoring() error {
    if err := c.check(true); err != nil {
        return err
    }
    c.ensureScheduler()
    return nil
}

// StopMonitoring shuts the periodic sampler down, letting an in-flight
// sample complete. Idempotent; the next observation transparently starts a
// fresh sampler.
func (c *Coordinator) StopMonitoring() {
    c.sched.mu.Lock()
    timer := c.sched.timer
    c.sched.timer = nil
    c.sched.mu.Unlock()
    if timer != nil {
        timer.Shutdown()
        obsmetrics.MonitorRunning.Set(0)
    }
}

// Monitoring reports whether the periodic sampler is currently scheduled.
func (c *Coordinator) Monitoring() bool {
    c.sched.mu.Lock()
    defer c.sched.mu.Unlock()
    return c.sched.timer != nil && c.sched.timer.Running()
}

// check is the core state-update routine. With skipWhenSet, a populated
// cache short-circuits (the cheap path for every observation after the
// first). Otherwise exactly one caller wins the non-blocking exclusive and
// runs the probe; losers stall on a momentary shared lease until the
// winner has published, so they return seeing a fresh cache.
func (c *Coordinator) check(skipWhenSet bool) error {
    if skipWhenSet && zoneState(c.state.Load()) != stateUnsampled {
        return nil
    }
    if !c.lock.StartExclusive(true) {
        c.lock.Sharing(func() {})
        return nil
    }
    // Re-check under the lock: a caller delayed past another's full
    // sample must not trigger a second one.
    if skipWhenSet && zoneState(c.state.Load()) != stateUnsampled {
        c.lock.StopExclusive()
        return nil
    }
    old := zoneState(c.state.Load())
    active, err := c.sample()
    if err != nil {
        c.lock.StopExclusive()
        obsmetrics.SampleErrors.Inc()
        return err
    }
    next := statePassive
    if active {
        next = stateActive
    }
    // Timestamp is stored before the state: a lock-free reader that
    // observes a non-sentinel state must observe this sample's timestamp.
    c.updatedAt.Store(time.Now().UnixNano())
    c.state.Store(int32(next))
    c.lock.StopExclusive()

    obsmetrics.Unsampled.Set(0)
    if next == stateActive {
        obsmetrics.ActiveZone.Set(1)
    } else {
        obsmetrics.ActiveZone.Set(0)
    }
    c.notifyTransition(old, next)
    return nil
}

// sample invokes the probe, through the executor when configured.
func (c *Coordinator) sample() (bool, error) {
    ctx, end := tracing.StartSpan(c.ctx, "coordinator.sample")
    defer end()
    obsmetrics.Samples.Inc()
    if c.opts.Executor == nil {
        return c.opts.Probe.FetchActiveZone(ctx)
    }
    var active bool
    err := c.opts.Executor.Wrap(func() error {
        var ferr error
        active, ferr = c.opts.Probe.FetchActiveZone(ctx)
        return ferr
    })
    return active, err
}

// ensureScheduler lazily constructs and starts the periodic sampler. The
// handle is guarded so construction, shutdown and clearing are mutually
// exclusive.
func (c *Coordinator) ensureScheduler() {
    c.sched.mu.Lock()
    defer c.sched.mu.Unlock()
    if c.sched.disabled || c.sched.timer != nil {
        return
    }
    t := scheduler.New(scheduler.Options{
        Interval: c.opts.PollingInterval,
        Task:     func() error { return c.check(false) },
        OnError:  c.backgroundError,
        Logger:   c.opts.Logger,
    })
    t.Start()
    c.sched.timer = t
    obsmetrics.MonitorRunning.Set(1)
}

// backgroundError handles a probe failure on a scheduled tick: report,
// log, keep ticking. The cache keeps its previous value.
func (c *Coordinator) backgroundError(err error) {
    c.reporter.Report(err, false, c.errorSource())
    logutil.Errorf(c.opts.Logger, "%v: could not check %s active zone", err, c.variant)
}

func (c *Coordinator) errorSource() string { return errorSourcePrefix + c.opts.Namespace }

func (c *Coordinator) notifyTransition(old, next zoneState) {
    if old == next {
        return
    }
    // Log first, then dispatch: log-scrapers rely on the line preceding
    // any hook side effects.
    switch next {
    case stateActive:
        logutil.Infof(c.opts.Logger, "%s: pid %d: switching to active", c.variant, os.Getpid())
        obsmetrics.Transitions.WithLabelValues("active").Inc()
        c.dispatch(c.hooks.snapshotActive())
    case statePassive:
        logutil.Infof(c.opts.Logger, "%s: pid %d: switching to passive", c.variant, os.Getpid())
        obsmetrics.Transitions.WithLabelValues("passive").Inc()
        c.dispatch(c.hooks.snapshotPassive())
    }
}
