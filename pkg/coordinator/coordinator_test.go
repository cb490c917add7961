package coordinator

import (
    "context"
    "errors"
    "fmt"
    "sync"
    "sync/atomic"
    "testing"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// countingProbe answers from an atomic flag and counts invocations.
type countingProbe struct {
    calls  atomic.Int64
    active atomic.Bool
    delay  time.Duration
    failOn int64 // 1-based call number that errors; 0 = never
}

func (p *countingProbe) FetchActiveZone(ctx context.Context) (bool, error) {
    n := p.calls.Add(1)
    if p.delay > 0 { time.Sleep(p.delay) }
    if p.failOn != 0 && n == p.failOn {
        return false, fmt.Errorf("simulated probe failure on call %d", n)
    }
    return p.active.Load(), nil
}

// recordingReporter collects error reports; testExecutor hands it to the
// coordinator as its error reporter.
type recordingReporter struct {
    mu      sync.Mutex
    reports []struct {
        err     error
        handled bool
        source  string
    }
}

func (r *recordingReporter) Report(err error, handled bool, source string) {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.reports = append(r.reports, struct {
        err     error
        handled bool
        source  string
    }{err, handled, source})
}

func (r *recordingReporter) count() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.reports)
}

type testExecutor struct {
    wraps    atomic.Int64
    reporter *recordingReporter
}

func (e *testExecutor) Wrap(fn func() error) error {
    e.wraps.Add(1)
    return fn()
}

func (e *testExecutor) ErrorReporter() ErrorReporter {
    if e.reporter == nil { return nil }
    return e.reporter
}

func await(t *testing.T, timeout time.Duration, cond func() bool, msg string) {
    t.Helper()
    deadline := time.Now().Add(timeout)
    for {
        if cond() { return }
        if time.Now().After(deadline) {
            t.Fatalf("await timeout: %s", msg)
        }
        time.Sleep(5 * time.Millisecond)
    }
}

func TestPollingIntervalDefaultAndOverride(t *testing.T) {
    c, err := New(Options{Probe: probe.Static(true)})
    if err != nil { t.Fatalf("new: %v", err) }
    if got := c.PollingInterval(); got != 5*time.Second {
        t.Fatalf("default interval = %v, want 5s", got)
    }

    c2, err := New(Options{Probe: probe.Static(true), PollingInterval: time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    if got := c2.PollingInterval(); got != time.Second {
        t.Fatalf("interval = %v, want 1s", got)
    }
}

func TestOptionsValidation(t *testing.T) {
    if _, err := New(Options{}); !errors.Is(err, ErrNilProbe) {
        t.Fatalf("expected ErrNilProbe, got %v", err)
    }
    if _, err := New(Options{Probe: probe.Static(true), PollingInterval: -time.Second}); !errors.Is(err, ErrInvalidInterval) {
        t.Fatalf("expected ErrInvalidInterval, got %v", err)
    }
}

func TestCachedFetch(t *testing.T) {
    p := &countingProbe{}
    p.active.Store(true)
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if err := c.StartMonitoring(); err != nil { t.Fatalf("start: %v", err) }
    for i := 0; i < 10; i++ {
        got, err := c.ActiveZone()
        if err != nil { t.Fatalf("active zone: %v", err) }
        if !got { t.Fatalf("active zone = false, want true") }
    }
    for i := 0; i < 10; i++ {
        if err := c.OnActiveZone(func(*Coordinator) {}); err != nil { t.Fatalf("on active: %v", err) }
        if err := c.OnPassiveZone(func(*Coordinator) {}); err != nil { t.Fatalf("on passive: %v", err) }
    }
    if got := p.calls.Load(); got != 1 {
        t.Fatalf("probe calls = %d, want 1", got)
    }
}

func TestThunderingHerd(t *testing.T) {
    p := &countingProbe{delay: 100 * time.Millisecond}
    p.active.Store(true)
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    var wg sync.WaitGroup
    results := make([]bool, 10)
    errs := make([]error, 10)
    for i := 0; i < 10; i++ {
        wg.Add(1)
        go func(i int) {
            defer wg.Done()
            results[i], errs[i] = c.ActiveZone()
        }(i)
    }
    wg.Wait()

    for i := 0; i < 10; i++ {
        if errs[i] != nil { t.Fatalf("goroutine %d: %v", i, errs[i]) }
        if !results[i] { t.Fatalf("goroutine %d returned false", i) }
    }
    if got := p.calls.Load(); got != 1 {
        t.Fatalf("probe calls = %d, want 1", got)
    }
}

func TestUpdatedAtTracksSampling(t *testing.T) {
    p := &countingProbe{}
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if _, ok := c.UpdatedAt(); ok {
        t.Fatalf("updated-at present before first sample")
    }
    before := time.Now()
    if _, err := c.ActiveZone(); err != nil { t.Fatalf("active zone: %v", err) }
    ts, ok := c.UpdatedAt()
    if !ok { t.Fatalf("updated-at absent after sample") }
    if ts.Before(before.Add(-time.Second)) || ts.After(time.Now().Add(time.Second)) {
        t.Fatalf("updated-at %v outside sampling window", ts)
    }
}

func TestTransitionDispatch(t *testing.T) {
    p := &countingProbe{} // starts passive
    c, err := New(Options{Probe: p, PollingInterval: 10 * time.Millisecond})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    var activeCount, passiveCount atomic.Int64
    if err := c.OnActiveZone(func(*Coordinator) { activeCount.Add(1) }); err != nil { t.Fatalf("on active: %v", err) }
    if err := c.OnPassiveZone(func(*Coordinator) { passiveCount.Add(1) }); err != nil { t.Fatalf("on passive: %v", err) }
    // Registration-time dispatch for the current (passive) polarity has
    // fired by now; start counting transitions from a clean slate.
    activeCount.Store(0)
    passiveCount.Store(0)

    p.active.Store(true)
    await(t, 2*time.Second, func() bool { return activeCount.Load() == 1 }, "active hook after passive→active")
    if got := passiveCount.Load(); got != 0 {
        t.Fatalf("passive hooks fired %d times on passive→active", got)
    }

    p.active.Store(false)
    await(t, 2*time.Second, func() bool { return passiveCount.Load() == 1 }, "passive hook after active→passive")
    if got := activeCount.Load(); got != 1 {
        t.Fatalf("active count = %d after active→passive, want 1", got)
    }
}

func TestBackgroundErrorResilience(t *testing.T) {
    p := &countingProbe{failOn: 3}
    p.active.Store(true)
    rep := &recordingReporter{}
    exec := &testExecutor{reporter: rep}
    c, err := New(Options{Probe: p, PollingInterval: 10 * time.Millisecond, Executor: exec})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if err := c.StartMonitoring(); err != nil { t.Fatalf("start: %v", err) }
    await(t, 5*time.Second, func() bool { return p.calls.Load() >= 6 }, "probe keeps getting called past the failure")

    if got := rep.count(); got != 1 {
        t.Fatalf("error reports = %d, want 1", got)
    }
    rep.mu.Lock()
    r := rep.reports[0]
    rep.mu.Unlock()
    if r.handled {
        t.Fatalf("report marked handled")
    }
    if r.source != "replication_coordinator.zonecoord" {
        t.Fatalf("report source = %q", r.source)
    }
    if r.err == nil || r.err.Error() != "simulated probe failure on call 3" {
        t.Fatalf("report error = %v", r.err)
    }
    if !c.Monitoring() {
        t.Fatalf("monitor stopped after background error")
    }
}

func TestForegroundErrorPropagates(t *testing.T) {
    p := &countingProbe{failOn: 1}
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if _, err := c.ActiveZone(); err == nil {
        t.Fatalf("expected error from first observation")
    }
    if _, ok := c.UpdatedAt(); ok {
        t.Fatalf("cache updated despite probe failure")
    }
    // The next observation retries and succeeds.
    p.active.Store(true)
    got, err := c.ActiveZone()
    if err != nil { t.Fatalf("second observation: %v", err) }
    if !got { t.Fatalf("active zone = false after recovery") }
}

func TestMonitoringRestartAfterStop(t *testing.T) {
    p := &countingProbe{}
    p.active.Store(true)
    c, err := New(Options{Probe: p, PollingInterval: 10 * time.Millisecond})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if _, err := c.ActiveZone(); err != nil { t.Fatalf("active zone: %v", err) }
    if !c.Monitoring() { t.Fatalf("monitor not running after observation") }

    c.StopMonitoring()
    c.StopMonitoring() // idempotent
    if c.Monitoring() { t.Fatalf("monitor still running after stop") }

    // The timer handle is gone; the next observation must rebuild it and
    // sampling must resume.
    base := p.calls.Load()
    if _, err := c.ActiveZone(); err != nil { t.Fatalf("active zone: %v", err) }
    if !c.Monitoring() { t.Fatalf("monitor not recreated by observation") }
    await(t, 2*time.Second, func() bool { return p.calls.Load() >= base+5 }, "sampling resumes after restart")
}

func TestStartMonitoringIdempotent(t *testing.T) {
    p := &countingProbe{}
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    for i := 0; i < 3; i++ {
        if err := c.StartMonitoring(); err != nil { t.Fatalf("start %d: %v", i, err) }
    }
    if got := p.calls.Load(); got != 1 {
        t.Fatalf("probe calls = %d, want 1", got)
    }
    if !c.Monitoring() { t.Fatalf("monitor not running") }
}

func TestExecutorWrapsEverySample(t *testing.T) {
    p := &countingProbe{}
    exec := &testExecutor{}
    c, err := New(Options{Probe: p, PollingInterval: 9999 * time.Second, Executor: exec})
    if err != nil { t.Fatalf("new: %v", err) }
    defer c.StopMonitoring()

    if _, err := c.ActiveZone(); err != nil { t.Fatalf("active zone: %v", err) }
    if w, s := exec.wraps.Load(), p.calls.Load(); w != s || w != 1 {
        t.Fatalf("wraps = %d, samples = %d, want 1/1", w, s)
    }
}
