package coordinator

import (
    "fmt"
    "sync"

    "github.com/amirimatin/go-zonecoord/pkg/internal/logutil"
    obsmetrics "github.com/amirimatin/go-zonecoord/pkg/observability/metrics"
)

// Hook is a caller-registered callback fired when the cached state
// transitions to the hook's polarity. Hooks run synchronously on whichever
// goroutine triggered the transition: the background sampler on periodic
// ticks, the caller's goroutine on the seeding observation or on late
// registration. A hook must not call StopMonitoring; on a periodic tick
// that would wait for the very dispatch it runs in.
type Hook func(*Coordinator)

// hookSet holds both polarity lists. Appends take the mutex briefly;
// dispatch iterates a snapshot, so concurrent registration cannot disturb
// an in-flight dispatch or its ordering.
type hookSet struct {
    mu      sync.Mutex
    active  []Hook
    passive []Hook
}

func (h *hookSet) addActive(hook Hook) {
    h.mu.Lock()
    h.active = append(h.active, hook)
    h.mu.Unlock()
}

func (h *hookSet) addPassive(hook Hook) {
    h.mu.Lock()
    h.passive = append(h.passive, hook)
    h.mu.Unlock()
}

func (h *hookSet) snapshotActive() []Hook {
    h.mu.Lock()
    defer h.mu.Unlock()
    return append([]Hook(nil), h.active...)
}

func (h *hookSet) snapshotPassive() []Hook {
    h.mu.Lock()
    defer h.mu.Unlock()
    return append([]Hook(nil), h.passive...)
}

func (h *hookSet) clear() {
    h.mu.Lock()
    h.active = nil
    h.passive = nil
    h.mu.Unlock()
}

// OnActiveZone registers a hook for passive→active transitions. It lazily
// starts monitoring, which seeds the cache; when the cache is already
// active the hook additionally fires once, synchronously, so late
// registrants still learn the current state.
func (c *Coordinator) OnActiveZone(hook Hook) error {
    if err := c.StartMonitoring(); err != nil {
        return err
    }
    c.hooks.addActive(hook)
    if zoneState(c.state.Load()) == stateActive {
        c.runHook(hook)
    }
    return nil
}

// OnPassiveZone registers a hook for active→passive transitions, with the
// same seeding and late-registration behavior as OnActiveZone.
func (c *Coordinator) OnPassiveZone(hook Hook) error {
    if err := c.StartMonitoring(); err != nil {
        return err
    }
    c.hooks.addPassive(hook)
    if zoneState(c.state.Load()) == statePassive {
        c.runHook(hook)
    }
    return nil
}

// ClearHooks empties both hook lists. The cache and the sampler are
// untouched; a dispatch already in flight completes against its snapshot.
func (c *Coordinator) ClearHooks() { c.hooks.clear() }

func (c *Coordinator) dispatch(hooks []Hook) {
    for _, h := range hooks {
        c.runHook(h)
    }
}

// runHook isolates one hook invocation: a panic is reported and logged,
// never propagated, so the remaining hooks in the same dispatch still run.
func (c *Coordinator) runHook(h Hook) {
    defer func() {
        if r := recover(); r != nil {
            err, ok := r.(error)
            if !ok {
                err = fmt.Errorf("hook panic: %v", r)
            }
            obsmetrics.HookErrors.Inc()
            c.reporter.Report(err, false, c.errorSource())
            logutil.Errorf(c.opts.Logger, "%s: hook failed: %v", c.variant, r)
        }
    }()
    h(c)
}
