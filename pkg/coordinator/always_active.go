package coordinator

import "github.com/amirimatin/go-zonecoord/pkg/probe"

// NewAlwaysActive constructs the single-zone variant: its probe is
// constant-true and no periodic sampler is ever created. The first
// observation still performs the unsampled→active transition, so active
// hooks fire exactly once; passive hooks never fire.
func NewAlwaysActive(opts Options) (*Coordinator, error) {
    opts.Probe = probe.Static(true)
    c, err := New(opts)
    if err != nil {
        return nil, err
    }
    c.variant = "zonecoord.AlwaysActiveCoordinator"
    c.sched.disabled = true
    return c, nil
}
