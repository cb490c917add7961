package leader

import (
    "context"

    "github.com/amirimatin/go-zonecoord/pkg/leadership"
    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// New returns a probe that reports active while the local process holds
// leadership of its coordination group. This is observational input, not a
// fencing guarantee: during a leadership handover two processes may briefly
// disagree, exactly as with any other probe backend.
func New(l leadership.Leadership) probe.Probe { return &impl{l: l} }

type impl struct {
    l leadership.Leadership
}

func (p *impl) FetchActiveZone(ctx context.Context) (bool, error) {
    return p.l.IsLeader(), nil
}
