package leadership

import "context"

// Info describes the current known leader of a coordination group.
type Info struct {
    ID   string
    Addr string
    Term uint64
}

// Leadership is the minimal abstraction over a leader-based coordination
// engine. The coordinator treats it as observational input only: holding
// leadership within a zone's coordination group marks the zone active.
type Leadership interface {
    Start(ctx context.Context) error
    IsLeader() bool
    Leader() (id string, addr string, ok bool)
    Term() uint64
    Stop() error
}

// Notifier is an optional interface that a Leadership implementation may
// provide to notify about leadership changes via an observable channel.
type Notifier interface {
    // LeaderCh delivers leadership updates. The channel should be closed
    // when the engine stops. Implementations should buffer and coalesce as
    // needed to avoid blocking their internals.
    LeaderCh() <-chan Info
}
