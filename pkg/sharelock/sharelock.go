package sharelock

import "sync"

// ShareLock is a read/write lock whose exclusive side can be acquired
// without blocking. It is used to elect exactly one thread for an expensive
// one-time operation: the winner takes the exclusive side, losers take a
// momentary shared lease which stalls them until the winner is done.
//
// The zero value is ready to use.
type ShareLock struct {
    mu sync.RWMutex
}

// StartExclusive acquires exclusive access. With noWait=true it returns
// false immediately when any holder (shared or exclusive) is present;
// otherwise it blocks until exclusive access is granted and returns true.
func (l *ShareLock) StartExclusive(noWait bool) bool {
    if noWait {
        return l.mu.TryLock()
    }
    l.mu.Lock()
    return true
}

// StopExclusive releases exclusive access acquired by StartExclusive.
func (l *ShareLock) StopExclusive() { l.mu.Unlock() }

// Sharing runs fn under a shared lease. Multiple shared leases may coexist;
// a shared lease blocks while exclusive is held and vice versa. Calling it
// with an empty fn is a cheap barrier against a concurrent exclusive holder.
func (l *ShareLock) Sharing(fn func()) {
    l.mu.RLock()
    defer l.mu.RUnlock()
    fn()
}
