package sharelock

import (
    "sync"
    "sync/atomic"
    "testing"
    "time"
)

func TestStartExclusiveNoWait(t *testing.T) {
    var l ShareLock
    if !l.StartExclusive(true) {
        t.Fatalf("exclusive on a free lock failed")
    }
    if l.StartExclusive(true) {
        t.Fatalf("second exclusive succeeded while held")
    }
    l.StopExclusive()
    if !l.StartExclusive(true) {
        t.Fatalf("exclusive after release failed")
    }
    l.StopExclusive()
}

func TestSharingBlocksWhileExclusiveHeld(t *testing.T) {
    var l ShareLock
    if !l.StartExclusive(true) {
        t.Fatalf("exclusive failed")
    }

    var entered atomic.Bool
    done := make(chan struct{})
    go func() {
        l.Sharing(func() { entered.Store(true) })
        close(done)
    }()

    time.Sleep(20 * time.Millisecond)
    if entered.Load() {
        t.Fatalf("shared lease entered while exclusive held")
    }
    l.StopExclusive()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatalf("shared lease never granted after exclusive release")
    }
    if !entered.Load() {
        t.Fatalf("shared fn never ran")
    }
}

func TestSharedLeasesCoexist(t *testing.T) {
    var l ShareLock
    var inside atomic.Int64
    var peak atomic.Int64
    var wg sync.WaitGroup
    for i := 0; i < 4; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            l.Sharing(func() {
                n := inside.Add(1)
                for {
                    p := peak.Load()
                    if n <= p || peak.CompareAndSwap(p, n) { break }
                }
                time.Sleep(30 * time.Millisecond)
                inside.Add(-1)
            })
        }()
    }
    wg.Wait()
    if peak.Load() < 2 {
        t.Fatalf("shared leases never overlapped (peak=%d)", peak.Load())
    }
}

func TestExclusiveBlockedByShared(t *testing.T) {
    var l ShareLock
    release := make(chan struct{})
    held := make(chan struct{})
    go func() {
        l.Sharing(func() {
            close(held)
            <-release
        })
    }()
    <-held
    if l.StartExclusive(true) {
        t.Fatalf("no-wait exclusive succeeded while a shared lease is out")
    }
    close(release)
}
