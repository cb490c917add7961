package raftlead

import (
    "context"
    "testing"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/probe/leader"
)

func awaitLeadership(t *testing.T, n *Node, timeout time.Duration) {
    t.Helper()
    deadline := time.Now().Add(timeout)
    for !n.IsLeader() {
        if time.Now().After(deadline) {
            t.Fatalf("node never became leader")
        }
        time.Sleep(20 * time.Millisecond)
    }
}

func TestSingleNodeBootstrapLeads(t *testing.T) {
    n, err := New(Options{NodeID: "r1", Bootstrap: true})
    if err != nil { t.Fatalf("new: %v", err) }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := n.Start(ctx); err != nil { t.Fatalf("start: %v", err) }
    defer n.Stop()

    awaitLeadership(t, n, 5*time.Second)

    id, _, ok := n.Leader()
    if !ok { t.Fatalf("leader unknown after winning election") }
    if id != "r1" { t.Fatalf("leader id = %q, want r1", id) }
    if n.Term() == 0 { t.Fatalf("term = 0 after election") }

    // The leader probe maps leadership onto zone activity.
    p := leader.New(n)
    active, err := p.FetchActiveZone(ctx)
    if err != nil { t.Fatalf("probe: %v", err) }
    if !active { t.Fatalf("leader probe reports passive on the leader") }
}

func TestLeaderChEmits(t *testing.T) {
    n, err := New(Options{NodeID: "r1", Bootstrap: true})
    if err != nil { t.Fatalf("new: %v", err) }
    ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
    defer cancel()
    if err := n.Start(ctx); err != nil { t.Fatalf("start: %v", err) }
    defer n.Stop()

    select {
    case li := <-n.LeaderCh():
        if li.ID != "r1" { t.Fatalf("leader info id = %q", li.ID) }
    case <-time.After(5 * time.Second):
        t.Fatalf("no leadership notification")
    }
}

func TestNotStartedIsPassive(t *testing.T) {
    n, err := New(Options{NodeID: "r1"})
    if err != nil { t.Fatalf("new: %v", err) }
    if n.IsLeader() { t.Fatalf("leader before start") }
    if _, _, ok := n.Leader(); ok { t.Fatalf("leader known before start") }
    if err := n.Stop(); err != nil { t.Fatalf("stop before start: %v", err) }

    p := leader.New(n)
    active, err := p.FetchActiveZone(context.Background())
    if err != nil { t.Fatalf("probe: %v", err) }
    if active { t.Fatalf("probe active before start") }
}

func TestValidation(t *testing.T) {
    if _, err := New(Options{}); err == nil {
        t.Fatalf("expected error on empty NodeID")
    }
}
