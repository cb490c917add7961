package gossip

import (
    "context"
    "encoding/json"
    "fmt"
    "log"
    "net"
    "sort"
    "strings"
    "sync"
    "time"

    "github.com/hashicorp/memberlist"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// Options configures the memberlist-based zone advertiser.
type Options struct {
    // NodeID is the unique node identifier.
    NodeID string

    // Zone is the deployment zone this node lives in.
    Zone string

    // ActiveZone, when non-empty, is the zone this node asserts as active.
    // Typically only nodes driven by operator tooling or a leadership
    // engine assert one; everyone else just listens.
    ActiveZone string

    // Bind is the bind address in host:port form (e.g. ":7946").
    Bind string

    // Advertise is the advertised address (host:port) that peers will use
    // to reach this node. If empty, memberlist derives it from Bind.
    Advertise string

    // Logger is optional. If nil, log.Default() is used.
    Logger *log.Logger

    // Tuning parameters (optional). Zero means use defaults.
    ProbeInterval time.Duration
    ProbeTimeout  time.Duration
    SuspicionMult int
}

// MemberInfo is the decoded view of one gossip member.
type MemberInfo struct {
    ID         string
    Addr       string
    Zone       string
    ActiveZone string
}

// Node gossips this process's zone and, optionally, which zone it believes
// is active. The node doubles as a probe: the active zone is decided by a
// majority vote over the advertised beliefs of all members.
type Node struct {
    mu     sync.RWMutex
    opts   Options
    ml     *memberlist.Memberlist
    del    *nodeDelegate
    closed bool
}

// New constructs a gossip node without starting it.
func New(opts Options) (*Node, error) {
    if opts.NodeID == "" {
        return nil, fmt.Errorf("gossip: empty NodeID")
    }
    if opts.Zone == "" {
        return nil, fmt.Errorf("gossip: empty Zone")
    }
    if opts.Bind == "" {
        return nil, fmt.Errorf("gossip: empty Bind address")
    }
    if opts.Logger == nil {
        opts.Logger = log.Default()
    }
    return &Node{opts: opts}, nil
}

// Start creates and launches the underlying memberlist instance.
func (n *Node) Start(ctx context.Context) error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.ml != nil {
        return nil
    }

    cfg := memberlist.DefaultLANConfig()
    cfg.Name = n.opts.NodeID
    host, portStr, err := net.SplitHostPort(n.opts.Bind)
    if err != nil {
        return fmt.Errorf("gossip: invalid bind address %q: %w", n.opts.Bind, err)
    }
    port, err := parsePort(portStr)
    if err != nil {
        return err
    }
    cfg.BindAddr = host
    cfg.BindPort = port

    if n.opts.Advertise != "" {
        ahost, aportStr, err := net.SplitHostPort(n.opts.Advertise)
        if err != nil {
            return fmt.Errorf("gossip: invalid advertise address %q: %w", n.opts.Advertise, err)
        }
        aport, err := parsePort(aportStr)
        if err != nil {
            return err
        }
        cfg.AdvertiseAddr = ahost
        cfg.AdvertisePort = aport
    }

    if n.opts.ProbeInterval > 0 { cfg.ProbeInterval = n.opts.ProbeInterval }
    if n.opts.ProbeTimeout > 0 { cfg.ProbeTimeout = n.opts.ProbeTimeout }
    if n.opts.SuspicionMult > 0 { cfg.SuspicionMult = n.opts.SuspicionMult }

    n.del = &nodeDelegate{}
    n.del.set(n.opts.Zone, n.opts.ActiveZone)
    cfg.Delegate = n.del

    ml, err := memberlist.Create(cfg)
    if err != nil {
        return err
    }
    n.ml = ml

    go func() {
        <-ctx.Done()
        _ = n.Stop()
    }()

    return nil
}

// Join contacts the given seeds to merge cluster views.
func (n *Node) Join(seeds []string) error {
    n.mu.RLock()
    ml := n.ml
    n.mu.RUnlock()
    if ml == nil {
        return fmt.Errorf("gossip: not started")
    }
    if len(seeds) == 0 {
        return nil
    }
    _, err := ml.Join(seeds)
    return err
}

// SetActiveZone changes the zone this node asserts as active (empty clears
// the assertion) and re-broadcasts node metadata.
func (n *Node) SetActiveZone(zone string) error {
    n.mu.RLock()
    ml, del := n.ml, n.del
    n.mu.RUnlock()
    if ml == nil || del == nil {
        return fmt.Errorf("gossip: not started")
    }
    del.set(n.opts.Zone, zone)
    return ml.UpdateNode(2 * time.Second)
}

// Local returns this node's own view.
func (n *Node) Local() MemberInfo {
    n.mu.RLock()
    defer n.mu.RUnlock()
    if n.ml == nil {
        return MemberInfo{}
    }
    return decodeMember(n.ml.LocalNode())
}

// Members returns the current gossip view.
func (n *Node) Members() []MemberInfo {
    n.mu.RLock()
    defer n.mu.RUnlock()
    if n.ml == nil {
        return nil
    }
    nodes := n.ml.Members()
    out := make([]MemberInfo, 0, len(nodes))
    for _, nd := range nodes {
        out = append(out, decodeMember(nd))
    }
    return out
}

// ActiveZoneVote returns the active zone name advertised by a strict
// majority of the members that assert one. ok is false when nobody asserts
// an active zone or the vote is split without a majority.
func (n *Node) ActiveZoneVote() (string, bool) {
    votes := map[string]int{}
    total := 0
    for _, m := range n.Members() {
        if m.ActiveZone == "" { continue }
        votes[strings.ToLower(m.ActiveZone)]++
        total++
    }
    if total == 0 {
        return "", false
    }
    names := make([]string, 0, len(votes))
    for name := range votes { names = append(names, name) }
    sort.Strings(names)
    for _, name := range names {
        if votes[name]*2 > total {
            return name, true
        }
    }
    return "", false
}

// FetchActiveZone implements probe.Probe: active when the majority-voted
// active zone matches the local zone.
func (n *Node) FetchActiveZone(ctx context.Context) (bool, error) {
    name, ok := n.ActiveZoneVote()
    if !ok {
        return false, fmt.Errorf("gossip: no majority on an active zone")
    }
    return strings.EqualFold(name, n.opts.Zone), nil
}

var _ probe.Probe = (*Node)(nil)

// Leave broadcasts departure (best-effort).
func (n *Node) Leave() error {
    n.mu.RLock()
    ml := n.ml
    n.mu.RUnlock()
    if ml == nil {
        return nil
    }
    _ = ml.Leave(time.Second)
    return nil
}

// Stop shuts the memberlist instance down. Idempotent.
func (n *Node) Stop() error {
    n.mu.Lock()
    defer n.mu.Unlock()
    if n.closed {
        return nil
    }
    n.closed = true
    if n.ml != nil {
        _ = n.ml.Shutdown()
        n.ml = nil
    }
    return nil
}

// HealthScore exposes memberlist's awareness score, or -1 when stopped.
func (n *Node) HealthScore() int {
    n.mu.RLock()
    defer n.mu.RUnlock()
    if n.ml == nil {
        return -1
    }
    return n.ml.GetHealthScore()
}

func decodeMember(nd *memberlist.Node) MemberInfo {
    meta := map[string]string{}
    if len(nd.Meta) > 0 { _ = json.Unmarshal(nd.Meta, &meta) }
    return MemberInfo{
        ID:         nd.Name,
        Addr:       net.JoinHostPort(nd.Addr.String(), fmt.Sprintf("%d", nd.Port)),
        Zone:       meta["zone"],
        ActiveZone: meta["active-zone"],
    }
}

func parsePort(s string) (int, error) {
    var p int
    _, err := fmt.Sscanf(s, "%d", &p)
    if err != nil || p < 0 || p > 65535 {
        return 0, fmt.Errorf("invalid port: %q", s)
    }
    return p, nil
}

// nodeDelegate implements memberlist.Delegate to propagate the zone and
// active-zone assertion. Meta is swapped atomically under a mutex so
// SetActiveZone can re-broadcast.
type nodeDelegate struct {
    mu   sync.RWMutex
    meta []byte
}

func (d *nodeDelegate) set(zone, activeZone string) {
    m := map[string]string{"zone": zone}
    if activeZone != "" { m["active-zone"] = activeZone }
    b, _ := json.Marshal(m)
    d.mu.Lock()
    d.meta = b
    d.mu.Unlock()
}

// NodeMeta is used to retrieve meta-data about the current node when
// broadcasting an alive message. The returned byte slice will be truncated
// to the given limit, as it will be broadcast in gossip.
func (d *nodeDelegate) NodeMeta(limit int) []byte {
    d.mu.RLock()
    meta := d.meta
    d.mu.RUnlock()
    if len(meta) <= limit { return meta }
    if limit <= 0 { return nil }
    return meta[:limit]
}

// Unused hooks for our purposes; required to satisfy the interface.
func (d *nodeDelegate) NotifyMsg([]byte)                       {}
func (d *nodeDelegate) GetBroadcasts(int, int) [][]byte        { return nil }
func (d *nodeDelegate) LocalState(join bool) []byte            { return nil }
func (d *nodeDelegate) MergeRemoteState(buf []byte, join bool) {}
