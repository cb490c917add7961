package bootstrap

import (
    "context"
    "crypto/tls"
    "encoding/json"
    "fmt"
    "log"
    "strings"
    "time"

    "github.com/amirimatin/go-zonecoord/pkg/coordinator"
    "github.com/amirimatin/go-zonecoord/pkg/gossip"
    "github.com/amirimatin/go-zonecoord/pkg/internal/logutil"
    "github.com/amirimatin/go-zonecoord/pkg/leadership"
    raftlead "github.com/amirimatin/go-zonecoord/pkg/leadership/raft"
    "github.com/amirimatin/go-zonecoord/pkg/probe"
    pDNS "github.com/amirimatin/go-zonecoord/pkg/probe/dns"
    pFile "github.com/amirimatin/go-zonecoord/pkg/probe/file"
    pHTTP "github.com/amirimatin/go-zonecoord/pkg/probe/httpprobe"
    pLeader "github.com/amirimatin/go-zonecoord/pkg/probe/leader"
    tlsx "github.com/amirimatin/go-zonecoord/pkg/security/tlsconfig"
    "github.com/amirimatin/go-zonecoord/pkg/transport"
    mgmtgrpc "github.com/amirimatin/go-zonecoord/pkg/transport/grpc"
    "github.com/amirimatin/go-zonecoord/pkg/transport/httpjson"
)

// Config defines high-level inputs to assemble a coordinator process with
// sensible defaults. Applications embed the coordinator by providing this
// structure and calling Build/Run.
type Config struct {
    // Zone is the deployment zone this process runs in.
    Zone string

    // ProbeKind selects the active-zone source: "static" (default), "file",
    // "dns", "http", "gossip" or "raft".
    ProbeKind string

    // StaticActive is the fixed answer when ProbeKind=static.
    StaticActive bool
    // AlwaysActive selects the always-active variant; ProbeKind is ignored
    // and no sampler runs.
    AlwaysActive bool

    // File probe inputs
    FilePath string
    FileEnv  string

    // DNS probe inputs
    DNSRecord string

    // HTTP probe input: the authority management address to ask.
    AuthorityAddr string

    // Gossip inputs (ProbeKind=gossip)
    NodeID           string
    GossipBind       string
    GossipAdv        string
    SeedsCSV         string
    GossipActiveZone string // zone this node asserts as active, optional

    // Raft inputs (ProbeKind=raft)
    RaftBind      string
    DataDir       string
    RaftBootstrap bool

    // Sampling cadence. Zero means the coordinator default (5s).
    PollingInterval time.Duration

    // Management API (status/healthz/metrics)
    MgmtAddr  string // empty disables the endpoint
    MgmtProto string // "http" (default) or "grpc"

    // TLS (optional) for the management API
    TLSEnable     bool
    TLSCA         string
    TLSCert       string
    TLSKey        string
    TLSServerName string
    TLSSkipVerify bool

    // Logger (optional). If nil, log.Default() is used.
    Logger *log.Logger

    // Executor (optional) wraps probe invocations and supplies the error
    // reporter for background failures.
    Executor coordinator.Executor
}

// Service bundles the coordinator with the optional subsystems a probe
// kind pulls in (gossip node, leadership engine, management endpoint).
type Service struct {
    Coordinator *coordinator.Coordinator

    cfg  Config
    node *gossip.Node
    lead leadership.Leadership
    srv  transport.RPCServer
}

// Build assembles a Service from Config without starting it.
func Build(cfg Config) (*Service, error) {
    if cfg.Zone == "" && !cfg.AlwaysActive {
        return nil, fmt.Errorf("bootstrap: empty Zone")
    }
    if cfg.Logger == nil { cfg.Logger = log.Default() }

    s := &Service{cfg: cfg}

    opts := coordinator.Options{
        PollingInterval: cfg.PollingInterval,
        Executor:        cfg.Executor,
        Logger:          cfg.Logger,
        Zone:            cfg.Zone,
    }

    if cfg.AlwaysActive {
        c, err := coordinator.NewAlwaysActive(opts)
        if err != nil { return nil, err }
        s.Coordinator = c
    } else {
        p, err := s.buildProbe(cfg)
        if err != nil { return nil, err }
        opts.Probe = p
        c, err := coordinator.New(opts)
        if err != nil { return nil, err }
        s.Coordinator = c
    }

    if cfg.MgmtAddr != "" {
        srvTLS, err := serverTLS(cfg)
        if err != nil { return nil, err }
        switch cfg.MgmtProto {
        case "grpc":
            g := mgmtgrpc.NewServer(cfg.MgmtAddr)
            if srvTLS != nil { g.UseTLS(srvTLS) }
            s.srv = g
        default:
            h := httpjson.NewServer(cfg.MgmtAddr, cfg.Logger)
            if srvTLS != nil { h.UseTLS(srvTLS) }
            s.srv = h
        }
    }
    return s, nil
}

func (s *Service) buildProbe(cfg Config) (probe.Probe, error) {
    switch cfg.ProbeKind {
    case "", "static":
        return probe.Static(cfg.StaticActive), nil
    case "file":
        return pFile.New(pFile.Options{Path: cfg.FilePath, Env: cfg.FileEnv, Zone: cfg.Zone})
    case "dns":
        return pDNS.New(pDNS.Options{Record: cfg.DNSRecord, Zone: cfg.Zone})
    case "http":
        cli, err := statusClient(cfg)
        if err != nil { return nil, err }
        return pHTTP.New(pHTTP.Options{Addr: cfg.AuthorityAddr, Zone: cfg.Zone, Client: cli})
    case "gossip":
        n, err := gossip.New(gossip.Options{
            NodeID:     cfg.NodeID,
            Zone:       cfg.Zone,
            ActiveZone: cfg.GossipActiveZone,
            Bind:       cfg.GossipBind,
            Advertise:  cfg.GossipAdv,
            Logger:     cfg.Logger,
        })
        if err != nil { return nil, err }
        s.node = n
        return n, nil
    case "raft":
        n, err := raftlead.New(raftlead.Options{
            NodeID:    cfg.NodeID,
            Logger:    cfg.Logger,
            Bootstrap: cfg.RaftBootstrap,
            BindAddr:  cfg.RaftBind,
            DataDir:   cfg.DataDir,
        })
        if err != nil { return nil, err }
        s.lead = n
        return pLeader.New(n), nil
    default:
        return nil, fmt.Errorf("bootstrap: unknown probe kind %q", cfg.ProbeKind)
    }
}

// Start launches the probe's subsystems and the management endpoint, then
// starts monitoring so the cache is seeded before Start returns.
func (s *Service) Start(ctx context.Context) error {
    if s.node != nil {
        if err := s.node.Start(ctx); err != nil { return err }
        if seeds := parseSeeds(s.cfg.SeedsCSV); len(seeds) > 0 {
            logutil.Infof(s.cfg.Logger, "joining gossip seeds: %v", seeds)
            _ = s.node.Join(seeds)
        }
    }
    if s.lead != nil {
        if err := s.lead.Start(ctx); err != nil { return err }
    }
    if s.srv != nil {
        if err := s.srv.Start(ctx, s.statusJSON); err != nil { return err }
        logutil.Infof(s.cfg.Logger, "management endpoint listening at %s (status/metrics/healthz)", s.srv.Addr())
    }
    return s.Coordinator.StartMonitoring()
}

// MgmtAddr returns the management endpoint address, empty when disabled.
func (s *Service) MgmtAddr() string {
    if s.srv == nil { return "" }
    return s.srv.Addr()
}

// Stop shuts down monitoring and every subsystem. Idempotent.
func (s *Service) Stop(ctx context.Context) error {
    s.Coordinator.StopMonitoring()
    if s.srv != nil {
        _ = s.srv.Stop(ctx)
    }
    if s.lead != nil {
        _ = s.lead.Stop()
    }
    if s.node != nil {
        _ = s.node.Leave()
        _ = s.node.Stop()
    }
    return nil
}

// Close is a convenience alias for Stop with a background context.
func (s *Service) Close() error { return s.Stop(context.Background()) }

func (s *Service) statusJSON(ctx context.Context) ([]byte, error) {
    if _, err := s.Coordinator.ActiveZone(); err != nil {
        return nil, err
    }
    return json.Marshal(s.Coordinator.Status())
}

// Run builds and starts the service, returning it for lifecycle control.
// The caller is responsible for calling Close() when finished.
func Run(ctx context.Context, cfg Config) (*Service, error) {
    s, err := Build(cfg)
    if err != nil { return nil, err }
    if err := s.Start(ctx); err != nil { return nil, err }
    return s, nil
}

// statusClient builds the client used by the http probe, honoring the
// management protocol and TLS settings.
func statusClient(cfg Config) (transport.RPCClient, error) {
    cliTLS, err := clientTLS(cfg)
    if err != nil { return nil, err }
    if cfg.MgmtProto == "grpc" {
        c := mgmtgrpc.NewClient(3 * time.Second)
        if cliTLS != nil { c.UseTLS(cliTLS) }
        return c, nil
    }
    c := httpjson.NewClient(3 * time.Second)
    if cliTLS != nil { c.UseTLS(cliTLS) }
    return c, nil
}

func serverTLS(cfg Config) (*tls.Config, error) {
    if !cfg.TLSEnable { return nil, nil }
    topts := tlsOptions(cfg)
    // Prefer hot-reload configs to allow manual rotation by replacing files
    return topts.ServerHotReload()
}

func clientTLS(cfg Config) (*tls.Config, error) {
    if !cfg.TLSEnable { return nil, nil }
    topts := tlsOptions(cfg)
    return topts.ClientHotReload()
}

func tlsOptions(cfg Config) tlsx.Options {
    return tlsx.Options{
        Enable:             true,
        CAFile:             cfg.TLSCA,
        CertFile:           cfg.TLSCert,
        KeyFile:            cfg.TLSKey,
        InsecureSkipVerify: cfg.TLSSkipVerify,
        ServerName:         cfg.TLSServerName,
    }
}

func parseSeeds(csv string) []string {
    if csv == "" { return nil }
    var out []string
    for _, p := range strings.Split(csv, ",") {
        p = strings.TrimSpace(p)
        if p != "" { out = append(out, p) }
    }
    return out
}
