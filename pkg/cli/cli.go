package cli

import (
    "context"
    "crypto/tls"
    "encoding/json"
    "fmt"
    "log"
    "os"
    "os/signal"
    "syscall"
    "time"

    "github.com/spf13/cobra"

    "github.com/amirimatin/go-zonecoord/pkg/bootstrap"
    "github.com/amirimatin/go-zonecoord/pkg/internal/logutil"
    tracing "github.com/amirimatin/go-zonecoord/pkg/observability/tracing"
    tlsx "github.com/amirimatin/go-zonecoord/pkg/security/tlsconfig"
    "github.com/amirimatin/go-zonecoord/pkg/transport"
    mgmtgrpc "github.com/amirimatin/go-zonecoord/pkg/transport/grpc"
    "github.com/amirimatin/go-zonecoord/pkg/transport/httpjson"
)

// AddAll attaches coordinator subcommands (run/status) to the provided root command.
func AddAll(root *cobra.Command) {
    root.AddCommand(NewRunCmd())
    root.AddCommand(NewStatusCmd())
}

// NewCoordinatorCommand returns a parent command "coordinator" containing
// run/status as subcommands, for embedding in a service's own CLI.
func NewCoordinatorCommand() *cobra.Command {
    parent := &cobra.Command{Use: "coordinator", Short: "replication coordinator commands"}
    parent.AddCommand(NewRunCmd())
    parent.AddCommand(NewStatusCmd())
    return parent
}

// NewRunCmd returns the "run" command used to start a coordinator process.
func NewRunCmd() *cobra.Command {
    var (
        zone, probeKind, filePath, fileEnv, dnsRecord, authority             string
        nodeID, gossipBind, gossipAdv, joinCSV, gossipActiveZone             string
        raftBind, dataDir, mgmtAddr, mgmtProto                               string
        staticActive, alwaysActive, raftBootstrap                            bool
        interval                                                             time.Duration
        tlsEnable, tlsSkip, traceEnable, logJSON                             bool
        tlsCA, tlsCert, tlsKey, tlsServerName                                string
    )
    cmd := &cobra.Command{
        Use:   "run",
        Short: "Run a replication coordinator process",
        RunE: func(cmd *cobra.Command, args []string) error {
            if zone == "" && !alwaysActive { return fmt.Errorf("missing --zone") }
            ctx, cancel := signalContext()
            defer cancel()

            if logJSON { logutil.SetJSON(true) }
            if traceEnable {
                shutdown, err := tracing.Setup(true)
                if err != nil {
                    log.Printf("tracing setup error: %v", err)
                } else {
                    defer func() { _ = shutdown(context.Background()) }()
                }
            }

            cfg := bootstrap.Config{
                Zone:             zone,
                ProbeKind:        probeKind,
                StaticActive:     staticActive,
                AlwaysActive:     alwaysActive,
                FilePath:         filePath,
                FileEnv:          fileEnv,
                DNSRecord:        dnsRecord,
                AuthorityAddr:    authority,
                NodeID:           nodeID,
                GossipBind:       gossipBind,
                GossipAdv:        gossipAdv,
                SeedsCSV:         joinCSV,
                GossipActiveZone: gossipActiveZone,
                RaftBind:         raftBind,
                DataDir:          dataDir,
                RaftBootstrap:    raftBootstrap,
                PollingInterval:  interval,
                MgmtAddr:         mgmtAddr,
                MgmtProto:        mgmtProto,
                TLSEnable:        tlsEnable,
                TLSCA:            tlsCA,
                TLSCert:          tlsCert,
                TLSKey:           tlsKey,
                TLSServerName:    tlsServerName,
                TLSSkipVerify:    tlsSkip,
            }
            svc, err := bootstrap.Run(ctx, cfg)
            if err != nil { return err }
            defer svc.Close()

            active, err := svc.Coordinator.ActiveZone()
            if err != nil { return err }
            logutil.Infof(nil, "coordinator running: zone=%s active=%v", zone, active)

            <-ctx.Done()
            return nil
        },
    }
    fl := cmd.Flags()
    fl.StringVar(&zone, "zone", "", "deployment zone this process runs in")
    fl.StringVar(&probeKind, "probe", "static", "active-zone source: static|file|dns|http|gossip|raft")
    fl.BoolVar(&staticActive, "static-active", false, "fixed answer for the static probe")
    fl.BoolVar(&alwaysActive, "always-active", false, "run the always-active variant (no sampler)")
    fl.StringVar(&filePath, "file", "", "path to the active-zone file (probe=file)")
    fl.StringVar(&fileEnv, "file-env", "", "env var overriding the active-zone file (probe=file)")
    fl.StringVar(&dnsRecord, "dns-record", "", "TXT record naming the active zone (probe=dns)")
    fl.StringVar(&authority, "authority", "", "authority management address (probe=http)")
    fl.StringVar(&nodeID, "id", "", "node identifier (probe=gossip|raft)")
    fl.StringVar(&gossipBind, "gossip-bind", "", "gossip bind host:port (probe=gossip)")
    fl.StringVar(&gossipAdv, "gossip-adv", "", "gossip advertise host:port (probe=gossip)")
    fl.StringVar(&joinCSV, "join", "", "comma-separated gossip seeds (probe=gossip)")
    fl.StringVar(&gossipActiveZone, "assert-active-zone", "", "zone this node asserts as active (probe=gossip)")
    fl.StringVar(&raftBind, "raft-bind", "", "raft bind host:port (probe=raft)")
    fl.StringVar(&dataDir, "data-dir", "", "raft data directory; empty means in-memory (probe=raft)")
    fl.BoolVar(&raftBootstrap, "bootstrap", false, "bootstrap a single-node raft group (probe=raft)")
    fl.DurationVar(&interval, "interval", 0, "sampling cadence (default 5s)")
    fl.StringVar(&mgmtAddr, "mgmt", "", "management bind host:port (status/metrics/healthz)")
    fl.StringVar(&mgmtProto, "mgmt-proto", "http", "management protocol: http|grpc")
    fl.BoolVar(&tlsEnable, "tls", false, "enable TLS for the management API")
    fl.StringVar(&tlsCA, "tls-ca", "", "CA file for management TLS")
    fl.StringVar(&tlsCert, "tls-cert", "", "certificate file for management TLS")
    fl.StringVar(&tlsKey, "tls-key", "", "key file for management TLS")
    fl.StringVar(&tlsServerName, "tls-server-name", "", "expected server name for management TLS")
    fl.BoolVar(&tlsSkip, "tls-skip-verify", false, "skip TLS verification (dev only)")
    fl.BoolVar(&traceEnable, "trace", false, "enable stdout tracing")
    fl.BoolVar(&logJSON, "log-json", false, "emit JSON log lines")
    return cmd
}

// NewStatusCmd returns the "status" command used to query a running
// coordinator's management endpoint.
func NewStatusCmd() *cobra.Command {
    var (
        addr, proto                            string
        tlsEnable, tlsSkip                     bool
        tlsCA, tlsCert, tlsKey, tlsServerName  string
        timeout                                time.Duration
    )
    cmd := &cobra.Command{
        Use:   "status",
        Short: "Query a coordinator's status endpoint",
        RunE: func(cmd *cobra.Command, args []string) error {
            if addr == "" { return fmt.Errorf("missing --addr") }
            ctx, cancel := context.WithTimeout(context.Background(), timeout)
            defer cancel()

            var cliTLS *tls.Config
            if tlsEnable {
                topts := tlsx.Options{Enable: true, CAFile: tlsCA, CertFile: tlsCert, KeyFile: tlsKey, InsecureSkipVerify: tlsSkip, ServerName: tlsServerName}
                cfg, err := topts.Client()
                if err != nil { return err }
                cliTLS = cfg
            }
            var cli transport.RPCClient
            switch proto {
            case "grpc":
                c := mgmtgrpc.NewClient(timeout)
                if cliTLS != nil { c.UseTLS(cliTLS) }
                cli = c
            default:
                c := httpjson.NewClient(timeout)
                if cliTLS != nil { c.UseTLS(cliTLS) }
                cli = c
            }

            data, err := cli.GetStatus(ctx, addr)
            if err != nil { return err }
            var pretty map[string]any
            if err := json.Unmarshal(data, &pretty); err == nil {
                out, _ := json.MarshalIndent(pretty, "", "  ")
                fmt.Fprintln(cmd.OutOrStdout(), string(out))
                return nil
            }
            fmt.Fprintln(cmd.OutOrStdout(), string(data))
            return nil
        },
    }
    fl := cmd.Flags()
    fl.StringVar(&addr, "addr", "", "management address host:port")
    fl.StringVar(&proto, "proto", "http", "management protocol: http|grpc")
    fl.DurationVar(&timeout, "timeout", 3*time.Second, "request timeout")
    fl.BoolVar(&tlsEnable, "tls", false, "enable TLS")
    fl.StringVar(&tlsCA, "tls-ca", "", "CA file")
    fl.StringVar(&tlsCert, "tls-cert", "", "client certificate file")
    fl.StringVar(&tlsKey, "tls-key", "", "client key file")
    fl.StringVar(&tlsServerName, "tls-server-name", "", "expected server name")
    fl.BoolVar(&tlsSkip, "tls-skip-verify", false, "skip TLS verification (dev only)")
    return cmd
}

func signalContext() (context.Context, context.CancelFunc) {
    return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
