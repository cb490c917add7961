package httpprobe

import (
    "context"
    "encoding/json"
    "fmt"
    "strings"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
    "github.com/amirimatin/go-zonecoord/pkg/transport"
)

// Options configures active-zone lookup against a peer or authority
// management endpoint.
type Options struct {
    // Addr is the management address (host:port) of the endpoint that knows
    // which zone is active, e.g. an ops-maintained authority coordinator.
    Addr string

    // Zone is the name of the zone this process runs in.
    Zone string

    // Client performs the status call (HTTP/JSON or gRPC).
    Client transport.RPCClient
}

type impl struct {
    opts Options
}

// New returns a probe that asks the authority's /status which zone it
// considers active and compares it with the local zone. A passive or
// unsampled authority names no zone; that is an error, so the local cache
// keeps its previous value until the next tick.
func New(opts Options) (probe.Probe, error) {
    if opts.Addr == "" {
        return nil, fmt.Errorf("httpprobe: empty Addr")
    }
    if opts.Zone == "" {
        return nil, fmt.Errorf("httpprobe: empty Zone")
    }
    if opts.Client == nil {
        return nil, fmt.Errorf("httpprobe: nil Client")
    }
    return &impl{opts: opts}, nil
}

func (p *impl) FetchActiveZone(ctx context.Context) (bool, error) {
    data, err := p.opts.Client.GetStatus(ctx, p.opts.Addr)
    if err != nil {
        return false, fmt.Errorf("httpprobe: status from %s: %w", p.opts.Addr, err)
    }
    var st struct {
        ActiveZone string `json:"activeZone"`
    }
    if err := json.Unmarshal(data, &st); err != nil {
        return false, fmt.Errorf("httpprobe: decode status from %s: %w", p.opts.Addr, err)
    }
    if st.ActiveZone == "" {
        return false, fmt.Errorf("httpprobe: %s names no active zone", p.opts.Addr)
    }
    return strings.EqualFold(st.ActiveZone, p.opts.Zone), nil
}
