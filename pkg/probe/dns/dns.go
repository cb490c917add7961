package dns

import (
    "context"
    "fmt"
    "net"
    "strings"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// Options configures DNS-based active-zone lookup. The active zone name is
// published as a TXT record (e.g. "active-zone.db.example.com" → "eu-west-1")
// that operators repoint during a switchover.
type Options struct {
    // Record is the TXT record naming the active zone.
    Record string

    // Zone is the name of the zone this process runs in.
    Zone string

    // Resolver optionally overrides the DNS resolver used.
    Resolver *net.Resolver

    // Lookup optionally overrides the TXT lookup entirely (tests).
    Lookup func(ctx context.Context, record string) ([]string, error)
}

type impl struct {
    opts Options
}

// New returns a probe that resolves the TXT record and reports active when
// its first value matches Options.Zone, case-insensitively.
func New(opts Options) (probe.Probe, error) {
    if opts.Record == "" {
        return nil, fmt.Errorf("dns: empty Record")
    }
    if opts.Zone == "" {
        return nil, fmt.Errorf("dns: empty Zone")
    }
    return &impl{opts: opts}, nil
}

func (p *impl) FetchActiveZone(ctx context.Context) (bool, error) {
    lookup := p.opts.Lookup
    if lookup == nil {
        res := p.opts.Resolver
        if res == nil { res = net.DefaultResolver }
        lookup = res.LookupTXT
    }
    recs, err := lookup(ctx, p.opts.Record)
    if err != nil {
        return false, fmt.Errorf("dns: lookup %s: %w", p.opts.Record, err)
    }
    for _, r := range recs {
        if v := strings.TrimSpace(r); v != "" {
            return strings.EqualFold(v, p.opts.Zone), nil
        }
    }
    return false, fmt.Errorf("dns: %s has no TXT value naming an active zone", p.opts.Record)
}
