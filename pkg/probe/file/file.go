package file

import (
    "bufio"
    "context"
    "fmt"
    "os"
    "strings"

    "github.com/amirimatin/go-zonecoord/pkg/probe"
)

// Options configures file/ENV-based active-zone lookup.
type Options struct {
    // Path to a file whose first entry names the currently active zone.
    // Lines starting with # are comments; other lines may hold
    // comma-separated values, and the first non-empty token wins.
    Path string
    // Env overrides the file when the variable is set and non-empty.
    Env string
    // Zone is the name of the zone this process runs in.
    Zone string
}

type impl struct {
    opts Options
}

// New returns a probe that reports active when the zone named by the file
// (or ENV override) matches Options.Zone, case-insensitively.
func New(opts Options) (probe.Probe, error) {
    if opts.Zone == "" {
        return nil, fmt.Errorf("file: empty Zone")
    }
    if opts.Path == "" && opts.Env == "" {
        return nil, fmt.Errorf("file: need Path or Env")
    }
    return &impl{opts: opts}, nil
}

func (p *impl) FetchActiveZone(ctx context.Context) (bool, error) {
    name, err := p.activeZoneName()
    if err != nil {
        return false, err
    }
    return strings.EqualFold(name, p.opts.Zone), nil
}

func (p *impl) activeZoneName() (string, error) {
    // ENV takes precedence
    if p.opts.Env != "" {
        if v := strings.TrimSpace(os.Getenv(p.opts.Env)); v != "" {
            return firstToken(v), nil
        }
    }
    if p.opts.Path == "" {
        return "", fmt.Errorf("file: env %s unset and no Path configured", p.opts.Env)
    }
    f, err := os.Open(p.opts.Path)
    if err != nil {
        return "", fmt.Errorf("file: open active-zone file: %w", err)
    }
    defer f.Close()
    s := bufio.NewScanner(f)
    for s.Scan() {
        line := strings.TrimSpace(s.Text())
        if line == "" || strings.HasPrefix(line, "#") { continue }
        if tok := firstToken(line); tok != "" { return tok, nil }
    }
    if err := s.Err(); err != nil {
        return "", fmt.Errorf("file: read active-zone file: %w", err)
    }
    return "", fmt.Errorf("file: %s names no active zone", p.opts.Path)
}

func firstToken(line string) string {
    for _, part := range strings.Split(line, ",") {
        part = strings.TrimSpace(part)
        if part != "" { return part }
    }
    return ""
}
