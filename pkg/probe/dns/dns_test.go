package dns

import (
    "context"
    "fmt"
    "testing"
)

func TestMatchesTXTValue(t *testing.T) {
    p, err := New(Options{
        Record: "active-zone.db.example.com",
        Zone:   "eu-west-1",
        Lookup: func(ctx context.Context, record string) ([]string, error) {
            if record != "active-zone.db.example.com" {
                return nil, fmt.Errorf("unexpected record %q", record)
            }
            return []string{" eu-west-1 "}, nil
        },
    })
    if err != nil { t.Fatalf("new: %v", err) }
    got, err := p.FetchActiveZone(context.Background())
    if err != nil { t.Fatalf("fetch: %v", err) }
    if !got { t.Fatalf("zone should be active") }
}

func TestMismatchIsPassive(t *testing.T) {
    p, err := New(Options{
        Record: "active-zone.db.example.com",
        Zone:   "us-east-2",
        Lookup: func(context.Context, string) ([]string, error) { return []string{"eu-west-1"}, nil },
    })
    if err != nil { t.Fatalf("new: %v", err) }
    got, err := p.FetchActiveZone(context.Background())
    if err != nil { t.Fatalf("fetch: %v", err) }
    if got { t.Fatalf("zone should be passive") }
}

func TestLookupFailurePropagates(t *testing.T) {
    p, err := New(Options{
        Record: "active-zone.db.example.com",
        Zone:   "eu-west-1",
        Lookup: func(context.Context, string) ([]string, error) { return nil, fmt.Errorf("SERVFAIL") },
    })
    if err != nil { t.Fatalf("new: %v", err) }
    if _, err := p.FetchActiveZone(context.Background()); err == nil {
        t.Fatalf("expected lookup error to propagate")
    }
}

func TestEmptyAnswerIsError(t *testing.T) {
    p, err := New(Options{
        Record: "active-zone.db.example.com",
        Zone:   "eu-west-1",
        Lookup: func(context.Context, string) ([]string, error) { return []string{"", "  "}, nil },
    })
    if err != nil { t.Fatalf("new: %v", err) }
    if _, err := p.FetchActiveZone(context.Background()); err == nil {
        t.Fatalf("expected error on empty TXT values")
    }
}

func TestOptionsValidation(t *testing.T) {
    if _, err := New(Options{Zone: "z"}); err == nil {
        t.Fatalf("expected error on empty Record")
    }
    if _, err := New(Options{Record: "r"}); err == nil {
        t.Fatalf("expected error on empty Zone")
    }
}
