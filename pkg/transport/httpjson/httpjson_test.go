package httpjson

import (
    "context"
    "fmt"
    "testing"
    "time"
)

func TestStatusRoundTrip(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    srv := NewServer("127.0.0.1:0", nil)
    status := func(ctx context.Context) ([]byte, error) {
        return []byte(`{"activeZone":"eu-west-1"}`), nil
    }
    if err := srv.Start(ctx, status); err != nil { t.Fatalf("start: %v", err) }
    defer func() { _ = srv.Stop(context.Background()) }()

    cli := NewClient(2 * time.Second)
    data, err := cli.GetStatus(ctx, srv.Addr())
    if err != nil { t.Fatalf("get status: %v", err) }
    if string(data) != `{"activeZone":"eu-west-1"}` {
        t.Fatalf("payload = %s", data)
    }
}

func TestStatusErrorSurfacesAsNon200(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    srv := NewServer("127.0.0.1:0", nil)
    status := func(ctx context.Context) ([]byte, error) {
        return nil, fmt.Errorf("probe down")
    }
    if err := srv.Start(ctx, status); err != nil { t.Fatalf("start: %v", err) }
    defer func() { _ = srv.Stop(context.Background()) }()

    cli := NewClient(500 * time.Millisecond)
    cctx, ccancel := context.WithTimeout(ctx, 3*time.Second)
    defer ccancel()
    if _, err := cli.GetStatus(cctx, srv.Addr()); err == nil {
        t.Fatalf("expected error from failing status func")
    }
}

func TestStopIdempotent(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    srv := NewServer("127.0.0.1:0", nil)
    if err := srv.Start(ctx, func(context.Context) ([]byte, error) { return []byte("{}"), nil }); err != nil {
        t.Fatalf("start: %v", err)
    }
    if err := srv.Stop(context.Background()); err != nil { t.Fatalf("stop: %v", err) }
    if err := srv.Stop(context.Background()); err != nil { t.Fatalf("second stop: %v", err) }
}
