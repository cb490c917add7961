package grpc

import (
    "context"
    "testing"
    "time"
)

func TestGetStatusRoundTrip(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    srv := NewServer("127.0.0.1:0")
    status := func(ctx context.Context) ([]byte, error) {
        return []byte(`{"activeZone":"eu-west-1"}`), nil
    }
    if err := srv.Start(ctx, status); err != nil { t.Fatalf("start: %v", err) }
    defer func() { _ = srv.Stop(context.Background()) }()

    cli := NewClient(3 * time.Second)
    data, err := cli.GetStatus(ctx, srv.Addr())
    if err != nil { t.Fatalf("get status: %v", err) }
    if string(data) != `{"activeZone":"eu-west-1"}` {
        t.Fatalf("payload = %s", data)
    }

    // Second call reuses the cached connection.
    if _, err := cli.GetStatus(ctx, srv.Addr()); err != nil {
        t.Fatalf("second get status: %v", err)
    }
}

func TestStopIdempotent(t *testing.T) {
    ctx, cancel := context.WithCancel(context.Background())
    defer cancel()

    srv := NewServer("127.0.0.1:0")
    if err := srv.Start(ctx, func(context.Context) ([]byte, error) { return []byte("{}"), nil }); err != nil {
        t.Fatalf("start: %v", err)
    }
    if err := srv.Stop(context.Background()); err != nil { t.Fatalf("stop: %v", err) }
    if err := srv.Stop(context.Background()); err != nil { t.Fatalf("second stop: %v", err) }
}
