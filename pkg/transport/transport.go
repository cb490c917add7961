package transport

import "context"

// StatusFunc returns a JSON-encoded status payload for the management
// /status surface. Using []byte avoids import cycles on coordinator types.
type StatusFunc func(ctx context.Context) ([]byte, error)

// RPCServer exposes the management endpoints (status, healthz, metrics)
// for tooling and for peers that learn the active zone over HTTP/gRPC.
type RPCServer interface {
    Start(ctx context.Context, status StatusFunc) error
    Addr() string
    Stop(ctx context.Context) error
}

// RPCClient performs management calls against another process using the
// chosen protocol (HTTP/JSON or gRPC JSON codec).
type RPCClient interface {
    GetStatus(ctx context.Context, addr string) ([]byte, error)
}
