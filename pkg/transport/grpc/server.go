package grpc

import (
    "context"
    "crypto/tls"
    "net"
    "sync"
    "time"

    "google.golang.org/grpc"
    "google.golang.org/grpc/credentials"
    "google.golang.org/grpc/health"
    healthpb "google.golang.org/grpc/health/grpc_health_v1"
    "google.golang.org/grpc/keepalive"

    "github.com/amirimatin/go-zonecoord/pkg/observability/tracing"
    "github.com/amirimatin/go-zonecoord/pkg/transport"
)

// Server implements transport.RPCServer over gRPC using a JSON codec.
type Server struct {
    bind   string
    tlsCfg *tls.Config

    mu   sync.Mutex
    lis  net.Listener
    srv  *grpc.Server
    addr string
}

func NewServer(bind string) *Server { return &Server{bind: bind} }

// UseTLS enables TLS for the gRPC server using the provided config.
func (s *Server) UseTLS(cfg *tls.Config) *Server { s.tlsCfg = cfg; return s }

// internal request/response types used over gRPC JSON codec
type empty struct{}
type statusBlob struct {
    Data []byte `json:"data"`
}

// coordinatorServer defines the methods we expose.
type coordinatorServer interface {
    GetStatus(ctx context.Context, in *empty) (*statusBlob, error)
}

type coordImpl struct {
    status transport.StatusFunc
}

func (c *coordImpl) GetStatus(ctx context.Context, _ *empty) (*statusBlob, error) {
    ctx, end := tracing.StartSpan(ctx, "grpc.status")
    defer end()
    b, err := c.status(ctx)
    if err != nil { return nil, err }
    return &statusBlob{Data: b}, nil
}

// Service descriptor and handler (hand-written, no codegen required)
var _Coordinator_serviceDesc = grpc.ServiceDesc{
    ServiceName: "zonecoord.v1.Coordinator",
    HandlerType: (*coordinatorServer)(nil),
    Methods: []grpc.MethodDesc{
        {MethodName: "GetStatus", Handler: _Coordinator_GetStatus_Handler},
    },
}

func _Coordinator_GetStatus_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
    in := new(empty)
    if err := dec(in); err != nil { return nil, err }
    if interceptor == nil { return srv.(coordinatorServer).GetStatus(ctx, in) }
    info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/zonecoord.v1.Coordinator/GetStatus"}
    handler := func(ctx context.Context, req interface{}) (interface{}, error) {
        return srv.(coordinatorServer).GetStatus(ctx, req.(*empty))
    }
    return interceptor(ctx, in, info, handler)
}

// Start launches the gRPC server with the status function wired in. The
// server is shut down when the context is canceled.
func (s *Server) Start(ctx context.Context, status transport.StatusFunc) error {
    ln, err := net.Listen("tcp", s.bind)
    if err != nil { return err }

    opts := []grpc.ServerOption{
        grpc.KeepaliveParams(keepalive.ServerParameters{Time: 20 * time.Second, Timeout: 5 * time.Second}),
    }
    if s.tlsCfg != nil {
        opts = append(opts, grpc.Creds(credentials.NewTLS(s.tlsCfg)))
    }
    srv := grpc.NewServer(opts...)
    srv.RegisterService(&_Coordinator_serviceDesc, &coordImpl{status: status})

    // Standard health service so generic tooling can probe liveness.
    healthpb.RegisterHealthServer(srv, health.NewServer())

    s.mu.Lock()
    s.lis = ln
    s.srv = srv
    s.addr = ln.Addr().String()
    s.mu.Unlock()

    go func() {
        <-ctx.Done()
        _ = s.Stop(context.Background())
    }()
    go func() { _ = srv.Serve(ln) }()
    return nil
}

// Addr returns the actual listen address once started, the configured bind
// address otherwise.
func (s *Server) Addr() string {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.addr != "" { return s.addr }
    return s.bind
}

// Stop performs a graceful stop.
func (s *Server) Stop(ctx context.Context) error {
    s.mu.Lock()
    srv := s.srv
    s.srv = nil
    s.mu.Unlock()
    if srv == nil { return nil }
    srv.GracefulStop()
    return nil
}

var _ transport.RPCServer = (*Server)(nil)
