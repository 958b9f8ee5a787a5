package grpcserver

import (
	"context"
	"log"
	"net"
	"time"

	"taskManager/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// ServiceName is the health service name reported next to the overall ("") status.
const ServiceName = "taskmanager.v1.TaskService"

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// StartGRPC starts the gRPC health endpoint on cfg.GRPC.Address and returns a
// shutdown function together with the bound address. Serving status follows
// the database: it is re-checked every cfg.GRPC.HealthInterval.
func StartGRPC(cfg *config.Config, db Pinger) (func(context.Context) error, net.Addr, error) {
	if cfg == nil {
		panic("config is required")
	}

	addr := cfg.GRPC.Address
	if addr == "" {
		addr = ":50051"
	}
	interval := cfg.GRPC.HealthInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}

	srv := grpc.NewServer(grpc.UnaryInterceptor(logUnary))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)

	// First probe runs before Serve so callers never observe a stale status.
	probe(hs, db)

	stop := make(chan struct{})
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				probe(hs, db)
			case <-stop:
				return
			}
		}
	}()

	go func() { _ = srv.Serve(lis) }()

	return func(ctx context.Context) error {
		close(stop)
		hs.Shutdown()
		done := make(chan struct{})
		go func() { srv.GracefulStop(); close(done) }()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			srv.Stop()
			return ctx.Err()
		}
	}, lis.Addr(), nil
}

func probe(hs *health.Server, db Pinger) {
	st := healthpb.HealthCheckResponse_SERVING
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Printf("health: database unreachable: %v", err)
		st = healthpb.HealthCheckResponse_NOT_SERVING
	}
	hs.SetServingStatus("", st)
	hs.SetServingStatus(ServiceName, st)
}

// logUnary logs failed unary calls with their status code.
func logUnary(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	resp, err := handler(ctx, req)
	if err != nil {
		log.Printf("grpc %s: %s", info.FullMethod, status.Code(err))
	}
	return resp, err
}
