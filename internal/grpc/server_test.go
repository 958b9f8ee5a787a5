package grpcserver

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"taskManager/internal/config"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

type fakePinger struct{ down atomic.Bool }

func (f *fakePinger) PingContext(context.Context) error {
	if f.down.Load() {
		return errors.New("db down")
	}
	return nil
}

func startTestServer(t *testing.T, p Pinger, interval time.Duration) healthpb.HealthClient {
	t.Helper()
	cfg := &config.Config{GRPC: config.GRPCConfig{Address: "127.0.0.1:0", HealthInterval: interval}}
	shutdown, addr, err := StartGRPC(cfg, p)
	if err != nil {
		t.Fatalf("start grpc: %v", err)
	}
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = shutdown(ctx)
	})

	conn, err := grpc.NewClient(addr.String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return healthpb.NewHealthClient(conn)
}

func check(t *testing.T, c healthpb.HealthClient, service string) healthpb.HealthCheckResponse_ServingStatus {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	resp, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: service})
	if err != nil {
		t.Fatalf("check %q: %v", service, err)
	}
	return resp.GetStatus()
}

func TestHealth_ServingWhenDatabaseUp(t *testing.T) {
	c := startTestServer(t, &fakePinger{}, time.Hour)
	for _, svc := range []string{"", ServiceName} {
		if got := check(t, c, svc); got != healthpb.HealthCheckResponse_SERVING {
			t.Fatalf("%q: status %v, want SERVING", svc, got)
		}
	}
}

func TestHealth_NotServingWhenDatabaseDown(t *testing.T) {
	p := &fakePinger{}
	p.down.Store(true)
	c := startTestServer(t, p, time.Hour)
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Fatalf("status %v, want NOT_SERVING", got)
	}
}

func TestHealth_FollowsDatabase(t *testing.T) {
	p := &fakePinger{}
	c := startTestServer(t, p, 20*time.Millisecond)
	if got := check(t, c, ""); got != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("initial status %v", got)
	}

	p.down.Store(true)
	deadline := time.Now().Add(2 * time.Second)
	for check(t, c, "") != healthpb.HealthCheckResponse_NOT_SERVING {
		if time.Now().After(deadline) {
			t.Fatalf("status never flipped to NOT_SERVING")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestHealth_UnknownService(t *testing.T) {
	c := startTestServer(t, &fakePinger{}, time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	_, err := c.Check(ctx, &healthpb.HealthCheckRequest{Service: "nope"})
	if status.Code(err) != codes.NotFound {
		t.Fatalf("unknown service: got %v, want NotFound", err)
	}
}
