package server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is the health-checked service name.
const ServiceName = "invoices.v1.InvoiceService"

// NewGRPCServer registers health and reflection and keeps the health status in
// sync with check until ctx ends.
func NewGRPCServer(ctx context.Context, check func(context.Context) error, interval time.Duration, logger *slog.Logger) *grpc.Server {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	reflection.Register(gs)

	update := func() {
		st := healthpb.HealthCheckResponse_SERVING
		if check != nil {
			cctx, cancel := context.WithTimeout(ctx, 3*time.Second)
			err := check(cctx)
			cancel()
			if err != nil {
				logger.Warn("health.check.failed", "error", err)
				st = healthpb.HealthCheckResponse_NOT_SERVING
			}
		}
		hs.SetServingStatus("", st)
		hs.SetServingStatus(ServiceName, st)
	}
	update()

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				hs.Shutdown()
				return
			case <-t.C:
				update()
			}
		}
	}()
	return gs
}
