package grpc_server

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ServiceName is reported alongside the overall ("") status.
const ServiceName = "learnhub.catalog"

// Probe checks one dependency, e.g. a database ping.
type Probe func(ctx context.Context) error

// HealthReporter keeps the gRPC health status in line with the probes.
type HealthReporter struct {
	server *health.Server
	probes map[string]Probe
}

// NewServer builds the gRPC server with the health service and reflection
// registered. Statuses start as NOT_SERVING until the first Refresh.
func NewServer(probes map[string]Probe) (*grpc.Server, *HealthReporter) {
	srv := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	reflection.Register(srv)

	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	return srv, &HealthReporter{server: hs, probes: probes}
}

// Refresh runs every probe once and publishes the result.
func (h *HealthReporter) Refresh(ctx context.Context) bool {
	ok := true
	for name, probe := range h.probes {
		if err := probe(ctx); err != nil {
			slog.Warn("health probe failed", "probe", name, "error", err)
			ok = false
		}
	}

	status := healthpb.HealthCheckResponse_SERVING
	if !ok {
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(ServiceName, status)
	return ok
}

// Run refreshes on every tick until ctx is done.
func (h *HealthReporter) Run(ctx context.Context, interval time.Duration) {
	h.Refresh(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Shutdown marks everything NOT_SERVING so probes fail during a graceful stop.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}
