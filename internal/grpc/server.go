package grpc

import (
	"context"
	"time"

	"github.com/sm8ta/webike_rental_microservice_nikita/internal/core/ports"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// ServiceName is the health-check name orchestrators probe for this service.
const ServiceName = "webike.rental.v1.RentalService"

const pingTimeout = 2 * time.Second

// HealthWatcher reports SERVING while the store answers pings.
type HealthWatcher struct {
	health *health.Server
	store  ports.StorePinger
	log    ports.LoggerPort
	last   healthpb.HealthCheckResponse_ServingStatus
}

func Register(
	gRPCServer *grpc.Server,
	store ports.StorePinger,
	log ports.LoggerPort,
) *HealthWatcher {
	w := &HealthWatcher{
		health: health.NewServer(),
		store:  store,
		log:    log,
		last:   healthpb.HealthCheckResponse_UNKNOWN,
	}
	healthpb.RegisterHealthServer(gRPCServer, w.health)
	return w
}

// Check pings the store once and publishes the result for both the overall
// and the named service.
func (w *HealthWatcher) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := w.store.Ping(pingCtx); err != nil {
		status = healthpb.HealthCheckResponse_NOT_SERVING
		if w.last != status {
			w.log.Warn("Store ping failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	} else if w.last == healthpb.HealthCheckResponse_NOT_SERVING {
		w.log.Info("Store is reachable again", nil)
	}

	w.last = status
	w.health.SetServingStatus("", status)
	w.health.SetServingStatus(ServiceName, status)
	return status
}

// Watch re-checks on every tick until ctx ends, then marks the service as shutting down.
func (w *HealthWatcher) Watch(ctx context.Context, interval time.Duration) {
	w.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.health.Shutdown()
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}
