package handlers

import (
	"context"
	"time"

	"github.com/ArkLabsHQ/escrowd/internal/core/application"
	log "github.com/sirupsen/logrus"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

type readinessChecker interface {
	IsReady(ctx context.Context) bool
}

type healthHandler struct {
	svc readinessChecker
}

func NewHealthHandler(svc *application.Service) grpchealth.HealthServer {
	if svc == nil {
		return &healthHandler{}
	}
	return &healthHandler{svc: svc}
}

func (h *healthHandler) Check(
	ctx context.Context,
	_ *grpchealth.HealthCheckRequest,
) (*grpchealth.HealthCheckResponse, error) {
	return &grpchealth.HealthCheckResponse{Status: h.status(ctx)}, nil
}

// Watch sends the current status once.
func (h *healthHandler) Watch(
	_ *grpchealth.HealthCheckRequest,
	stream grpchealth.Health_WatchServer,
) error {
	if stream == nil {
		return nil
	}
	return stream.Send(&grpchealth.HealthCheckResponse{Status: h.status(stream.Context())})
}

func (h *healthHandler) status(ctx context.Context) grpchealth.HealthCheckResponse_ServingStatus {
	if h.svc == nil {
		log.Debug("health check: service not initialized")
		return grpchealth.HealthCheckResponse_NOT_SERVING
	}

	// the ledger is ready once governance can be read from the store
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if !h.svc.IsReady(checkCtx) {
		log.Warn("health check: ledger store not ready")
		return grpchealth.HealthCheckResponse_NOT_SERVING
	}
	return grpchealth.HealthCheckResponse_SERVING
}
