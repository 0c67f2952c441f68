// Package grpc implements the gRPC transport of the server. The only
// service it carries today is the standard health protocol, used by load
// balancers and orchestrators to probe readiness.
package grpc

import (
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/service"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// Handler is the root gRPC transport handler. It keeps references to the
// service layer and logger so future gRPC methods can delegate the same way
// the HTTP handlers do.
type Handler struct {
	services *service.Services

	logger *logger.Logger

	health *health.Server
}

func NewHandler(services *service.Services, logger *logger.Logger) *Handler {
	logger.Debug().Msg("gRPC handler created")
	return &Handler{
		services: services,
		logger:   logger,
		health:   health.NewServer(),
	}
}

// Register attaches the handler's services to the given gRPC server. The
// health service starts in SERVING state for the overall server.
func (h *Handler) Register(server *grpc.Server) {
	grpc_health_v1.RegisterHealthServer(server, h.health)
	h.health.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
}

// Shutdown flips every registered health service to NOT_SERVING so probes
// drain traffic before the listener closes.
func (h *Handler) Shutdown() {
	h.health.Shutdown()
}
