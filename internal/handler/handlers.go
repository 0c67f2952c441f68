// Package handler aggregates the transport handlers of the server. The
// HTTP handler carries the REST API; the gRPC handler carries the health
// service that load balancers probe.
package handler

import (
	"github.com/compvault/compvault/internal/config"
	"github.com/compvault/compvault/internal/handler/grpc"
	"github.com/compvault/compvault/internal/handler/http"
	"github.com/compvault/compvault/internal/logger"
	"github.com/compvault/compvault/internal/service"
)

type Handlers struct {
	HTTP *http.Handler
	GRPC *grpc.Handler
}

// NewHandlers creates one handler per transport address configured in cfg.
// At least one address must be set.
func NewHandlers(services *service.Services, cfg config.Server, logger *logger.Logger) (*Handlers, error) {
	logger.Info().Msg("creating new handlers...")

	handlers := &Handlers{}

	if cfg.HTTPAddress != "" {
		handlers.HTTP = http.NewHandler(services, logger)
	}
	if cfg.GRPCAddress != "" {
		handlers.GRPC = grpc.NewHandler(services, logger)
	}

	if handlers.HTTP == nil && handlers.GRPC == nil {
		return nil, errNoHandlersAreCreated
	}

	return handlers, nil
}
