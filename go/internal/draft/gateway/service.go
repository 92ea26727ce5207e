package gateway

import (
	"context"
	"net/http"

	"github.com/rs/zerolog/log"
)

// Service is the overlay gateway: the websocket fan-out plus the control API
type Service struct {
	connectionManager *ConnectionManager
	wsHandler         *WebSocketHandler
	stateHandler      *StateHandler
}

// Config holds configuration for the overlay gateway
type Config struct {
	ConnectionConfig ConnectionConfig
}

// DefaultConfig returns default configuration for the overlay gateway
func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
	}
}

// NewService creates a new overlay gateway over controller
func NewService(config Config, controller SessionController) *Service {
	connectionManager := NewConnectionManager(controller, config.ConnectionConfig)

	return &Service{
		connectionManager: connectionManager,
		wsHandler:         NewWebSocketHandler(connectionManager),
		stateHandler:      NewStateHandler(controller),
	}
}

// Start runs the fan-out until ctx is cancelled
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting overlay gateway")
	s.connectionManager.Start(ctx)
	log.Info().Msg("overlay gateway stopped")
	return nil
}

// RegisterRoutes registers the websocket and control API routes
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	s.wsHandler.RegisterRoutes(mux)
	s.stateHandler.RegisterStateRoutes(mux)
	log.Info().Msg("overlay gateway routes registered")
}

// GetStats returns statistics about the gateway service
func (s *Service) GetStats() map[string]interface{} {
	stats := s.connectionManager.GetConnectionStats()
	stats["service"] = "overlay_gateway"
	stats["status"] = "running"
	return stats
}
