package gateway

import (
	"net/http"

	"github.com/rs/zerolog/log"
)

// WebSocketHandler handles websocket upgrade requests from overlays
type WebSocketHandler struct {
	connectionManager *ConnectionManager
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(cm *ConnectionManager) *WebSocketHandler {
	return &WebSocketHandler{
		connectionManager: cm,
	}
}

// HandleOverlayConnection handles GET /ws/overlay
func (h *WebSocketHandler) HandleOverlayConnection(w http.ResponseWriter, r *http.Request) {
	// the upgrader has already written an error response when this fails
	if err := h.connectionManager.UpgradeConnection(w, r); err != nil {
		log.Warn().
			Err(err).
			Str("remote_addr", r.RemoteAddr).
			Msg("failed to upgrade overlay connection")
	}
}

// HandleConnectionStats handles GET /ws/stats
func (h *WebSocketHandler) HandleConnectionStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.connectionManager.GetConnectionStats())
}

// RegisterRoutes registers websocket routes with an HTTP mux
func (h *WebSocketHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /ws/overlay", h.HandleOverlayConnection)
	mux.HandleFunc("GET /ws/stats", h.HandleConnectionStats)
}
