package gateway

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mcdev12/draftcast/go/internal/draft/orchestrator"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans session views out to overlay websocket clients
type ConnectionManager struct {
	source StateProvider

	connections map[*Connection]bool
	// latest is the encoded view every new connection starts from
	latest  []byte
	version uint64
	primed  bool
	mu      sync.Mutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	sent    atomic.Uint64
	dropped atomic.Uint64
}

// Connection represents an overlay client
type Connection struct {
	ID          string
	RemoteAddr  string
	Conn        *websocket.Conn
	Send        chan []byte
	Manager     *ConnectionManager
	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for overlay connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBufferSize  int
	CheckOrigin     func(r *http.Request) bool
}

// DefaultConnectionConfig returns default overlay websocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		SendBufferSize:  16,
		// overlays are loaded from browser sources with arbitrary origins
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a fan-out over the views of source
func NewConnectionManager(source StateProvider, config ConnectionConfig) *ConnectionManager {
	if config.SendBufferSize <= 0 {
		config.SendBufferSize = 1
	}
	return &ConnectionManager{
		source:      source,
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// Start forwards every published view until ctx is done, then closes all connections.
func (cm *ConnectionManager) Start(ctx context.Context) {
	views, unsubscribe := cm.source.Subscribe()
	defer unsubscribe()

	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case v, ok := <-views:
			if !ok {
				cm.closeAll()
				return
			}
			cm.Broadcast(v)
		}
	}
}

// UpgradeConnection upgrades an HTTP request to an overlay websocket. The client receives
// the current view right away.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		RemoteAddr:  r.RemoteAddr,
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBufferSize),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	if err := cm.registerConnection(connection); err != nil {
		conn.Close()
		return err
	}

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", connection.RemoteAddr).
		Msg("overlay connection established")
	return nil
}

// registerConnection adds the connection and queues the latest view for it. Holding mu
// while queueing keeps a join from seeing views out of order.
func (cm *ConnectionManager) registerConnection(conn *Connection) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if !cm.primed {
		v := cm.source.View()
		data, err := encodeView(v, time.Now())
		if err != nil {
			return fmt.Errorf("failed to encode view: %w", err)
		}
		cm.latest, cm.version, cm.primed = data, v.Version, true
	}

	cm.connections[conn] = true
	conn.Send <- cm.latest
	cm.sent.Add(1)

	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
	return nil
}

// unregisterConnection removes a connection from the manager
func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	if cm.removeLocked(conn) {
		log.Info().Str("connection_id", conn.ID).Msg("overlay connection closed")
	}
}

func (cm *ConnectionManager) removeLocked(conn *Connection) bool {
	if !cm.connections[conn] {
		return false
	}
	delete(cm.connections, conn)
	close(conn.Send)
	return true
}

// Broadcast sends v to every connection. Views not newer than the last one sent are
// ignored. A connection whose send buffer is full is dropped.
func (cm *ConnectionManager) Broadcast(v orchestrator.View) {
	data, err := encodeView(v, time.Now())
	if err != nil {
		log.Error().Err(err).Uint64("version", v.Version).Msg("failed to marshal view for broadcast")
		return
	}

	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.primed && v.Version <= cm.version {
		return
	}
	cm.latest, cm.version, cm.primed = data, v.Version, true

	for conn := range cm.connections {
		select {
		case conn.Send <- data:
			cm.sent.Add(1)
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Msg("connection send buffer full, closing connection")
			cm.removeLocked(conn)
			cm.dropped.Add(1)
		}
	}

	log.Debug().
		Uint64("version", v.Version).
		Int("connections", len(cm.connections)).
		Msg("view broadcasted")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	for conn := range cm.connections {
		cm.removeLocked(conn)
	}
}

// GetConnectionStats returns statistics about active connections
func (cm *ConnectionManager) GetConnectionStats() map[string]interface{} {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return map[string]interface{}{
		"total_connections":   len(cm.connections),
		"view_version":        cm.version,
		"messages_sent":       cm.sent.Load(),
		"dropped_connections": cm.dropped.Load(),
	}
}

// writePump handles sending messages to the websocket connection
func (c *Connection) writePump() {
	ticker := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}

			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to write message to websocket")
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("failed to send ping")
				return
			}
		}
	}
}

// readPump keeps the read deadline moving and notices when the client goes away.
// Overlays are read-only; anything they send is logged and ignored.
func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().
					Err(err).
					Str("connection_id", c.ID).
					Msg("unexpected websocket close")
			}
			return
		}

		log.Debug().
			Str("connection_id", c.ID).
			Int("bytes", len(message)).
			Msg("ignoring overlay client message")
		c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
}
