package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// ConnectionManager fans match events out to the chat clients of each match
type ConnectionManager struct {
	// Connection pools organized by match ID
	matchConnections map[uuid.UUID]map[*Connection]bool
	mu               sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig

	broadcastCh chan BroadcastMessage
}

// Connection represents a WebSocket connection to a chat client
type Connection struct {
	ID      string
	UserID  string
	MatchID uuid.UUID
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	CheckOrigin     func(r *http.Request) bool
}

// BroadcastMessage represents a message to broadcast to connections
type BroadcastMessage struct {
	MatchID uuid.UUID
	Event   *MatchEvent
	UserID  string // Optional: if set, only send to this user
}

// DefaultConnectionConfig returns default WebSocket configuration
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			// chat clients are served from any origin, same as the unlock endpoint
			return true
		},
	}
}

// NewConnectionManager creates a new WebSocket connection manager
func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	return &ConnectionManager{
		matchConnections: make(map[uuid.UUID]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		broadcastCh: make(chan BroadcastMessage, 1000),
	}
}

// Start processes broadcast messages until ctx is cancelled
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// UpgradeConnection upgrades an HTTP connection to WebSocket. Frames in initial are
// queued ahead of any broadcast.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, userID string, matchID uuid.UUID, initial ...*MatchEvent) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		UserID:      userID,
		MatchID:     matchID,
		Conn:        conn,
		Send:        make(chan []byte, 256),
		Manager:     cm,
		ConnectedAt: time.Now(),
	}

	for _, event := range initial {
		data, err := json.Marshal(event)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal initial event")
			continue
		}
		connection.Send <- data
	}

	cm.registerConnection(connection)

	go connection.deliver()
	go connection.awaitClose()

	log.Info().
		Str("connection_id", connection.ID).
		Str("user_id", userID).
		Str("match_id", matchID.String()).
		Msg("WebSocket connection established")
	return nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.matchConnections[conn.MatchID] == nil {
		cm.matchConnections[conn.MatchID] = make(map[*Connection]bool)
	}
	cm.matchConnections[conn.MatchID][conn] = true

	log.Debug().
		Str("connection_id", conn.ID).
		Str("match_id", conn.MatchID.String()).
		Int("total_connections", len(cm.matchConnections[conn.MatchID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.matchConnections[conn.MatchID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	close(conn.Send)
	if len(connections) == 0 {
		delete(cm.matchConnections, conn.MatchID)
	}

	log.Info().
		Str("connection_id", conn.ID).
		Str("user_id", conn.UserID).
		Str("match_id", conn.MatchID.String()).
		Msg("connection unregistered")
}

// BroadcastToMatch sends an event to every connection of a match
func (cm *ConnectionManager) BroadcastToMatch(matchID uuid.UUID, event *MatchEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{MatchID: matchID, Event: event}:
	default:
		log.Warn().Str("match_id", matchID.String()).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastToUser sends an event to one participant's connections in a match
func (cm *ConnectionManager) BroadcastToUser(matchID uuid.UUID, userID string, event *MatchEvent) {
	select {
	case cm.broadcastCh <- BroadcastMessage{MatchID: matchID, Event: event, UserID: userID}:
	default:
		log.Warn().
			Str("match_id", matchID.String()).
			Str("user_id", userID).
			Msg("broadcast channel full, dropping user message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message BroadcastMessage) {
	cm.mu.RLock()
	connections, exists := cm.matchConnections[message.MatchID]
	if !exists {
		cm.mu.RUnlock()
		return
	}

	var targets []*Connection
	for conn := range connections {
		if message.UserID != "" && conn.UserID != message.UserID {
			continue
		}
		targets = append(targets, conn)
	}
	cm.mu.RUnlock()

	data, err := json.Marshal(message.Event)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal event for broadcast")
		return
	}

	for _, conn := range targets {
		select {
		case conn.Send <- data:
		default:
			log.Warn().
				Str("connection_id", conn.ID).
				Str("user_id", conn.UserID).
				Msg("connection send buffer full, closing connection")
			cm.unregisterConnection(conn)
			conn.Conn.Close()
		}
	}

	log.Debug().
		Str("event_type", string(message.Event.Type)).
		Str("match_id", message.MatchID.String()).
		Int("connections", len(targets)).
		Msg("event broadcasted")
}

// ConnectionStats summarises the open connections
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveMatches    int            `json:"active_matches"`
	PerMatch         map[string]int `json:"match_connections"`
}

func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{PerMatch: make(map[string]int, len(cm.matchConnections))}
	for matchID, connections := range cm.matchConnections {
		stats.TotalConnections += len(connections)
		stats.PerMatch[matchID.String()] = len(connections)
	}
	stats.ActiveMatches = len(cm.matchConnections)
	return stats
}

// deliver writes queued match frames to the chat client and keeps it alive with pings.
// A closed Send channel means the manager dropped the connection.
func (c *Connection) deliver() {
	keepalive := time.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		keepalive.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case frame, open := <-c.Send:
			if !open {
				_ = c.write(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.write(websocket.TextMessage, frame); err != nil {
				log.Warn().Err(err).Str("connection_id", c.ID).Str("match_id", c.MatchID.String()).Msg("match frame not delivered")
				return
			}
		case <-keepalive.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Warn().Err(err).Str("connection_id", c.ID).Msg("keepalive ping failed")
				return
			}
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(c.Manager.config.WriteTimeout))
	return c.Conn.WriteMessage(messageType, data)
}

// awaitClose blocks until the client goes away. Chat lines are posted over HTTP, so any
// frame the client sends only refreshes the idle deadline.
func (c *Connection) awaitClose() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	idle := func() error {
		return c.Conn.SetReadDeadline(time.Now().Add(c.Manager.config.ReadTimeout))
	}
	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	_ = idle()
	c.Conn.SetPongHandler(func(string) error { return idle() })

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Warn().Err(err).Str("connection_id", c.ID).Str("user_id", c.UserID).Msg("chat client dropped")
			}
			return
		}
		_ = idle()
	}
}
