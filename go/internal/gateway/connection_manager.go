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
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// ConnectionManager manages the websocket clients and fans messages out to them
type ConnectionManager struct {
	connections map[*Connection]bool
	mu          sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
	clock    clockwork.Clock
	state    StateProvider

	broadcastCh chan Message
	sent        uint64
	dropped     uint64
}

// Connection is one websocket client
type Connection struct {
	ID      string
	Conn    *websocket.Conn
	Send    chan []byte
	Manager *ConnectionManager

	ConnectedAt time.Time
}

// ConnectionConfig holds websocket settings
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	SendBuffer      int
	BroadcastBuffer int
	CheckOrigin     func(r *http.Request) bool
}

// StateProvider supplies the state sent to a client right after it connects
type StateProvider interface {
	State(ctx context.Context) (any, error)
}

// StateFunc adapts a function to StateProvider
type StateFunc func(ctx context.Context) (any, error)

func (f StateFunc) State(ctx context.Context) (any, error) {
	return f(ctx)
}

// DefaultConnectionConfig returns default websocket settings
func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  1024,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		BroadcastBuffer: 1000,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

// NewConnectionManager creates a new connection manager. state may be nil.
func NewConnectionManager(config ConnectionConfig, clock clockwork.Clock, state StateProvider) *ConnectionManager {
	defaults := DefaultConnectionConfig()
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.BroadcastBuffer <= 0 {
		config.BroadcastBuffer = defaults.BroadcastBuffer
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	return &ConnectionManager{
		connections: make(map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config:      config,
		clock:       clock,
		state:       state,
		broadcastCh: make(chan Message, config.BroadcastBuffer),
	}
}

// Start delivers queued broadcasts until ctx is done, then closes every client.
func (cm *ConnectionManager) Start(ctx context.Context) {
	log.Info().Msg("connection manager started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("connection manager shutting down")
			cm.closeAll()
			return
		case message := <-cm.broadcastCh:
			cm.handleBroadcast(message)
		}
	}
}

// Upgrade turns an HTTP request into a websocket client
func (cm *ConnectionManager) Upgrade(w http.ResponseWriter, r *http.Request) error {
	conn, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		ID:          uuid.New().String(),
		Conn:        conn,
		Send:        make(chan []byte, cm.config.SendBuffer),
		Manager:     cm,
		ConnectedAt: cm.clock.Now(),
	}
	cm.sendState(r.Context(), connection)
	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump()

	log.Info().
		Str("connection_id", connection.ID).
		Str("remote_addr", r.RemoteAddr).
		Msg("websocket connection established")
	return nil
}

func (cm *ConnectionManager) sendState(ctx context.Context, c *Connection) {
	if cm.state == nil {
		return
	}
	v, err := cm.state.State(ctx)
	if err != nil {
		log.Debug().Err(err).Str("connection_id", c.ID).Msg("no initial state")
		return
	}
	data, err := cm.encode(TypeState, v)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode initial state")
		return
	}
	c.Send <- data
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	cm.connections[conn] = true
	log.Debug().
		Str("connection_id", conn.ID).
		Int("total_connections", len(cm.connections)).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if _, ok := cm.connections[conn]; !ok {
		return
	}
	delete(cm.connections, conn)
	close(conn.Send)
	log.Info().Str("connection_id", conn.ID).Msg("connection unregistered")
}

func (cm *ConnectionManager) closeAll() {
	cm.mu.RLock()
	conns := make([]*Connection, 0, len(cm.connections))
	for c := range cm.connections {
		conns = append(conns, c)
	}
	cm.mu.RUnlock()

	for _, c := range conns {
		cm.unregisterConnection(c)
	}
}

func (cm *ConnectionManager) encode(msgType string, data any) ([]byte, error) {
	var raw json.RawMessage
	switch v := data.(type) {
	case json.RawMessage:
		raw = v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Message{Type: msgType, Timestamp: cm.clock.Now(), Data: raw})
}

// Broadcast queues a message for every client. It never blocks; a full queue drops the message.
func (cm *ConnectionManager) Broadcast(msgType string, data any) {
	raw, ok := data.(json.RawMessage)
	if !ok {
		b, err := json.Marshal(data)
		if err != nil {
			log.Error().Err(err).Str("type", msgType).Msg("failed to marshal broadcast")
			return
		}
		raw = b
	}
	select {
	case cm.broadcastCh <- Message{Type: msgType, Timestamp: cm.clock.Now(), Data: raw}:
	default:
		cm.mu.Lock()
		cm.dropped++
		cm.mu.Unlock()
		log.Warn().Str("type", msgType).Msg("broadcast channel full, dropping message")
	}
}

func (cm *ConnectionManager) handleBroadcast(message Message) {
	data, err := json.Marshal(message)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal message for broadcast")
		return
	}

	var slow []*Connection
	cm.mu.Lock()
	for c := range cm.connections {
		select {
		case c.Send <- data:
			cm.sent++
		default:
			delete(cm.connections, c)
			close(c.Send)
			slow = append(slow, c)
		}
	}
	total := len(cm.connections)
	cm.mu.Unlock()

	for _, c := range slow {
		log.Warn().Str("connection_id", c.ID).Msg("connection send buffer full, closing connection")
		c.Conn.Close()
	}
	log.Debug().
		Str("type", message.Type).
		Int("connections", total).
		Msg("message broadcast")
}

// Stats describes the connected clients
type Stats struct {
	TotalConnections int    `json:"total_connections"`
	MessagesSent     uint64 `json:"messages_sent"`
	MessagesDropped  uint64 `json:"messages_dropped"`
	QueueDepth       int    `json:"queue_depth"`
}

// Stats returns connection statistics
func (cm *ConnectionManager) Stats() Stats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return Stats{
		TotalConnections: len(cm.connections),
		MessagesSent:     cm.sent,
		MessagesDropped:  cm.dropped,
		QueueDepth:       len(cm.broadcastCh),
	}
}

// deadline is measured on the wall clock because the network stack enforces it.
func deadline(d time.Duration) time.Time {
	return time.Now().Add(d)
}

func (c *Connection) writePump() {
	ticker := c.Manager.clock.NewTicker(c.Manager.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
		c.Manager.unregisterConnection(c)
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(deadline(c.Manager.config.WriteTimeout))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to write websocket message")
				return
			}

		case <-ticker.Chan():
			c.Conn.SetWriteDeadline(deadline(c.Manager.config.WriteTimeout))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Debug().Err(err).Str("connection_id", c.ID).Msg("failed to send ping")
				return
			}
		}
	}
}

func (c *Connection) readPump() {
	defer func() {
		c.Manager.unregisterConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(c.Manager.config.MaxMessageSize)
	c.Conn.SetReadDeadline(deadline(c.Manager.config.ReadTimeout))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(deadline(c.Manager.config.ReadTimeout))
		return nil
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("connection_id", c.ID).Msg("unexpected websocket close error")
			}
			return
		}
		// clients only listen; anything they send is logged and ignored
		log.Debug().Str("connection_id", c.ID).Int("bytes", len(message)).Msg("received client message")
		c.Conn.SetReadDeadline(deadline(c.Manager.config.ReadTimeout))
	}
}
