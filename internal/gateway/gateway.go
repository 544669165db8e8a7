package gateway

import (
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"pokerverse/internal/auth"
	"pokerverse/internal/codec"
	"pokerverse/internal/config"
	"pokerverse/internal/lobby"
	"pokerverse/internal/logging"
	"pokerverse/internal/metrics"
	"pokerverse/internal/table"
)

var logger = log.With().Str("logger_name", "gateway::ws").Logger()

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

// Connection represents a WebSocket client connection. It is the room's
// subscriber for this client.
type Connection struct {
	id       string
	username string
	RoomID   string
	Table    *table.Table

	conn    *websocket.Conn
	send    chan []byte
	done    chan struct{}
	once    sync.Once
	gateway *Gateway

	actions *rate.Limiter
	chat    *rate.Limiter
	log     zerolog.Logger
}

// Gateway manages WebSocket connections
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection

	lobby    *lobby.Lobby
	auth     auth.Service
	cfg      config.GatewayConfig
	upgrader websocket.Upgrader
}

// New creates a new Gateway instance
func New(lby *lobby.Lobby, authSvc auth.Service, cfg config.GatewayConfig) *Gateway {
	g := &Gateway{
		connections: make(map[string]*Connection),
		lobby:       lby,
		auth:        authSvc,
		cfg:         cfg,
	}
	g.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     originChecker(cfg.AllowedOrigins),
	}
	return g
}

func originChecker(allowed string) func(r *http.Request) bool {
	allowed = strings.TrimSpace(allowed)
	if allowed == "" || allowed == "*" {
		return func(*http.Request) bool { return true }
	}
	origins := make(map[string]bool)
	for _, o := range strings.Split(allowed, ",") {
		origins[strings.TrimSpace(o)] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || origins[origin]
	}
}

// RegisterRoutes mounts GET /ws/:room.
func (g *Gateway) RegisterRoutes(r gin.IRouter) {
	r.GET("/ws/:room", g.HandleWebSocket)
}

// HandleWebSocket authenticates, upgrades and attaches the client to its
// room. "?spectate=1" watches an existing room without taking a seat.
func (g *Gateway) HandleWebSocket(c *gin.Context) {
	acct, err := g.auth.Authenticate(c.Request.Context(), auth.RequestToken(c.Request))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
		return
	}
	roomID := strings.TrimSpace(c.Param("room"))
	if roomID == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing room id"})
		return
	}

	ws, err := g.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("Upgrade error")
		return
	}

	bufSize := g.cfg.SendBuffer
	if bufSize <= 0 {
		bufSize = 64
	}
	conn := &Connection{
		id:       uuid.NewString(),
		username: acct.Username,
		RoomID:   roomID,
		conn:     ws,
		send:     make(chan []byte, bufSize),
		done:     make(chan struct{}),
		gateway:  g,
		actions:  newLimiter(g.cfg.ActionsPerSec, g.cfg.ActionBurst),
		chat:     newLimiter(g.cfg.ChatPerSec, g.cfg.ChatBurst),
	}
	conn.log = logger.With().
		Str(logging.ConnKey, conn.id).
		Str(logging.PlayerKey, conn.username).
		Str(logging.RoomKey, roomID).
		Logger()

	g.mu.Lock()
	g.connections[conn.id] = conn
	total := len(g.connections)
	g.mu.Unlock()
	metrics.Metrics.ConnectionOpened()
	conn.log.Info().Int("total", total).Msg("Client connected")

	go conn.writePump()

	if c.Query("spectate") == "1" {
		conn.Table, err = g.lobby.Get(roomID)
		if err == nil {
			err = conn.Table.Subscribe(conn)
		}
	} else {
		conn.Table, err = g.lobby.Join(roomID, conn)
	}
	if err != nil {
		conn.log.Info().Err(err).Msg("Join refused")
		conn.sendError(err)
		conn.Close()
		g.removeConnection(conn)
		return
	}

	go conn.readPump()
}

func newLimiter(perSec float64, burst int) *rate.Limiter {
	if perSec <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSec), burst)
}

func (c *Connection) ID() string       { return c.id }
func (c *Connection) Username() string { return c.username }

// Send queues data for the write pump without blocking.
func (c *Connection) Send(data []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

// Close stops the write pump, which closes the socket and ends the read pump.
func (c *Connection) Close() {
	c.once.Do(func() { close(c.done) })
}

func (c *Connection) readPump() {
	defer func() {
		if err := c.Table.Disconnect(c.id, c.username); err != nil && !errors.Is(err, table.ErrTableClosed) {
			c.log.Warn().Err(err).Msg("Disconnect")
		}
		c.gateway.removeConnection(c)
		c.Close()
		c.conn.Close()
	}()

	maxSize := c.gateway.cfg.MaxMessageSize
	if maxSize <= 0 {
		maxSize = 4096
	}
	c.conn.SetReadLimit(maxSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("Read error")
			}
			return
		}
		if !c.handleMessage(message) {
			return
		}
	}
}

// handleMessage returns false when the connection should end.
func (c *Connection) handleMessage(data []byte) bool {
	cmd, err := codec.DecodeCommand(data)
	if err != nil {
		c.sendError(err)
		return true
	}

	limiter := c.actions
	if cmd.Kind == codec.CommandChat {
		limiter = c.chat
	}
	if !limiter.Allow() {
		c.sendError(&codec.ProtocolError{Reason: "rate limit exceeded"})
		return true
	}

	switch cmd.Kind {
	case codec.CommandAct:
		err = c.Table.Act(c.username, cmd.Action, cmd.Amount)
	case codec.CommandStartGame:
		err = c.Table.StartHand()
	case codec.CommandChat:
		err = c.Table.Chat(c.username, cmd.Message)
	case codec.CommandLeave:
		err = c.Table.Leave(c.username)
	}
	if err != nil {
		c.log.Debug().Err(err).Msg("Command rejected")
		c.sendError(err)
		if errors.Is(err, table.ErrTableClosed) {
			return false
		}
	}
	return true
}

// sendError answers this connection only.
func (c *Connection) sendError(err error) {
	if !c.Send(codec.EncodeError(err)) {
		c.log.Warn().Err(err).Msg("Dropped error reply")
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-c.done:
			// flush what is queued, e.g. the error that ended the connection
			for {
				select {
				case message := <-c.send:
					c.conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
						return
					}
					continue
				default:
				}
				break
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.connections[c.id]; !ok {
		return
	}
	delete(g.connections, c.id)
	metrics.Metrics.ConnectionClosed()
	c.log.Info().Int("total", len(g.connections)).Msg("Client disconnected")
}

// Count returns the number of open connections.
func (g *Gateway) Count() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.connections)
}

// CloseAll ends every connection, e.g. on shutdown.
func (g *Gateway) CloseAll() {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.connections {
		c.Close()
	}
}
