package ws

import (
	"context"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

type Config struct {
	PingInterval   time.Duration
	MaxMessageSize int64
	// InboundRPS caps frames per second a client may send before it is
	// disconnected.
	InboundRPS int
}

// PresenceTracker is told when a user's sockets open and close.
type PresenceTracker interface {
	Connect(ctx context.Context, userID, socketID string) error
	Touch(ctx context.Context, userID string) error
	Disconnect(ctx context.Context, userID, socketID string) error
}

type Client struct {
	id     string
	userID string
	send   chan []byte
}

func newClient(userID string, buffer int) *Client {
	return &Client{
		id:     uuid.NewString(),
		userID: userID,
		send:   make(chan []byte, buffer),
	}
}

func (c Config) withDefaults() Config {
	if c.PingInterval <= 0 {
		c.PingInterval = 30 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 32 * 1024
	}
	if c.InboundRPS <= 0 {
		c.InboundRPS = 5
	}
	return c
}

// Handler serves one upgraded connection. The authenticated user id must be in
// Locals("user_id"); presence may be nil.
func (h *Hub) Handler(cfg Config, presence PresenceTracker) func(*websocket.Conn) {
	cfg = cfg.withDefaults()
	return func(conn *websocket.Conn) {
		userID, _ := conn.Locals("user_id").(string)
		if userID == "" {
			_ = conn.Close()
			return
		}

		c := newClient(userID, 256)
		h.Register(c)
		if presence != nil {
			if err := presence.Connect(context.Background(), userID, c.id); err != nil {
				h.logger.Warn("presence connect", zap.String("user_id", userID), zap.Error(err))
			}
		}
		h.logger.Info("ws connected", zap.String("user_id", userID), zap.String("client_id", c.id))

		go h.writePump(conn, c, cfg)
		h.readPump(conn, c, cfg, presence)

		if presence != nil {
			if err := presence.Disconnect(context.Background(), userID, c.id); err != nil {
				h.logger.Warn("presence disconnect", zap.String("user_id", userID), zap.Error(err))
			}
		}
		h.logger.Info("ws disconnected", zap.String("user_id", userID), zap.String("client_id", c.id))
	}
}

// readPump drains inbound frames. Clients only listen, so payloads are
// discarded; reading keeps pong handling alive.
func (h *Hub) readPump(conn *websocket.Conn, c *Client, cfg Config, presence PresenceTracker) {
	defer func() {
		h.Unregister(c)
		_ = conn.Close()
	}()

	wait := 2 * cfg.PingInterval
	limiter := rate.NewLimiter(rate.Limit(cfg.InboundRPS), cfg.InboundRPS)
	conn.SetReadLimit(cfg.MaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(wait))
	conn.SetPongHandler(func(string) error {
		if presence != nil {
			_ = presence.Touch(context.Background(), c.userID)
		}
		return conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		if !limiter.Allow() {
			h.logger.Warn("ws client over inbound limit", zap.String("client_id", c.id))
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *Client, cfg Config) {
	ticker := time.NewTicker(cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = conn.WriteControl(websocket.CloseMessage, []byte{}, time.Now().Add(time.Second))
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				return
			}
		}
	}
}
