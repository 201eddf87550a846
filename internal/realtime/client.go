package realtime

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	maxMessageSize = 64 * 1024
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
)

// Client is one websocket connection. Its ID is the channel ID used by
// Registry and Hub. Writes are serialized and bounded by writeTimeout.
type Client struct {
	ID     string
	UserID uuid.UUID

	conn         *websocket.Conn
	writeTimeout time.Duration
	log          *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient wraps conn for the authenticated user.
func NewClient(conn *websocket.Conn, userID uuid.UUID, writeTimeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	id := uuid.NewString()
	return &Client{
		ID:           id,
		UserID:       userID,
		conn:         conn,
		writeTimeout: writeTimeout,
		log:          logger.With(slog.String("channel_id", id), slog.String("user_id", userID.String())),
		done:         make(chan struct{}),
	}
}

// Send writes a text frame.
func (c *Client) Send(payload []byte) error {
	return c.write(websocket.TextMessage, payload)
}

func (c *Client) write(messageType int, payload []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	select {
	case <-c.done:
		return websocket.ErrCloseSent
	default:
	}

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	if err := c.conn.WriteMessage(messageType, payload); err != nil {
		c.log.Warn("websocket send failed", slog.String("error", err.Error()))
		return err
	}
	return nil
}

// Close terminates the connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// Done is closed once the client is closed.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// ReadLoop delivers decoded events to handle until the connection fails, ctx
// ends or the client is closed. Malformed frames are reported back to the
// client as error events. A keepalive ping runs alongside.
func (c *Client) ReadLoop(ctx context.Context, handle func(Event)) {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go c.keepalive(ctx)
	defer c.Close()

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) &&
				!errors.Is(err, websocket.ErrCloseSent) {
				c.log.Debug("websocket read ended", slog.String("error", err.Error()))
			}
			return
		}

		evt, err := DecodeEvent(frame)
		if err != nil {
			c.SendError(err.Error())
			continue
		}
		handle(evt)
	}
}

// SendError writes an error event, logging rather than returning failures.
func (c *Client) SendError(message string) {
	frame, err := EncodeEvent(EventError, ErrorPayload{Message: message})
	if err != nil {
		return
	}
	if err := c.Send(frame); err != nil {
		c.log.Debug("failed to send error event", slog.String("error", err.Error()))
	}
}

func (c *Client) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-ctx.Done():
			c.Close()
			return
		case <-c.done:
			return
		}
	}
}
