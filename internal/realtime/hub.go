package realtime

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ErrChannelNotFound is returned when pushing to a channel that is not open.
var ErrChannelNotFound = errors.New("channel not found")

// Subscriber abstracts a connected client.
type Subscriber interface {
	Send([]byte) error
	Close()
}

// Hub holds open channels by ID and writes events to them.
type Hub struct {
	mu       sync.RWMutex
	channels map[string]Subscriber
	logger   *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		channels: make(map[string]Subscriber),
		logger:   logger.With(slog.String("component", "realtime_hub")),
	}
}

// Register opens channelID for client, closing any client previously
// registered under the same ID.
func (h *Hub) Register(channelID string, client Subscriber) {
	h.mu.Lock()
	previous, exists := h.channels[channelID]
	h.channels[channelID] = client
	h.mu.Unlock()

	if exists && previous != client {
		previous.Close()
	}
}

// Unregister removes channelID if it is still bound to client.
func (h *Hub) Unregister(channelID string, client Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if current, ok := h.channels[channelID]; ok && current == client {
		delete(h.channels, channelID)
	}
}

// Push writes one event to channelID. A failed write closes and removes the
// channel before the error is returned.
func (h *Hub) Push(channelID, event string, data any) error {
	h.mu.RLock()
	client, ok := h.channels[channelID]
	h.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrChannelNotFound, channelID)
	}

	frame, err := EncodeEvent(event, data)
	if err != nil {
		return err
	}

	if err := client.Send(frame); err != nil {
		client.Close()
		h.Unregister(channelID, client)
		h.logger.Warn("push failed, channel closed",
			slog.String("channel_id", channelID),
			slog.String("event", event),
			slog.String("error", err.Error()))
		return fmt.Errorf("push to channel %s failed: %w", channelID, err)
	}
	return nil
}

// Len returns the number of open channels.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels)
}

// CloseAll closes every channel. Used on shutdown.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	channels := h.channels
	h.channels = make(map[string]Subscriber)
	h.mu.Unlock()

	for _, client := range channels {
		client.Close()
	}
	if len(channels) > 0 {
		h.logger.Info("closed realtime channels", slog.Int("count", len(channels)))
	}
}
