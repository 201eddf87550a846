package realtime

import (
	"sync"

	"github.com/google/uuid"
)

// Registry records the active channel of each user. A user has at most one
// tracked channel; the latest Join wins.
type Registry struct {
	mu       sync.RWMutex
	channels map[uuid.UUID]string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{channels: make(map[uuid.UUID]string)}
}

// Join records channelID as userID's active channel, replacing any earlier one.
func (r *Registry) Join(userID uuid.UUID, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[userID] = channelID
}

// Leave removes the entry whose channel is channelID. It returns the user
// that was removed, if any. A channel that was already superseded by a newer
// Join leaves the newer entry in place.
func (r *Registry) Leave(channelID string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for userID, ch := range r.channels {
		if ch == channelID {
			delete(r.channels, userID)
			return userID, true
		}
	}
	return uuid.Nil, false
}

// IsOnline reports whether userID has an active channel.
func (r *Registry) IsOnline(userID uuid.UUID) bool {
	_, ok := r.ChannelOf(userID)
	return ok
}

// ChannelOf returns userID's active channel.
func (r *Registry) ChannelOf(userID uuid.UUID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[userID]
	return ch, ok
}

// Len returns the number of online users.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
