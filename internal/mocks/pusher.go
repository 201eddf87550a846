package mocks

import (
	"sync"

	"github.com/stretchr/testify/mock"
)

// MockPusher is a testify mock of the real-time Pusher. Successful pushes are
// also recorded for inspection.
type MockPusher struct {
	mock.Mock

	mu     sync.Mutex
	Pushed []PushedEvent
}

// PushedEvent is one recorded push.
type PushedEvent struct {
	ChannelID string
	Event     string
	Data      any
}

// Push is a mock implementation of Pusher.Push
func (m *MockPusher) Push(channelID, event string, data any) error {
	err := m.Called(channelID, event, data).Error(0)
	if err == nil {
		m.mu.Lock()
		m.Pushed = append(m.Pushed, PushedEvent{ChannelID: channelID, Event: event, Data: data})
		m.mu.Unlock()
	}
	return err
}

// Events returns a snapshot of recorded pushes.
func (m *MockPusher) Events() []PushedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PushedEvent(nil), m.Pushed...)
}
