package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startEchoServer upgrades connections into a Client whose handler answers
// every event through the hub, exercising both the read and write paths.
func startEchoServer(t *testing.T, hub *Hub) (*httptest.Server, chan *Client) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	clients := make(chan *Client, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, uuid.New(), time.Second, nil)
		hub.Register(client.ID, client)
		defer hub.Unregister(client.ID, client)
		clients <- client

		client.ReadLoop(r.Context(), func(evt Event) {
			_ = hub.Push(client.ID, "echo", evt)
		})
	}))
	t.Cleanup(srv.Close)
	return srv, clients
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestClient_RoundTrip(t *testing.T) {
	hub := NewHub(nil)
	srv, clients := startEchoServer(t, hub)
	conn := dial(t, srv)
	<-clients

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"event":"ping","data":{"n":1}}`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)
	assert.Equal(t, "echo", evt.Name)
	assert.JSONEq(t, `{"event":"ping","data":{"n":1}}`, string(evt.Data))
}

func TestClient_MalformedFrameGetsErrorEvent(t *testing.T) {
	hub := NewHub(nil)
	srv, clients := startEchoServer(t, hub)
	conn := dial(t, srv)
	<-clients

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{{{`)))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	evt, err := DecodeEvent(frame)
	require.NoError(t, err)
	assert.Equal(t, EventError, evt.Name)
}

func TestClient_CloseIsIdempotentAndStopsSends(t *testing.T) {
	hub := NewHub(nil)
	srv, clients := startEchoServer(t, hub)
	dial(t, srv)
	client := <-clients

	client.Close()
	client.Close()

	select {
	case <-client.Done():
	case <-time.After(time.Second):
		t.Fatal("Done should be closed after Close")
	}
	assert.Error(t, client.Send([]byte("late")))
}

func TestClient_ReadLoopEndsOnContextCancel(t *testing.T) {
	upgrader := websocket.Upgrader{}
	finished := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(conn, uuid.New(), time.Second, nil)
		client.ReadLoop(ctx, func(Event) {})
		close(finished)
	}))
	t.Cleanup(srv.Close)
	dial(t, srv)

	cancel()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("ReadLoop should return after the context is cancelled")
	}
}
