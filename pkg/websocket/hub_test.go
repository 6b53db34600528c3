package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		NewClient(hub, conn, 42).Serve()
	}))
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSendMessageToUser(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)

	require.Eventually(t, func() bool { return hub.IsOnline(42) }, time.Second, 10*time.Millisecond)

	n, err := hub.SendMessageToUser(42, NotificationPayload{ID: 1, Title: "approved"}, MessageTypeNotification)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var env struct {
		Type    string              `json:"type"`
		Payload NotificationPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &env))
	assert.Equal(t, MessageTypeNotification, env.Type)
	assert.Equal(t, "approved", env.Payload.Title)

	n, err = hub.SendMessageToUser(7, "nobody", MessageTypeNotification)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestBroadcastAndDisconnect(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.IsOnline(42) }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Broadcast(map[string]string{"product": "etanol"}, MessageTypeMapUpdated))
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(data), MessageTypeMapUpdated)

	conn.Close()
	assert.Eventually(t, func() bool { return !hub.IsOnline(42) }, 2*time.Second, 10*time.Millisecond)
}
