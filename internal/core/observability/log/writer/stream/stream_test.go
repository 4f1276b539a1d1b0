package stream

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/usuarios/internal/core/observability/log"
)

func dial(t *testing.T, h *Hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.Eventually(t, func() bool { return h.Clients() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestHubBroadcastsRecords(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)

	ts := time.Date(2024, 2, 2, 2, 2, 2, 0, time.UTC)
	require.NoError(t, h.Write(context.Background(), log.Record{Level: log.LevelInfo, Message: "hello", Timestamp: ts}))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	var doc map[string]any
	require.NoError(t, conn.ReadJSON(&doc))
	assert.Equal(t, "hello", doc["message"])
	assert.Equal(t, "2024-02-02T02:02:02Z", doc["timestamp"])
}

func TestHubHonoursFormatter(t *testing.T) {
	h := NewHub()
	w, err := Factory(h)(map[string]any{"format": "simple", "layout": "%level% %message%"})
	require.NoError(t, err)
	assert.Same(t, h, w)

	conn := dial(t, h)
	require.NoError(t, h.Write(context.Background(), log.NewRecord(log.LevelError, "boom", nil)))

	_ = conn.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, "ERROR boom", string(msg))
}

func TestHubDropsClosedClients(t *testing.T) {
	h := NewHub()
	conn := dial(t, h)
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool { return h.Clients() == 0 }, time.Second, 10*time.Millisecond)
	assert.NoError(t, h.Write(context.Background(), log.NewRecord(log.LevelInfo, "nobody", nil)))
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	dial(t, h)
	require.NoError(t, h.Close(context.Background()))
	assert.Zero(t, h.Clients())
}
