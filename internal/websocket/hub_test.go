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

	"opspulse/internal/config"
	"opspulse/internal/infrastructure"
	"opspulse/internal/shared/testutil"
	"opspulse/pkg/contracts/events"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(logger, nil)
	hub.Start()

	cfg := config.Default().WebSocket
	upgrader := Upgrader(cfg, []string{"http://localhost:3000"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := infrastructure.WithTraceID(r.Context(), "trace-ws")
		_ = ServeWS(hub, upgrader, cfg, w, r.WithContext(ctx))
	}))

	t.Cleanup(func() {
		srv.Close()
		hub.Stop()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, origin string) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) events.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg events.Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHub_ConnectAndBroadcast(t *testing.T) {
	hub, srv := startHub(t)

	a := dial(t, srv, "")
	b := dial(t, srv, "http://localhost:3000")

	hello := readMessage(t, a)
	assert.Equal(t, TypeConnection, hello.Type)
	assert.Equal(t, "trace-ws", hello.TraceID)
	readMessage(t, b)
	assert.Equal(t, 2, hub.ClientCount())

	ctx := infrastructure.WithTraceID(context.Background(), "trace-upload")
	hub.Broadcast(ctx, TypeDatasetRefreshed, map[string]any{"kind": "fuel", "rowCount": 3})

	for _, conn := range []*websocket.Conn{a, b} {
		msg := readMessage(t, conn)
		assert.Equal(t, TypeDatasetRefreshed, msg.Type)
		assert.Equal(t, "trace-upload", msg.TraceID)
		data, ok := msg.Data.(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "fuel", data["kind"])
		assert.NotEmpty(t, msg.Timestamp)
	}

	assert.Equal(t, int64(2), hub.Stats()["total_connections"])
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "")
	readMessage(t, conn)
	require.Equal(t, 1, hub.ClientCount())

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopClosesClients(t *testing.T) {
	hub, srv := startHub(t)

	conn := dial(t, srv, "")
	readMessage(t, conn)

	hub.Stop()
	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount())

	assert.NotPanics(t, func() {
		hub.Broadcast(context.Background(), TypeDatasetCleared, nil)
	})
}

func TestUpgrader_RejectsForeignOrigin(t *testing.T) {
	_, srv := startHub(t)

	header := http.Header{}
	header.Set("Origin", "http://evil.example")
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)

	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestUpgrader_OriginRules(t *testing.T) {
	up := Upgrader(config.WebSocketConfig{}, []string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "http://api.local/ws", nil)
	assert.True(t, up.CheckOrigin(req), "no origin")

	req.Header.Set("Origin", "http://api.local")
	assert.True(t, up.CheckOrigin(req), "same host")

	req.Header.Set("Origin", "http://other.local")
	assert.False(t, up.CheckOrigin(req))

	wildcard := Upgrader(config.WebSocketConfig{}, []string{"*"})
	assert.True(t, wildcard.CheckOrigin(req))
}
