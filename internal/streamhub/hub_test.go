package streamhub_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/ragd/ragd/internal/streamhub"
)

func newTestServer(t *testing.T) (*streamhub.Hub, *httptest.Server) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := streamhub.New(log)
	srv := httptest.NewServer(hub)
	t.Cleanup(srv.Close)
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type wireFrame struct {
	Type string `json:"type"`
}

func TestHub_SendsInitialFrameOnConnect(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	require.Equal(t, "initial", f.Type)
}

func TestHub_PublishBroadcastsSyncFrame(t *testing.T) {
	hub, srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage() // drain initial
	require.NoError(t, err)

	hub.Publish(streamhub.Snapshot{
		Documents: []streamhub.Document{{ID: "1", Title: "T"}},
		Metadata:  streamhub.Metadata{Total: 1},
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	require.Equal(t, "sync", f.Type)
}

func TestHub_RequestSyncReturnsCurrentSnapshot(t *testing.T) {
	hub, srv := newTestServer(t)
	hub.Publish(streamhub.Snapshot{Documents: []streamhub.Document{{ID: "x"}}, Metadata: streamhub.Metadata{Total: 1}})

	conn := dial(t, srv)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage() // drain initial
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "request_sync"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	require.Equal(t, "sync", f.Type)
}

func TestHub_PingRepliesWithPong(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage() // drain initial
	require.NoError(t, err)

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var f wireFrame
	require.NoError(t, json.Unmarshal(data, &f))
	require.Equal(t, "pong", f.Type)
}
