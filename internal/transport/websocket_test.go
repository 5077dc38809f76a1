package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestServer runs handler against every websocket connection made to
// the returned server.
func newTestServer(t *testing.T, handler func(*websocket.Conn)) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		handler(conn)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocket_OpenAndExchangeFrames(t *testing.T) {
	received := make(chan string, 1)
	srv := newTestServer(t, func(conn *websocket.Conn) {
		defer conn.Close()
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		received <- string(data)
		conn.WriteMessage(websocket.TextMessage, []byte(`{"t":"c"}`))
	})

	conn, err := NewWebsocket().Open(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteFrame(`{"type":"chat","message":"hi"}`))

	select {
	case got := <-received:
		assert.Equal(t, `{"type":"chat","message":"hi"}`, got)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not receive frame")
	}

	frame, err := conn.ReadFrame()
	require.NoError(t, err)
	assert.Equal(t, `{"t":"c"}`, frame)
}

func TestWebsocket_PeerCloseYieldsErrClosed(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})

	conn, err := NewWebsocket().Open(context.Background(), wsURL(srv))
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.ReadFrame()
	assert.ErrorIs(t, err, ErrClosed)
}

func TestWebsocket_LocalCloseUnblocksRead(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) {
		// Hold the connection open; the client closes it.
		conn.ReadMessage()
		conn.Close()
	})

	conn, err := NewWebsocket().Open(context.Background(), wsURL(srv))
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, err := conn.ReadFrame()
		errs <- err
	}()

	// Give the reader a moment to block before tearing down.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("ReadFrame did not unblock after Close")
	}
}

func TestWebsocket_OpenFailure(t *testing.T) {
	srv := newTestServer(t, func(conn *websocket.Conn) { conn.Close() })
	url := wsURL(srv)
	srv.Close()

	_, err := NewWebsocket().Open(context.Background(), url)
	assert.Error(t, err)
}
