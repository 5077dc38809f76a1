package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/NobreHD/PicaBot/pkg/constants"
)

// Websocket dials chat servers over a websocket connection.
type Websocket struct {
	dialer *websocket.Dialer
}

// NewWebsocket creates the default websocket transport.
func NewWebsocket() *Websocket {
	return &Websocket{
		dialer: &websocket.Dialer{
			HandshakeTimeout: constants.HandshakeTimeout,
			ReadBufferSize:   constants.ReadBufferSize,
			WriteBufferSize:  constants.WriteBufferSize,
		},
	}
}

// Open dials url and returns the live connection. The URL path carries
// credentials, so dial errors are wrapped without repeating it.
func (t *Websocket) Open(ctx context.Context, url string) (Conn, error) {
	conn, _, err := t.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}
	return &wsConn{conn: conn}, nil
}

// wsConn wraps a gorilla connection. gorilla allows at most one concurrent
// writer, so writes are serialized behind writeMu.
type wsConn struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsConn) ReadFrame() (string, error) {
	_, data, err := c.conn.ReadMessage()
	if err != nil {
		if isClosed(err) {
			return "", ErrClosed
		}
		return "", fmt.Errorf("websocket read: %w", err)
	}
	return string(data), nil
}

func (c *wsConn) WriteFrame(text string) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		if isClosed(err) {
			return ErrClosed
		}
		return fmt.Errorf("websocket write: %w", err)
	}
	return nil
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}

// isClosed reports whether err means the connection is gone: a websocket
// close frame from the peer, or a read on a locally closed socket.
func isClosed(err error) bool {
	var closeErr *websocket.CloseError
	if errors.As(err, &closeErr) {
		return true
	}
	return errors.Is(err, net.ErrClosed) || errors.Is(err, websocket.ErrCloseSent)
}
