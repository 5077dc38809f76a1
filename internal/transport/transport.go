// Package transport abstracts the bidirectional connection to the chat
// server and ships the websocket implementation used by default.
package transport

import (
	"context"
	"errors"
)

// ErrClosed reports that the connection was closed, either by the peer or
// by a local Close. Callers use it to tell an orderly close apart from
// other transport faults.
var ErrClosed = errors.New("transport: connection closed")

// Conn is one live connection to the chat server.
type Conn interface {
	// ReadFrame blocks until the next text frame arrives. It returns
	// ErrClosed once the connection has been closed.
	ReadFrame() (string, error)

	// WriteFrame sends one text frame. Safe for concurrent use.
	WriteFrame(text string) error

	// Close tears the connection down and unblocks a pending ReadFrame.
	Close() error
}

// Transport opens connections to a chat server URL.
type Transport interface {
	Open(ctx context.Context, url string) (Conn, error)
}
