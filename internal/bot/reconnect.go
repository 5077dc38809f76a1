package bot

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/NobreHD/PicaBot/internal/transport"
	"github.com/NobreHD/PicaBot/pkg/constants"
)

// ConnectionState is the reconnection controller's state. Only the
// controller transitions it; everything else just reads it.
type ConnectionState int32

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateListening
	StateClosing
)

func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	default:
		return "unknown"
	}
}

type stateVar struct {
	v atomic.Int32
}

func (s *stateVar) get() ConnectionState  { return ConnectionState(s.v.Load()) }
func (s *stateVar) set(c ConnectionState) { s.v.Store(int32(c)) }

// backoffFunc waits out the reconnect backoff, or returns early when ctx
// ends. Replaced in tests to avoid real sleeps.
type backoffFunc func(ctx context.Context, d time.Duration)

func sleepBackoff(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}

// attemptWindow counts connection attempts over a rolling horizon.
type attemptWindow struct {
	mu       sync.Mutex
	horizon  time.Duration
	limit    int
	attempts []time.Time
	now      func() time.Time
}

func newAttemptWindow(horizon time.Duration, limit int) *attemptWindow {
	return &attemptWindow{horizon: horizon, limit: limit, now: time.Now}
}

// admit records an attempt at the current time and reports whether it is
// allowed. Entries older than the horizon are pruned into a fresh slice
// first, so the window never grows across a long healthy connection.
func (w *attemptWindow) admit() bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	kept := make([]time.Time, 0, len(w.attempts)+1)
	for _, t := range w.attempts {
		if now.Sub(t) <= w.horizon {
			kept = append(kept, t)
		}
	}
	kept = append(kept, now)
	w.attempts = kept

	return len(w.attempts) < w.limit
}

// Run connects to the chat server and keeps the connection alive until
// Close is called, ctx is cancelled, or the reconnection window is
// exhausted. It returns nil on an explicit shutdown and ErrRateLimited
// when the window saturates. Close ends only the active run; a later
// Run call starts fresh, still subject to the shared attempt window.
// Run must not be called concurrently with itself on the same Bot.
func (b *Bot) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	b.lifeMu.Lock()
	b.cancel = cancel
	b.lifeMu.Unlock()

	defer func() {
		b.lifeMu.Lock()
		b.cancel = nil
		b.lifeMu.Unlock()
		b.state.set(StateDisconnected)
	}()

	for b.window.admit() {
		if ctx.Err() != nil {
			return nil
		}

		b.state.set(StateConnecting)
		err := b.listenOnce(ctx)
		b.state.set(StateDisconnected)
		if ctx.Err() != nil {
			// Explicit shutdown wins over whatever ended the session.
			return nil
		}
		if err != nil {
			b.log.WithError(err).Error("connection-lost")
		}

		b.log.Info("reconnecting-after-backoff")
		b.backoff(ctx, constants.ReconnectBackoff)
	}

	b.log.Error("reconnect-window-exhausted")
	return ErrRateLimited
}

// listenOnce dials once and pumps frames until the connection ends. It
// returns nil only when the peer closed the connection in an orderly way.
func (b *Bot) listenOnce(ctx context.Context) error {
	conn, err := b.transport.Open(ctx, b.url)
	if err != nil {
		return fmt.Errorf("connect to %s: %w", b.server, err)
	}

	b.setConn(conn)
	defer b.setConn(nil)
	b.state.set(StateListening)
	b.log.WithField("server", b.server).Info("connected")

	// Tear the connection down when ctx ends so ReadFrame unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			conn.Close()
			if errors.Is(err, transport.ErrClosed) {
				b.log.Info("connection-closed")
				return nil
			}
			return fmt.Errorf("read frame: %w", err)
		}
		b.handleFrame(frame)
	}
}
