package core

import (
	"context"
	"sync"
	"testing"
	"time"

	logrustest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NobreHD/PicaBot/internal/bot"
	"github.com/NobreHD/PicaBot/internal/transport"
)

// memConn is a minimal in-memory connection for engine tests.
type memConn struct {
	frames chan string
	closed chan struct{}
	once   sync.Once

	mu   sync.Mutex
	sent []string
}

func newMemConn() *memConn {
	return &memConn{frames: make(chan string, 8), closed: make(chan struct{})}
}

func (c *memConn) ReadFrame() (string, error) {
	select {
	case f := <-c.frames:
		return f, nil
	case <-c.closed:
		return "", transport.ErrClosed
	}
}

func (c *memConn) WriteFrame(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, text)
	return nil
}

func (c *memConn) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func (c *memConn) sentFrames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.sent...)
}

type memTransport struct {
	conn *memConn
}

func (t *memTransport) Open(ctx context.Context, url string) (transport.Conn, error) {
	return t.conn, nil
}

func TestNewEngine_TokenAuth(t *testing.T) {
	config := &Config{Auth: AuthConfig{Token: "abc"}, BotName: "picabot"}
	require.NoError(t, validateConfig(config))

	engine := NewEngine(config)
	require.NotNil(t, engine.Bot())
	assert.Equal(t, bot.StateDisconnected, engine.Bot().State())
	assert.False(t, engine.Bot().Connected())
}

func TestNewEngine_PasswordAuth(t *testing.T) {
	config := &Config{
		Auth:    AuthConfig{Username: "u", Password: "p"},
		BotName: "picabot",
	}
	require.NoError(t, validateConfig(config))

	engine := NewEngine(config)
	require.NotNil(t, engine.Bot())
}

func TestEngine_CannedCommandReplies(t *testing.T) {
	config := &Config{
		Auth:     AuthConfig{Token: "abc"},
		BotName:  "picabot",
		Commands: map[string]string{"hello": "Hi there!"},
	}
	require.NoError(t, validateConfig(config))

	engine := NewEngine(config)
	conn := newMemConn()
	engine.Bot().SetTransport(&memTransport{conn: conn})

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	require.Eventually(t, engine.Bot().Connected, 2*time.Second, 5*time.Millisecond)

	conn.frames <- `{"t":"c","m":[{"c":1,"rn":"ch","cc":"fff","t":1,"id":"a",` +
		`"m":"!hello","u":1,"n":"alice","k":"000","i":"p"}]}`

	require.Eventually(t, func() bool {
		return len(conn.sentFrames()) == 1
	}, 2*time.Second, 5*time.Millisecond)
	assert.JSONEq(t, `{"type":"chat","message":"Hi there!"}`, conn.sentFrames()[0])

	require.NoError(t, engine.Stop())
	assert.NoError(t, <-done)
}

func TestEngine_StopBeforeRun(t *testing.T) {
	config := &Config{Auth: AuthConfig{Token: "abc"}, BotName: "picabot"}
	require.NoError(t, validateConfig(config))

	engine := NewEngine(config)
	assert.NoError(t, engine.Stop())
	assert.Equal(t, bot.StateDisconnected, engine.Bot().State())

	// An early Stop does not wedge the engine: a later Run still dials.
	conn := newMemConn()
	engine.Bot().SetTransport(&memTransport{conn: conn})

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	require.Eventually(t, engine.Bot().Connected, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, engine.Stop())
	assert.NoError(t, <-done)
}

func TestEngine_UsesInjectedLogger(t *testing.T) {
	config := &Config{Auth: AuthConfig{Token: "abc"}, BotName: "picabot"}
	require.NoError(t, validateConfig(config))

	engine := NewEngine(config)
	log, hook := logrustest.NewNullLogger()
	engine.SetLogger(log)

	conn := newMemConn()
	engine.Bot().SetTransport(&memTransport{conn: conn})

	done := make(chan error, 1)
	go func() { done <- engine.Run(context.Background()) }()

	require.Eventually(t, engine.Bot().Connected, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, engine.Stop())
	assert.NoError(t, <-done)

	var messages []string
	for _, entry := range hook.AllEntries() {
		messages = append(messages, entry.Message)
	}
	assert.Contains(t, messages, "starting-bot")
	assert.Contains(t, messages, "connected")
}
