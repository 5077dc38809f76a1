// Package bot implements the Picarto chat client: connection lifecycle
// with bounded-rate reconnection, event dispatch, and command routing.
//
// A Bot is built with FromToken or FromPassword, configured with On and
// Command registrations, and then driven by Run, which blocks until the
// bot is closed or the reconnection window is exhausted. Listeners and
// command handlers may call the send operations re-entrantly.
package bot

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/NobreHD/PicaBot/internal/logger"
	"github.com/NobreHD/PicaBot/internal/transport"
	"github.com/NobreHD/PicaBot/internal/wire"
	"github.com/NobreHD/PicaBot/pkg/constants"
)

// ErrNotConnected is returned by send operations when no live connection
// exists. It is never swallowed; callers decide how to react.
var ErrNotConnected = errors.New("bot: not connected")

// ErrRateLimited is returned by Run when the reconnection window is
// exhausted. The bot stops; a new Run call is required to resume.
var ErrRateLimited = errors.New("bot: reconnection attempts exceeded")

// Events emitted by the bot itself.
const (
	// EventRaw fires for every successfully decoded frame, before any
	// classification.
	EventRaw = "raw"
	// EventMessage fires for every chat message that was not dispatched
	// as a command.
	EventMessage = "message"
)

// Event is delivered to listeners registered with On. Record is set for
// raw events; Envelope is set for message events.
type Event struct {
	Name     string
	Record   *wire.Record
	Envelope *wire.Envelope
}

// Listener receives events. Listeners for the same event run concurrently
// during dispatch; the read loop waits for all of them before the next
// frame.
type Listener func(Event)

// Handler handles one command invocation with the triggering message and
// the parsed positional arguments.
type Handler func(env wire.Envelope, args []string)

// Bot is the chat client facade.
type Bot struct {
	name   string
	prefix string
	server string
	url    string

	transport transport.Transport
	log       *logrus.Logger

	regMu     sync.RWMutex
	listeners map[string][]Listener
	commands  map[string]Handler

	connMu sync.RWMutex
	conn   transport.Conn

	state  stateVar
	window *attemptWindow

	lifeMu sync.Mutex
	cancel func()

	backoff backoffFunc
}

// New creates a bot that will connect to url. Most callers should use
// FromToken or FromPassword instead.
func New(url, prefix, botName, server string) *Bot {
	return &Bot{
		name:      botName,
		prefix:    prefix,
		server:    server,
		url:       url,
		transport: transport.NewWebsocket(),
		log:       logger.GetLogger(),
		listeners: make(map[string][]Listener),
		commands:  make(map[string]Handler),
		window:    newAttemptWindow(constants.ReconnectHorizon, constants.MaxReconnectAttempts),
		backoff:   sleepBackoff,
	}
}

// FromToken creates a bot that authenticates with a pre-issued chat token.
func FromToken(token, botName, prefix, server string, secure bool) *Bot {
	return New(
		fmt.Sprintf("%s://%s/chat/token=%s", scheme(secure), server, token),
		prefix, botName, server,
	)
}

// FromPassword creates a bot that authenticates with bot account
// credentials.
func FromPassword(username, password, botName, prefix, server string, secure bool) *Bot {
	return New(
		fmt.Sprintf("%s://%s/bot/username=%s&password=%s", scheme(secure), server, username, password),
		prefix, botName, server,
	)
}

func scheme(secure bool) string {
	if secure {
		return "wss"
	}
	return "ws"
}

// SetTransport replaces the websocket transport. Must be called before Run.
func (b *Bot) SetTransport(t transport.Transport) {
	b.transport = t
}

// SetLogger replaces the process logger the bot reports through.
func (b *Bot) SetLogger(log *logrus.Logger) {
	b.log = log
}

// State returns the current connection state.
func (b *Bot) State() ConnectionState {
	return b.state.get()
}

// Connected reports whether the bot currently holds a live connection.
func (b *Bot) Connected() bool {
	s := b.State()
	if s != StateConnecting && s != StateListening {
		return false
	}
	return b.currentConn() != nil
}

// Send marshals payload as JSON and writes it as one frame. It returns
// ErrNotConnected when no live connection exists; no I/O happens then.
func (b *Bot) Send(payload any) error {
	conn := b.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return conn.WriteFrame(string(data))
}

// SendChatMessage posts text to the channel chat.
func (b *Bot) SendChatMessage(text string) error {
	return b.Send(wire.NewChatPayload(text))
}

// DeleteMessage asks the server to remove a message. The server silently
// ignores the request when the bot lacks moderator rights.
func (b *Bot) DeleteMessage(messageID string, channelID int64) error {
	return b.Send(wire.NewRemovePayload(messageID, channelID))
}

// Close requests shutdown of the active run. The live connection, if
// any, is torn down and Run returns without further reconnection
// attempts. Close may be called at any point, including mid-backoff; it
// ends only the run in flight, so a later Run call starts the bot again.
func (b *Bot) Close() error {
	b.lifeMu.Lock()
	cancel := b.cancel
	b.lifeMu.Unlock()

	b.state.set(StateClosing)
	if cancel != nil {
		cancel()
	}
	var err error
	if conn := b.currentConn(); conn != nil {
		err = conn.Close()
	}
	if cancel == nil {
		// No run loop in flight to finish the Closing transition.
		b.state.set(StateDisconnected)
	}
	return err
}

func (b *Bot) currentConn() transport.Conn {
	b.connMu.RLock()
	defer b.connMu.RUnlock()
	return b.conn
}

func (b *Bot) setConn(conn transport.Conn) {
	b.connMu.Lock()
	b.conn = conn
	b.connMu.Unlock()
}
