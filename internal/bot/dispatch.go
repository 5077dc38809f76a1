package bot

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/NobreHD/PicaBot/internal/command"
	"github.com/NobreHD/PicaBot/internal/wire"
)

// On registers a listener for the named event. Listeners for the same
// event are invoked in registration order but run concurrently, with no
// guarantee on completion order. Registration is safe at any time.
func (b *Bot) On(event string, fn Listener) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	b.listeners[event] = append(b.listeners[event], fn)
}

// Command registers the handler for a command name. Registering the same
// name again replaces the previous handler; a warning is logged since the
// overwrite is usually a mistake.
func (b *Bot) Command(name string, fn Handler) {
	b.regMu.Lock()
	defer b.regMu.Unlock()
	if _, exists := b.commands[name]; exists {
		b.log.WithField("command", name).Warn("command-handler-replaced")
	}
	b.commands[name] = fn
}

// Emit invokes every listener registered for evt.Name concurrently and
// waits for all of them to finish, so the read loop does not advance to
// the next frame until the current one is fully handled. With no
// listeners registered it returns immediately.
func (b *Bot) Emit(evt Event) {
	b.regMu.RLock()
	fns := b.listeners[evt.Name]
	b.regMu.RUnlock()

	if len(fns) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, fn := range fns {
		wg.Add(1)
		go func(fn Listener) {
			defer wg.Done()
			fn(evt)
		}(fn)
	}
	wg.Wait()
}

// handleFrame decodes one inbound frame and routes the result. A decode
// failure drops the frame and keeps the connection alive.
func (b *Bot) handleFrame(raw string) {
	rec, err := wire.Decode([]byte(raw))
	if err != nil {
		b.log.WithError(err).Error("frame-decode-failed")
		return
	}
	if rec == nil {
		return
	}

	b.Emit(Event{Name: EventRaw, Record: rec})

	if !rec.IsChat() {
		return
	}
	envs, err := rec.Envelopes()
	if err != nil {
		b.log.WithError(err).Error("chat-batch-decode-failed")
		return
	}
	for i := range envs {
		b.routeMessage(envs[i])
	}
}

// routeMessage applies the per-message routing rule: drop the bot's own
// messages, dispatch prefixed bodies to a matching command handler, and
// emit everything else as a message event with the envelope untouched.
func (b *Bot) routeMessage(env wire.Envelope) {
	if env.UserName == b.name {
		return
	}

	if strings.HasPrefix(env.Body, b.prefix) {
		if inv, ok := command.Parse(strings.TrimPrefix(env.Body, b.prefix)); ok {
			b.regMu.RLock()
			handler := b.commands[inv.Name]
			b.regMu.RUnlock()
			if handler != nil {
				b.log.WithFields(logrus.Fields{
					"command": inv.Name,
					"user":    env.UserName,
				}).Debug("command-dispatched")
				handler(env, inv.Args)
				return
			}
		}
	}

	b.Emit(Event{Name: EventMessage, Envelope: &env})
}
