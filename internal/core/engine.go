package core

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/NobreHD/PicaBot/internal/bot"
	"github.com/NobreHD/PicaBot/internal/logger"
	"github.com/NobreHD/PicaBot/internal/wire"
)

// Engine owns a configured bot instance and its lifecycle.
type Engine struct {
	config *Config
	bot    *bot.Bot
	log    *logrus.Logger
}

// NewEngine builds the bot from config: the factory matching the
// configured credentials, config-declared canned commands, and the
// built-in observability listeners.
func NewEngine(config *Config) *Engine {
	var b *bot.Bot
	if config.Auth.Token != "" {
		b = bot.FromToken(config.Auth.Token, config.BotName, config.CommandPrefix, config.Server, !config.Insecure)
	} else {
		b = bot.FromPassword(config.Auth.Username, config.Auth.Password, config.BotName, config.CommandPrefix, config.Server, !config.Insecure)
	}

	e := &Engine{config: config, bot: b, log: logger.GetLogger()}
	e.registerCannedCommands()
	e.registerListeners()
	return e
}

// Bot exposes the underlying bot so callers can add their own listeners
// and command handlers before Run.
func (e *Engine) Bot() *bot.Bot {
	return e.bot
}

// SetLogger replaces the engine's logger and forwards it to the bot.
func (e *Engine) SetLogger(log *logrus.Logger) {
	e.log = log
	e.bot.SetLogger(log)
}

// registerCannedCommands turns the commands section of the config into
// handlers that answer with a fixed reply.
func (e *Engine) registerCannedCommands() {
	for name, reply := range e.config.Commands {
		name, reply := name, reply
		e.bot.Command(name, func(env wire.Envelope, args []string) {
			if err := e.bot.SendChatMessage(reply); err != nil {
				e.log.WithFields(logrus.Fields{
					"command": name,
					"error":   err,
				}).Error("canned-reply-failed")
			}
		})
		e.log.WithField("command", name).Info("registered-canned-command")
	}
}

func (e *Engine) registerListeners() {
	e.bot.On(bot.EventRaw, func(evt bot.Event) {
		e.log.WithField("type", evt.Record.Type).Debug("frame-received")
	})
	e.bot.On(bot.EventMessage, func(evt bot.Event) {
		e.log.WithFields(logrus.Fields{
			"channel": evt.Envelope.ChannelName,
			"user":    evt.Envelope.UserName,
		}).Debug("chat-message")
	})
}

// Run starts the bot and blocks until it stops.
func (e *Engine) Run(ctx context.Context) error {
	e.log.WithFields(logrus.Fields{
		"server": e.config.Server,
		"bot":    e.config.BotName,
		"token":  maskSecret(e.config.Auth.Token),
	}).Info("starting-bot")
	return e.bot.Run(ctx)
}

// Stop shuts the bot down. Run returns once teardown completes.
func (e *Engine) Stop() error {
	return e.bot.Close()
}
