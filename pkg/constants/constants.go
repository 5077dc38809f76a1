package constants

import "time"

// Reconnection policy
const (
	// ReconnectHorizon is the rolling window over which connection attempts are counted
	ReconnectHorizon = 10 * time.Second
	// MaxReconnectAttempts is the number of attempts counted per rolling window
	// before further attempts are refused
	MaxReconnectAttempts = 5
	// ReconnectBackoff is the pause between a failed attempt and the next one
	ReconnectBackoff = 1 * time.Second
)

// Server defaults
const (
	// DefaultServer is the chat server host used when none is configured
	DefaultServer = "chat.picarto.tv"
	// DefaultCommandPrefix marks chat messages that should be parsed as commands
	DefaultCommandPrefix = "!"
)

// Transport settings
const (
	// HandshakeTimeout bounds the websocket opening handshake
	HandshakeTimeout = 10 * time.Second
	// ReadBufferSize is the websocket read buffer size in bytes
	ReadBufferSize = 1024
	// WriteBufferSize is the websocket write buffer size in bytes
	WriteBufferSize = 1024
)

// Secret masking
const (
	// MinSecretLengthForMasking is the minimum secret length to apply masking
	MinSecretLengthForMasking = 8
	// SecretMaskPrefixLength is the length of prefix to show before masking
	SecretMaskPrefixLength = 2
	// SecretMaskSuffixLength is the length of suffix to show after masking
	SecretMaskSuffixLength = 2
)

// Logging defaults
const (
	// DefaultLogMaxSize is the default maximum log file size in MB
	DefaultLogMaxSize = 100
	// DefaultLogMaxBackups is the default number of rotated log files to keep
	DefaultLogMaxBackups = 5
	// DefaultLogMaxAge is the default maximum number of days to retain old logs
	DefaultLogMaxAge = 30
)
