// Package core loads picabot configuration and wires it, together with
// logging, into a runnable chat bot instance.
//
// Configuration is loaded from a YAML file. ${VAR} references inside the
// file are expanded from the environment, and a small set of PICABOT_*
// environment variables override file values afterwards, so secrets can
// stay out of the file entirely.
//
// # Example Configuration
//
//	auth:
//	  token: ${PICARTO_CHAT_TOKEN}
//	bot_name: "mybot"
//	command_prefix: "!"
//	server: "chat.picarto.tv"
//	commands:
//	  hello: "Hi there!"
//	logging:
//	  level: info
//	  file: /var/log/picabot/picabot.log
package core

import (
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/NobreHD/PicaBot/pkg/constants"
)

// Config represents the complete picabot configuration structure
type Config struct {
	Auth          AuthConfig        `yaml:"auth"`
	BotName       string            `yaml:"bot_name"`
	CommandPrefix string            `yaml:"command_prefix"`
	Server        string            `yaml:"server"`
	Insecure      bool              `yaml:"insecure"`
	Commands      map[string]string `yaml:"commands"`
	Logging       LoggingConfig     `yaml:"logging"`
}

// AuthConfig carries the chat credentials: either a pre-issued token or a
// bot account username/password pair.
type AuthConfig struct {
	Token    string `yaml:"token"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level        string `yaml:"level"`         // debug, info, warn, error
	File         string `yaml:"file"`          // Log file path
	MaxSize      int    `yaml:"max_size"`      // Single file max size in MB
	MaxBackups   int    `yaml:"max_backups"`   // Number of backups to keep
	MaxAge       int    `yaml:"max_age"`       // Maximum days to retain
	Compress     bool   `yaml:"compress"`      // Whether to compress old logs
	EnableStdout bool   `yaml:"enable_stdout"` // Also output to stdout
}

// envOverrides are runtime environment overrides applied on top of the
// configuration file. Empty variables leave the file value in place.
type envOverrides struct {
	Token    string `env:"PICABOT_TOKEN"`
	Username string `env:"PICABOT_USERNAME"`
	Password string `env:"PICABOT_PASSWORD"`
	BotName  string `env:"PICABOT_NAME"`
	Server   string `env:"PICABOT_SERVER"`
	LogLevel string `env:"PICABOT_LOG_LEVEL"`
}

// LoadConfig loads configuration from file, expands environment variables,
// applies PICABOT_* overrides, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	expandedData, err := expandEnv(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand environment variables: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := applyEnvOverrides(&config); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// expandEnv replaces ${VAR_NAME} patterns with environment variable values
func expandEnv(input string) (string, error) {
	var missingVars []string

	result := os.Expand(input, func(key string) string {
		if val := os.Getenv(key); val != "" {
			return val
		}
		missingVars = append(missingVars, key)
		return ""
	})

	if len(missingVars) > 0 {
		return "", fmt.Errorf("missing required environment variables: %s",
			strings.Join(missingVars, ", "))
	}

	return result, nil
}

// applyEnvOverrides overlays PICABOT_* environment variables onto config.
func applyEnvOverrides(config *Config) error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return err
	}

	if o.Token != "" {
		config.Auth.Token = o.Token
	}
	if o.Username != "" {
		config.Auth.Username = o.Username
	}
	if o.Password != "" {
		config.Auth.Password = o.Password
	}
	if o.BotName != "" {
		config.BotName = o.BotName
	}
	if o.Server != "" {
		config.Server = o.Server
	}
	if o.LogLevel != "" {
		config.Logging.Level = o.LogLevel
	}
	return nil
}

// validateConfig fills defaults and rejects configurations the bot cannot
// run with.
func validateConfig(config *Config) error {
	if config.BotName == "" {
		return fmt.Errorf("bot_name is required")
	}

	hasToken := config.Auth.Token != ""
	hasPassword := config.Auth.Username != "" && config.Auth.Password != ""
	switch {
	case !hasToken && !hasPassword:
		return fmt.Errorf("auth requires either a token or a username/password pair")
	case hasToken && hasPassword:
		return fmt.Errorf("auth accepts a token or a username/password pair, not both")
	}

	if config.CommandPrefix == "" {
		config.CommandPrefix = constants.DefaultCommandPrefix
	}
	if config.Server == "" {
		config.Server = constants.DefaultServer
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.MaxSize == 0 {
		config.Logging.MaxSize = constants.DefaultLogMaxSize
	}
	if config.Logging.MaxBackups == 0 {
		config.Logging.MaxBackups = constants.DefaultLogMaxBackups
	}
	if config.Logging.MaxAge == 0 {
		config.Logging.MaxAge = constants.DefaultLogMaxAge
	}
	if config.Logging.File == "" {
		// Without a log file the only useful destination is stdout.
		config.Logging.EnableStdout = true
	}

	return nil
}
