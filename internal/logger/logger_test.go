package logger

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name: "valid config with file",
			config: Config{
				Level:      "info",
				File:       filepath.Join(t.TempDir(), "picabot-test.log"),
				MaxSize:    1,
				MaxBackups: 1,
				MaxAge:     1,
			},
			wantErr: false,
		},
		{
			name: "valid config with stdout only",
			config: Config{
				Level:        "debug",
				EnableStdout: true,
			},
			wantErr: false,
		},
		{
			name: "invalid log level defaults to info",
			config: Config{
				Level:        "invalid",
				EnableStdout: true,
			},
			wantErr: false,
		},
		{
			name:    "empty config",
			config:  Config{},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := InitLogger(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, GetLogger())
			}
		})
	}
}

func TestInitLogger_CreatesLogDirectory(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "picabot-test-logs")
	logFile := filepath.Join(tmpDir, "test.log")

	err := InitLogger(Config{Level: "info", File: logFile})
	require.NoError(t, err)

	info, err := os.Stat(tmpDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestGetLogger(t *testing.T) {
	globalLogger = nil

	log := GetLogger()
	assert.NotNil(t, log)
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestGetLogger_ReturnsSameInstance(t *testing.T) {
	logger1 := GetLogger()
	logger2 := GetLogger()
	assert.Same(t, logger1, logger2)
}

func TestLogFunctions(t *testing.T) {
	// Capture stdout while the logger is writing to it
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := InitLogger(Config{Level: "info", EnableStdout: true})
	require.NoError(t, err)

	Info("info message")
	Warn("warn message")
	Error("error message")
	Infof("formatted %s", "info")
	GetLogger().Debug("debug message")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	output := buf.String()
	assert.Contains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
	assert.Contains(t, output, "formatted info")
	// Debug messages are suppressed at info level
	assert.NotContains(t, output, "debug message")
}

func TestWithFields(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	err := InitLogger(Config{Level: "info", EnableStdout: true})
	require.NoError(t, err)

	WithFields(logrus.Fields{"server": "chat.example.tv"}).Info("connected")
	WithField("attempt", 3).Warn("retrying")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	io.Copy(&buf, r)

	output := buf.String()
	assert.Contains(t, output, "chat.example.tv")
	assert.Contains(t, output, "connected")
	assert.Contains(t, output, "retrying")
}
