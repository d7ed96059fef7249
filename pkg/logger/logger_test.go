package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestInitLogger(t *testing.T) {
	defer func() { Log = zap.NewNop() }()
	filename := filepath.Join(t.TempDir(), "nested", "test.log")

	cfg := &Config{
		Level:      "DEBUG",
		Filename:   filename,
		MaxSize:    1,
		MaxBackups: 1,
		MaxAge:     1,
		Compress:   false,
	}

	err := InitLogger(cfg)
	assert.NoError(t, err)
	assert.NotNil(t, Log)

	Log.Info("Test log message")
	Sync()

	// The directory is created and the buffered entry flushed
	data, err := os.ReadFile(filename)
	assert.NoError(t, err)
	assert.Contains(t, string(data), "Test log message")
	assert.Contains(t, string(data), `"service":"freelyforms"`)
}

func TestInitLoggerStdoutOnly(t *testing.T) {
	defer func() { Log = zap.NewNop() }()

	err := InitLogger(&Config{Level: "WARN"})
	assert.NoError(t, err)
	assert.False(t, Log.Core().Enabled(zap.InfoLevel))
	assert.True(t, Log.Core().Enabled(zap.WarnLevel))
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	cfg := &Config{
		Level:    "INVALID",
		Filename: filepath.Join(t.TempDir(), "test_invalid.log"),
	}

	err := InitLogger(cfg)
	assert.Error(t, err)
}

func TestDefaultLoggerIsUsable(t *testing.T) {
	assert.NotPanics(t, func() { Log.Info("discarded") })
}
