package logger

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Log is the process-wide logger. It discards everything until InitLogger runs.
var Log = zap.NewNop()

type Config struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// InitLogger initializes the global logger. An empty Filename logs to stdout only.
func InitLogger(cfg *Config) error {
	var l = new(zapcore.Level)
	if err := l.UnmarshalText([]byte(cfg.Level)); err != nil {
		return err
	}

	writeSyncer, err := getLogWriter(cfg)
	if err != nil {
		return err
	}
	core := zapcore.NewCore(getEncoder(), writeSyncer, l)

	Log = zap.New(core, zap.AddCaller(), zap.Fields(zap.String("service", "freelyforms")))
	zap.ReplaceGlobals(Log)

	return nil
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(encoderConfig)
}

func getLogWriter(cfg *Config) (zapcore.WriteSyncer, error) {
	consoleSyncer := zapcore.AddSync(os.Stdout)
	if cfg.Filename == "" {
		return consoleSyncer, nil
	}

	if dir := filepath.Dir(cfg.Filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	lumberJackLogger := &lumberjack.Logger{
		Filename:   cfg.Filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
	}

	// Buffered so request logging does not hit the disk on every line
	bufferedFileSyncer := &zapcore.BufferedWriteSyncer{
		WS:            zapcore.AddSync(lumberJackLogger),
		Size:          256 * 1024,
		FlushInterval: 5 * time.Second,
	}

	return zapcore.NewMultiWriteSyncer(consoleSyncer, bufferedFileSyncer), nil
}

// Sync flushes any buffered log entries
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}
