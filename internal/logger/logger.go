// Package logger configures the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the global logger. It discards everything until Init is called.
var Logger = zap.NewNop().Sugar()

// Config contains configuration for the logger.
type Config struct {
	Debug     bool   // Enable debug level logging
	LogFormat string // "json" or "human"
	LogFile   string // Optional extra output path
}

// DefaultConfig returns a default configuration.
func DefaultConfig() Config {
	return Config{LogFormat: "human"}
}

// Init builds the global logger. Logs go to stderr so templates written to
// stdout stay machine-readable.
func Init(cfg Config) error {
	var zapConfig zap.Config

	switch cfg.LogFormat {
	case "json":
		zapConfig = zap.NewProductionConfig()
	case "human", "":
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.DisableStacktrace = true
	default:
		return fmt.Errorf("unknown log format: %s", cfg.LogFormat)
	}

	outputPaths := []string{"stderr"}
	if cfg.LogFile != "" {
		outputPaths = append(outputPaths, cfg.LogFile)
	}
	zapConfig.OutputPaths = outputPaths
	zapConfig.ErrorOutputPaths = []string{"stderr"}

	if cfg.Debug {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		zapConfig.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	logger, err := zapConfig.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	Logger = logger.Sugar()
	return nil
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Logger.Sync()
}
