package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Default rotation settings for the paintbot log file.
const (
	// DefaultMaxSizeMB is the file size in megabytes that triggers rotation.
	DefaultMaxSizeMB = 50

	// DefaultMaxBackups is the number of rotated files to retain.
	DefaultMaxBackups = 3

	// DefaultMaxAgeDays is the retention period for rotated files.
	DefaultMaxAgeDays = 14
)

// FileWriterConfig holds log rotation settings. Zero values use defaults.
type FileWriterConfig struct {
	// MaxSizeMB is the maximum log file size before rotation.
	MaxSizeMB int

	// MaxBackups is the maximum number of rotated files to keep.
	MaxBackups int

	// MaxAgeDays is the maximum age of rotated files in days.
	MaxAgeDays int

	// Compress enables gzip compression of rotated files.
	Compress bool
}

// DefaultFileWriterConfig returns the default rotation settings.
func DefaultFileWriterConfig() FileWriterConfig {
	return FileWriterConfig{
		MaxSizeMB:  DefaultMaxSizeMB,
		MaxBackups: DefaultMaxBackups,
		MaxAgeDays: DefaultMaxAgeDays,
		Compress:   true,
	}
}

// NewFileWriter creates a zapcore.WriteSyncer backed by a rotating log file.
// The parent directory is created if it does not exist.
func NewFileWriter(path string, cfg FileWriterConfig) (zapcore.WriteSyncer, error) {
	if path == "" {
		return nil, fmt.Errorf("logging: log file path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("logging: failed to create log directory: %w", err)
		}
	}

	if cfg.MaxSizeMB <= 0 {
		cfg.MaxSizeMB = DefaultMaxSizeMB
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = DefaultMaxBackups
	}
	if cfg.MaxAgeDays <= 0 {
		cfg.MaxAgeDays = DefaultMaxAgeDays
	}

	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}), nil
}
