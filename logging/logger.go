// Package logging provides structured logging for the paintbot daemon.
//
// logger.go contains the Logger organism that wraps zap.Logger. It composes:
//   - FileWriter molecule (rotating log file via lumberjack)
//   - a tee core writing to both console and file
//   - redact.go atoms for sensitive header values
//
// Example:
//
//	logger, err := logging.NewLogger(true, "paintbot.log")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer logger.Sync()
//
//	logger.Info("backend ready", zap.String("endpoint", endpoint))
package logging

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.Logger and its sugared variant.
type Logger struct {
	zap   *zap.Logger
	sugar *zap.SugaredLogger
}

// NewLogger creates a Logger for the given environment.
//
// Parameters:
//   - isDevelopment: when true, console output is colored and debug-level;
//     when false, console output is JSON and info-level.
//   - logFilePath: rotating log file path. Empty disables file output.
//
// The file output is always JSON for downstream processing.
func NewLogger(isDevelopment bool, logFilePath string) (*Logger, error) {
	var level zapcore.Level
	if isDevelopment {
		level = zapcore.DebugLevel
	} else {
		level = zapcore.InfoLevel
	}

	var consoleEncoder zapcore.Encoder
	if isDevelopment {
		consoleEncoder = zapcore.NewConsoleEncoder(consoleEncoderConfig())
	} else {
		consoleEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig())
	}
	cores := []zapcore.Core{
		zapcore.NewCore(consoleEncoder, zapcore.AddSync(os.Stdout), level),
	}

	if logFilePath != "" {
		fileWriter, err := NewFileWriter(logFilePath, DefaultFileWriterConfig())
		if err != nil {
			return nil, fmt.Errorf("logging: failed to create file writer: %w", err)
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(jsonEncoderConfig()), fileWriter, level))
	}

	zl := zap.New(zapcore.NewTee(cores...), zap.AddCaller())
	return &Logger{zap: zl, sugar: zl.Sugar()}, nil
}

// NewTestLogger returns a Logger suitable for unit tests: console only,
// debug level, no file side effects.
func NewTestLogger() *Logger {
	zl := zap.NewNop()
	return &Logger{zap: zl, sugar: zl.Sugar()}
}

// Named returns a child logger with the given name segment appended.
func (l *Logger) Named(name string) *Logger {
	named := l.zap.Named(name)
	return &Logger{zap: named, sugar: named.Sugar()}
}

// With returns a child logger with the given structured fields attached.
func (l *Logger) With(fields ...zap.Field) *Logger {
	child := l.zap.With(fields...)
	return &Logger{zap: child, sugar: child.Sugar()}
}

// Zap exposes the underlying zap.Logger for packages that take one directly.
func (l *Logger) Zap() *zap.Logger {
	return l.zap
}

// Debug logs at debug level with structured fields.
func (l *Logger) Debug(msg string, fields ...zap.Field) { l.zap.Debug(msg, fields...) }

// Info logs at info level with structured fields.
func (l *Logger) Info(msg string, fields ...zap.Field) { l.zap.Info(msg, fields...) }

// Warn logs at warn level with structured fields.
func (l *Logger) Warn(msg string, fields ...zap.Field) { l.zap.Warn(msg, fields...) }

// Error logs at error level with structured fields.
func (l *Logger) Error(msg string, fields ...zap.Field) { l.zap.Error(msg, fields...) }

// Fatal logs at fatal level and exits.
func (l *Logger) Fatal(msg string, fields ...zap.Field) { l.zap.Fatal(msg, fields...) }

// Infow logs at info level with loosely typed key-value pairs.
func (l *Logger) Infow(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

// Warnw logs at warn level with loosely typed key-value pairs.
func (l *Logger) Warnw(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

// Errorw logs at error level with loosely typed key-value pairs.
func (l *Logger) Errorw(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

// Sync flushes buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func jsonEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.MillisDurationEncoder
	return cfg
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	return cfg
}
