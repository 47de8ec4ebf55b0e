package utils

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LogLevel represents the logging level
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogFormat represents the logging format
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

const timestampFormat = "2006-01-02T15:04:05.000Z07:00"

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
	Output io.Writer `yaml:"-"` // defaults to stderr so stdout stays clean for reports
}

// NewLogger creates a new logger with the given configuration
func NewLogger(config LoggerConfig) *Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(string(config.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	switch config.Format {
	case LogFormatJSON:
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: timestampFormat,
		})
	default:
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: timestampFormat,
		})
	}

	if config.Output != nil {
		logger.SetOutput(config.Output)
	} else {
		logger.SetOutput(os.Stderr)
	}

	return &Logger{Logger: logger}
}

// NewDiscardLogger creates a logger that drops everything, for tests and library callers
func NewDiscardLogger() *Logger {
	return NewLogger(LoggerConfig{
		Level:  LogLevelError,
		Output: io.Discard,
	})
}

// WithContext adds context fields to the logger
func (l *Logger) WithContext(fields map[string]interface{}) *logrus.Entry {
	return l.WithFields(logrus.Fields(fields))
}

// WithComponent adds a component field to the logger
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithFile adds component and file fields to the logger
func (l *Logger) WithFile(component, path string) *logrus.Entry {
	return l.WithFields(logrus.Fields{
		"component": component,
		"file":      path,
	})
}

// ParseLogLevel parses a log level string, falling back to info
func ParseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

// ParseLogFormat parses a log format string
func ParseLogFormat(format string) LogFormat {
	switch strings.ToLower(format) {
	case "json":
		return LogFormatJSON
	default:
		return LogFormatText
	}
}

type contextKey string

const loggerContextKey contextKey = "logger"

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// LoggerFromContext retrieves a logger from the context, or a discarding one if none was set
func LoggerFromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*Logger); ok {
		return logger
	}
	return NewDiscardLogger()
}
