// Package dlogger exposes a simple zap logger, with log levels
package dlogger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// LogLevelInfo sets the log level to info
	LogLevelInfo = "info"

	// LogLevelDebug sets the log level to debug
	LogLevelDebug = "debug"

	// LogLevelWarn sets the log level to warn
	LogLevelWarn = "warn"

	// LogLevelNone sets logger to no logging
	LogLevelNone = "none"
)

// Option configures the logger built by GetLogger
type Option func(*settings)

type settings struct {
	file       string
	maxSizeMB  int
	maxBackups int
	console    zapcore.WriteSyncer
}

// File sends logs to a rotated log file instead of stderr
func File(path string) Option {
	return func(s *settings) {
		s.file = path
	}
}

// Console sets where human-readable logs go when no log file is set (defaults to stderr)
func Console(w zapcore.WriteSyncer) Option {
	return func(s *settings) {
		if w != nil {
			s.console = w
		}
	}
}

// Rotation sets the max size (in megabytes) of a log file and the number of rotated files to keep
func Rotation(maxSizeMB, maxBackups int) Option {
	return func(s *settings) {
		if maxSizeMB > 0 {
			s.maxSizeMB = maxSizeMB
		}
		if maxBackups >= 0 {
			s.maxBackups = maxBackups
		}
	}
}

// GetLogger returns a zap logger with the specified level.
//
// Logs are JSON when written to a file, and human-readable lines otherwise.
func GetLogger(logLevel string, opts ...Option) (*zap.Logger, error) {
	if logLevel == LogLevelNone {
		return zap.NewNop(), nil
	}
	s := settings{maxSizeMB: 10, maxBackups: 3, console: zapcore.Lock(os.Stderr)}
	for _, apply := range opts {
		apply(&s)
	}

	var lvl zapcore.Level
	err := lvl.UnmarshalText([]byte(logLevel))
	if err != nil {
		return nil, err
	}

	if s.file != "" {
		sink := zapcore.AddSync(&lumberjack.Logger{
			Filename:   s.file,
			MaxSize:    s.maxSizeMB,
			MaxBackups: s.maxBackups,
		})
		encoder := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
		return zap.New(zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(lvl))), nil
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	encoderConfig.CallerKey = ""
	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	return zap.New(zapcore.NewCore(encoder, s.console, zap.NewAtomicLevelAt(lvl))), nil
}

// MustGetLogger returns a zap logger with the specified level or panics
func MustGetLogger(logLevel string, opts ...Option) *zap.Logger {
	l, err := GetLogger(logLevel, opts...)
	if err != nil {
		panic(err)
	}
	return l
}
