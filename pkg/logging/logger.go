// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-sharelock.
//
// go-sharelock is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/jeremyhahn/go-sharelock/pkg/correlation"
	"github.com/jeremyhahn/go-sharelock/pkg/types"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config selects the level, output format and destination of a Logger.
type Config struct {
	Level  string    // debug, info, warn or error
	Format string    // text or json
	Writer io.Writer // defaults to os.Stderr
}

// Logger is a thin wrapper around slog.
type Logger struct {
	logger *slog.Logger
	debug  bool
}

// New builds a Logger from config. A nil config logs info and above as text
// to stderr.
func New(config *Config) (*Logger, error) {
	cfg := Config{}
	if config != nil {
		cfg = *config
	}
	if cfg.Writer == nil {
		cfg.Writer = os.Stderr
	}

	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		handler = slog.NewTextHandler(cfg.Writer, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(cfg.Writer, opts)
	default:
		return nil, fmt.Errorf("%w: unknown log format %q", types.ErrInvalidParameter, cfg.Format)
	}

	return &Logger{
		logger: slog.New(handler),
		debug:  level <= slog.LevelDebug,
	}, nil
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// ParseLevel maps a level name to a slog.Level. The empty name is info.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", types.ErrInvalidParameter, level)
	}
}

// With returns a Logger that adds args to every record.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...), debug: l.debug}
}

// WithContext adds the correlation ID carried by ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id := correlation.GetCorrelationID(ctx); id != "" {
		return l.With("correlation_id", id)
	}
	return l
}

func (l *Logger) Info(msg string, args ...any) {
	l.logger.Info(msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) {
	if l.debug {
		l.logger.Debug(msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...any) {
	l.logger.Warn(msg, args...)
}

// Error logs err as the message of an error record.
func (l *Logger) Error(err error, args ...any) {
	l.logger.Error(err.Error(), args...)
}

// MaybeError logs err if it is not nil.
func (l *Logger) MaybeError(err error, args ...any) {
	if err != nil {
		l.Error(err, args...)
	}
}
