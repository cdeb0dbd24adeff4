// Package logging provides the structured logger used by the access control
// engine, backed by zerolog.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level represents the logging level.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the string representation of the log level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLevel parses a string into a Level. Unknown values yield LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Format represents the log output format.
type Format int

const (
	// FormatText writes human-readable console lines.
	FormatText Format = iota
	// FormatJSON writes one JSON object per line.
	FormatJSON
)

// ParseFormat parses a string into a Format.
func ParseFormat(s string) Format {
	if strings.EqualFold(strings.TrimSpace(s), "json") {
		return FormatJSON
	}
	return FormatText
}

// Logger is the interface for structured logging. keysAndValues alternate
// string keys and arbitrary values; a trailing key without value is dropped.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	// WithRequestID returns a logger that stamps every entry with request_id.
	WithRequestID(requestID string) Logger
	// WithFields returns a logger carrying the given fields.
	WithFields(keysAndValues ...interface{}) Logger
	// Close releases the output file opened by New. Loggers derived with
	// WithRequestID or WithFields share it.
	Close() error
}

// Config holds the logger configuration.
type Config struct {
	Level  string
	Format string
	Output string // "stdout", "stderr" or a file path
}

type logger struct {
	zl   zerolog.Logger
	file *os.File
}

// New creates a Logger from cfg. An output file that cannot be opened falls
// back to stdout.
func New(cfg Config) Logger {
	switch cfg.Output {
	case "", "stdout":
		return NewWithWriter(cfg, os.Stdout)
	case "stderr":
		return NewWithWriter(cfg, os.Stderr)
	}
	f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return NewWithWriter(cfg, os.Stdout)
	}
	l := newLogger(cfg, f)
	l.file = f
	return l
}

// NewWithWriter creates a Logger writing to w. Close does not close w.
func NewWithWriter(cfg Config, w io.Writer) Logger {
	return newLogger(cfg, w)
}

func newLogger(cfg Config, w io.Writer) *logger {
	if ParseFormat(cfg.Format) == FormatText {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.RFC3339}
	}
	zl := zerolog.New(w).
		Level(ParseLevel(cfg.Level).zerolog()).
		With().Timestamp().Logger()
	return &logger{zl: zl}
}

// NewDefault creates a Logger at info level writing text to stdout.
func NewDefault() Logger {
	return New(Config{Level: "info", Format: "text"})
}

// NewNop creates a no-op logger that discards all output.
func NewNop() Logger {
	return nopLogger{}
}

func (l *logger) Debug(msg string, keysAndValues ...interface{}) {
	l.write(l.zl.Debug(), msg, keysAndValues)
}

func (l *logger) Info(msg string, keysAndValues ...interface{}) {
	l.write(l.zl.Info(), msg, keysAndValues)
}

func (l *logger) Warn(msg string, keysAndValues ...interface{}) {
	l.write(l.zl.Warn(), msg, keysAndValues)
}

func (l *logger) Error(msg string, keysAndValues ...interface{}) {
	l.write(l.zl.Error(), msg, keysAndValues)
}

func (l *logger) write(ev *zerolog.Event, msg string, keysAndValues []interface{}) {
	if ev == nil {
		return
	}
	ev.Fields(pairs(keysAndValues)).Msg(msg)
}

func (l *logger) WithRequestID(requestID string) Logger {
	return &logger{zl: l.zl.With().Str("request_id", requestID).Logger(), file: l.file}
}

func (l *logger) WithFields(keysAndValues ...interface{}) Logger {
	return &logger{zl: l.zl.With().Fields(pairs(keysAndValues)).Logger(), file: l.file}
}

func (l *logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// pairs keeps only well-formed key/value pairs. Errors are rendered with
// their message.
func pairs(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok {
			continue
		}
		if err, isErr := keysAndValues[i+1].(error); isErr && err != nil {
			out[key] = err.Error()
			continue
		}
		out[key] = keysAndValues[i+1]
	}
	return out
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{}) {}
func (nopLogger) Warn(string, ...interface{}) {}
func (nopLogger) Error(string, ...interface{}) {}
func (n nopLogger) WithRequestID(string) Logger { return n }
func (n nopLogger) WithFields(...interface{}) Logger { return n }
func (nopLogger) Close() error { return nil }
