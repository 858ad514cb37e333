package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	DebugLevel LogLevel = iota
	InfoLevel
	WarnLevel
	ErrorLevel
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) zerolog() zerolog.Level {
	switch l {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// ParseLogLevel parses a string into a LogLevel
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return DebugLevel, nil
	case "info":
		return InfoLevel, nil
	case "warn":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("invalid log level: %s", level)
	}
}

// StructuredLogger implements Logger on top of zerolog
type StructuredLogger struct {
	level  LogLevel
	zl     zerolog.Logger
	writer io.Writer
}

// NewStructuredLogger creates a logger writing JSON lines to writer
func NewStructuredLogger(level LogLevel, writer io.Writer) *StructuredLogger {
	return &StructuredLogger{
		level:  level,
		zl:     zerolog.New(writer).Level(level.zerolog()).With().Timestamp().Logger(),
		writer: writer,
	}
}

// NewConsoleLogger creates a human readable logger on stdout
func NewConsoleLogger(level LogLevel) *StructuredLogger {
	return NewStructuredLogger(level, zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
}

// NewFileLogger creates a logger that appends to a file
func NewFileLogger(level LogLevel, filename string) (*StructuredLogger, error) {
	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", filename, err)
	}

	return NewStructuredLogger(level, file), nil
}

// NewMultiLogger creates a logger that writes to multiple outputs
func NewMultiLogger(level LogLevel, writers ...io.Writer) *StructuredLogger {
	return NewStructuredLogger(level, zerolog.MultiLevelWriter(writers...))
}

// NewNopLogger returns a logger that discards everything
func NewNopLogger() *StructuredLogger {
	return &StructuredLogger{level: ErrorLevel, zl: zerolog.Nop(), writer: io.Discard}
}

// Debug logs a debug message with optional fields
func (l *StructuredLogger) Debug(msg string, fields ...Field) {
	l.log(l.zl.Debug(), msg, fields)
}

// Info logs an info message with optional fields
func (l *StructuredLogger) Info(msg string, fields ...Field) {
	l.log(l.zl.Info(), msg, fields)
}

// Warn logs a warning message with optional fields
func (l *StructuredLogger) Warn(msg string, fields ...Field) {
	l.log(l.zl.Warn(), msg, fields)
}

// Error logs an error message with optional fields
func (l *StructuredLogger) Error(msg string, fields ...Field) {
	l.log(l.zl.Error(), msg, fields)
}

func (l *StructuredLogger) log(ev *zerolog.Event, msg string, fields []Field) {
	// nil when the level is disabled
	if ev == nil {
		return
	}
	for _, f := range fields {
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// With returns a child logger carrying fields on every entry
func (l *StructuredLogger) With(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &StructuredLogger{level: l.level, zl: ctx.Logger(), writer: l.writer}
}

// SetLevel changes the logging level
func (l *StructuredLogger) SetLevel(level LogLevel) {
	l.level = level
	l.zl = l.zl.Level(level.zerolog())
}

// GetLevel returns the current logging level
func (l *StructuredLogger) GetLevel() LogLevel {
	return l.level
}

// Close closes the logger if it's writing to a file
func (l *StructuredLogger) Close() error {
	if l.writer == io.Writer(os.Stdout) || l.writer == io.Writer(os.Stderr) {
		return nil
	}
	if closer, ok := l.writer.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

// Helper functions for creating common fields

// StringField creates a string field
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates an integer field
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// BoolField creates a boolean field
func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// ErrorField creates an error field
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// ConferenceField identifies a conference by its focus address
func ConferenceField(address string) Field {
	return Field{Key: "conference", Value: address}
}

// ParticipantField identifies a participant
func ParticipantField(address string) Field {
	return Field{Key: "participant", Value: address}
}

// DeviceField identifies a participant device
func DeviceField(address string) Field {
	return Field{Key: "device", Value: address}
}

// VersionField carries a notify version
func VersionField(version uint) Field {
	return Field{Key: "version", Value: version}
}

// AccountField identifies a proxy account by idkey
func AccountField(idkey string) Field {
	return Field{Key: "account", Value: idkey}
}

// StateField carries a state machine state
func StateField(state fmt.Stringer) Field {
	return Field{Key: "state", Value: state.String()}
}

// AddressField creates an address field
func AddressField(key, address string) Field {
	return Field{Key: key, Value: address}
}

// LoggerConfig represents logger configuration
type LoggerConfig struct {
	Level  string
	File   string
	Format string
}

// NewLoggerFromConfig creates a logger based on configuration
func NewLoggerFromConfig(config LoggerConfig) (*StructuredLogger, error) {
	level, err := ParseLogLevel(config.Level)
	if err != nil {
		return nil, err
	}

	var console io.Writer = os.Stdout
	if strings.EqualFold(config.Format, "console") {
		console = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	if config.File == "" || config.File == "stdout" {
		return NewStructuredLogger(level, console), nil
	}

	file, err := os.OpenFile(config.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.File, err)
	}

	// Mirror to the console when warnings are enabled
	if level <= WarnLevel {
		l := NewMultiLogger(level, file, console)
		l.writer = file
		return l, nil
	}

	return NewStructuredLogger(level, file), nil
}
