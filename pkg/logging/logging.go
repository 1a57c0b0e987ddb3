// pkg/logging/logging.go - leveled key-value logging for the setup core.
//
// Every external command the installer issues is logged here before and after
// execution so a failed run can be reconstructed from the log alone. Output
// goes to the console and to a rotated log file under the Kolibri data
// directory.

package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/learningequality/kolibri-setup/pkg/config"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	// Define log levels.
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

func parseLevel(s string) LogLevel {
	switch strings.ToUpper(s) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Logger writes one human-readable line per event to the configured sinks.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	fileSink *lumberjack.Logger
	level    LogLevel
}

// singleton instance and sync.Once for thread-safe initialization
var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton Logger based on the provided configuration.
// It must be called before any logging functions are used.
func Init(cfg *config.Configuration) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(cfg)
	})
	return initErr
}

func newLogger(cfg *config.Configuration) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	fileSink := &lumberjack.Logger{
		Filename:   cfg.LogPath,
		MaxSize:    5, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	}

	level := parseLevel(cfg.LogLevel)
	if cfg.Debug {
		level = LevelDebug
	}

	return &Logger{
		out:      io.MultiWriter(os.Stdout, fileSink),
		fileSink: fileSink,
		level:    level,
	}, nil
}

// CloseLogger flushes and closes the file sink.
func CloseLogger() {
	if instance != nil && instance.fileSink != nil {
		_ = instance.fileSink.Close()
	}
}

// log formats and writes a single line: timestamp, level, message, key=value pairs.
func (l *Logger) log(level LogLevel, message string, keysAndValues ...interface{}) {
	if l == nil || level > l.level {
		return
	}

	var b strings.Builder
	b.WriteString(time.Now().Format("2006-01-02 15:04:05"))
	b.WriteString(" [")
	b.WriteString(level.String())
	b.WriteString("] ")
	b.WriteString(message)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		b.WriteString(fmt.Sprintf(" %v=%v", keysAndValues[i], keysAndValues[i+1]))
	}
	if len(keysAndValues)%2 != 0 {
		b.WriteString(fmt.Sprintf(" %v", keysAndValues[len(keysAndValues)-1]))
	}
	b.WriteString("\n")

	l.mu.Lock()
	defer l.mu.Unlock()
	_, _ = io.WriteString(l.out, b.String())
}

// Debug logs a message at DEBUG level.
func Debug(message string, keysAndValues ...interface{}) {
	instance.log(LevelDebug, message, keysAndValues...)
}

// Info logs a message at INFO level.
func Info(message string, keysAndValues ...interface{}) {
	instance.log(LevelInfo, message, keysAndValues...)
}

// Warn logs a message at WARN level.
func Warn(message string, keysAndValues ...interface{}) {
	instance.log(LevelWarn, message, keysAndValues...)
}

// Error logs a message at ERROR level.
func Error(message string, keysAndValues ...interface{}) {
	instance.log(LevelError, message, keysAndValues...)
}

// Fatal logs a message at ERROR level and aborts the process.
func Fatal(message string, keysAndValues ...interface{}) {
	instance.log(LevelError, message, keysAndValues...)
	CloseLogger()
	os.Exit(1)
}
