package logger

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"

	charmlog "github.com/charmbracelet/log"
)

type LogLevel string

const (
	DebugLevel    LogLevel = "debug"
	InfoLevel     LogLevel = "info"
	WarnLevel     LogLevel = "warn"
	ErrorLevel    LogLevel = "error"
	DisabledLevel LogLevel = "disabled"
)

// FileName - имя файла журнала внутри Config.Dir.
const FileName = "app.log"

type ctxKey struct{}

// Logger - структурированный логгер с парами ключ/значение.
type Logger interface {
	Debug(msg string, keyvals ...any)
	Info(msg string, keyvals ...any)
	Warn(msg string, keyvals ...any)
	Error(msg string, keyvals ...any)
	With(keyvals ...any) Logger
}

type loggerImpl struct {
	charmLogger *charmlog.Logger
}

func (l *loggerImpl) Debug(msg string, keyvals ...any) { l.charmLogger.Debug(msg, keyvals...) }
func (l *loggerImpl) Info(msg string, keyvals ...any)  { l.charmLogger.Info(msg, keyvals...) }
func (l *loggerImpl) Warn(msg string, keyvals ...any)  { l.charmLogger.Warn(msg, keyvals...) }
func (l *loggerImpl) Error(msg string, keyvals ...any) { l.charmLogger.Error(msg, keyvals...) }

func (l *loggerImpl) With(keyvals ...any) Logger {
	return &loggerImpl{charmLogger: l.charmLogger.With(keyvals...)}
}

func (lvl LogLevel) ToCharmlogLevel() charmlog.Level {
	switch lvl {
	case DebugLevel:
		return charmlog.DebugLevel
	case InfoLevel:
		return charmlog.InfoLevel
	case WarnLevel:
		return charmlog.WarnLevel
	case ErrorLevel:
		return charmlog.ErrorLevel
	case DisabledLevel:
		return charmlog.Level(math.MaxInt32)
	default:
		return charmlog.InfoLevel
	}
}

type Config struct {
	Level      LogLevel
	Output     io.Writer
	JSON       bool
	TimeFormat string
	// Dir - каталог для app.log; пустое значение - только Output.
	Dir string
}

func DefaultConfig() *Config {
	return &Config{
		Level:      InfoLevel,
		Output:     os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

func TestConfig() *Config {
	return &Config{
		Level:      DisabledLevel,
		Output:     io.Discard,
		TimeFormat: "2006-01-02 15:04:05",
	}
}

var defaultLogger Logger = NewLogger(DefaultConfig())

func NewLogger(cfg *Config) Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}
	charmLogger := charmlog.NewWithOptions(out, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      cfg.TimeFormat,
		Level:           cfg.Level.ToCharmlogLevel(),
	})
	if cfg.JSON {
		charmLogger.SetFormatter(charmlog.JSONFormatter)
	} else {
		charmLogger.SetFormatter(charmlog.TextFormatter)
	}
	return &loggerImpl{charmLogger: charmLogger}
}

// closerFunc превращает функцию в io.Closer.
type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// Setup создает логгер и делает его логгером по умолчанию. Если задан
// cfg.Dir, записи дублируются в <Dir>/app.log. Close закрывает файл и
// возвращает прежний логгер по умолчанию, чтобы поздние записи не терялись.
func Setup(cfg *Config) (Logger, io.Closer, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	prev := defaultLogger
	var file *os.File
	if cfg.Dir != "" {
		if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log dir: %w", err)
		}
		f, err := os.OpenFile(filepath.Join(cfg.Dir, FileName), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		withFile := *cfg
		out := cfg.Output
		if out == nil {
			out = os.Stdout
		}
		withFile.Output = io.MultiWriter(out, f)
		cfg = &withFile
		file = f
	}
	l := NewLogger(cfg)
	defaultLogger = l
	closer := closerFunc(func() error {
		if defaultLogger == l {
			defaultLogger = prev
		}
		if file == nil {
			return nil
		}
		return file.Close()
	})
	return l, closer, nil
}

func ContextWithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext возвращает логгер из контекста или логгер по умолчанию.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(ctxKey{}).(Logger); ok && l != nil {
			return l
		}
	}
	return defaultLogger
}

func Default() Logger {
	return defaultLogger
}
