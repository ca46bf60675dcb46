package log

import (
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

type Level string

const (
	LevelDebug Level = "DEBUG"
	LevelInfo  Level = "INFO"
	LevelError Level = "ERROR"
)

var (
	logger     *logrus.Logger
	loggerOnce sync.Once
)

// initLogger initializes the global logger to write to stderr with timestamps.
func initLogger() {
	loggerOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(textFormatter())
		logger.SetLevel(logrus.InfoLevel)
	})
}

// Logger exposes the underlying logrus logger, mainly for hooks in tests.
func Logger() *logrus.Logger {
	initLogger()
	return logger
}

func SetLevel(l Level) {
	initLogger()
	logger.SetLevel(toLogrus(l))
}

// ParseLevel maps a case-insensitive name ("debug", "info", "error") to a
// Level. Unknown names fall back to LevelInfo.
func ParseLevel(name string) Level {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case string(LevelDebug):
		return LevelDebug
	case string(LevelError):
		return LevelError
	default:
		return LevelInfo
	}
}

// SetFormat switches between "text" (default) and "json" output.
func SetFormat(format string) {
	initLogger()
	if strings.EqualFold(format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
		return
	}
	logger.SetFormatter(textFormatter())
}

func textFormatter() logrus.Formatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05.000000Z07:00",
	}
}

func Debug(msg string, kv ...any) {
	entry(kv...).Debug(msg)
}

func Info(msg string, kv ...any) {
	entry(kv...).Info(msg)
}

func Error(msg string, err error, kv ...any) {
	e := entry(kv...)
	if err != nil {
		e = e.WithError(err)
	}
	e.Error(msg)
}

func entry(kv ...any) *logrus.Entry {
	initLogger()
	return logger.WithFields(fields(kv...))
}

func toLogrus(l Level) logrus.Level {
	switch l {
	case LevelDebug:
		return logrus.DebugLevel
	case LevelError:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

func fields(kv ...any) logrus.Fields {
	out := make(logrus.Fields, len(kv)/2)
	// Expect kv as pairs: key, value, key, value, ...
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		out[key] = kv[i+1]
	}
	// If odd number of args, last one is ignored.
	return out
}
