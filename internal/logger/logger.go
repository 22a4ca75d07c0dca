package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var log *logrus.Logger

func init() {
	log = logrus.New()
	log.SetOutput(os.Stdout)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	log.SetLevel(levelFromEnv())
}

// levelFromEnv reads LOG_LEVEL, defaulting to info
func levelFromEnv() logrus.Level {
	name := strings.ToLower(os.Getenv("LOG_LEVEL"))
	if name == "" {
		return logrus.InfoLevel
	}
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// SetLevel overrides the log level at runtime ("debug", "info", "warn", "error")
func SetLevel(name string) {
	if level, err := logrus.ParseLevel(strings.ToLower(name)); err == nil {
		log.SetLevel(level)
	}
}

// UseJSONFormat switches the logger to structured JSON output
func UseJSONFormat() {
	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
	})
}

// GetLogger returns the underlying logrus instance for callers that need
// field-scoped entries
func GetLogger() *logrus.Logger {
	return log
}

func Debug(args ...interface{}) {
	log.Debug(args...)
}

func Info(args ...interface{}) {
	log.Info(args...)
}

func Warn(args ...interface{}) {
	log.Warn(args...)
}

func Error(args ...interface{}) {
	log.Error(args...)
}
