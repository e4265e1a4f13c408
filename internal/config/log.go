package config

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger.  LOG_LEVEL accepts any logrus level
// name (default info) and LOG_FORMAT selects json or text output.
func NewLogger() *logrus.Logger {
	return newLogger(os.Stdout, envStr("LOG_LEVEL", "info"), envStr("LOG_FORMAT", "json"))
}

func newLogger(out io.Writer, level, format string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	if format == "text" {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	}
	return l
}
