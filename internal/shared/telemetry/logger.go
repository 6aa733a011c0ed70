package telemetry

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var log = newLogger(os.Stdout)

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "ts",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "msg",
		},
	})
	return l
}

// SetLevel sets the minimum level; unknown values keep info.
func SetLevel(level string) {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
}

// SetOutput redirects log lines, mainly for tests.
func SetOutput(w io.Writer) {
	log.SetOutput(w)
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	log.WithFields(logrus.Fields(fields)).Debug(msg)
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	log.WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn writes a warn-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	log.WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	log.WithFields(logrus.Fields(fields)).Error(msg)
}
