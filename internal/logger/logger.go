// Package logger provides leveled structured logging for the whole
// application, backed by logrus with optional file rotation.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Options controls the default logger's behavior. An empty File logs to
// stderr only; otherwise output is duplicated to a size-rotated file.
type Options struct {
	Level      string // debug, info, warn, error
	Format     string // json or text
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

var defaultLogger = logrus.New()

// Init initializes the default logger. Safe to call once at startup before
// any other package logs.
func Init(opts Options) {
	level, err := logrus.ParseLevel(strings.ToLower(opts.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	defaultLogger.SetLevel(level)

	if strings.ToLower(opts.Format) == "text" {
		defaultLogger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		defaultLogger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	}

	var out io.Writer = os.Stderr
	if opts.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
			Compress:   true,
		}
		out = io.MultiWriter(os.Stderr, rotated)
	}
	defaultLogger.SetOutput(out)
}

func Debug(format string, args ...interface{}) {
	defaultLogger.Debugf(format, args...)
}

func Info(format string, args ...interface{}) {
	defaultLogger.Infof(format, args...)
}

func Warn(format string, args ...interface{}) {
	defaultLogger.Warnf(format, args...)
}

func Error(format string, args ...interface{}) {
	defaultLogger.Errorf(format, args...)
}

// Fatal logs the message and exits the process.
func Fatal(format string, args ...interface{}) {
	defaultLogger.Fatalf(format, args...)
}

// WithFields returns an entry carrying structured fields.
func WithFields(fields map[string]interface{}) *logrus.Entry {
	return defaultLogger.WithFields(logrus.Fields(fields))
}
