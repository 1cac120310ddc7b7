// Package log provides a leveled logging facade over logrus, persisted to a dated file per day.
//
// Logging is inert until Setup runs with logs.write enabled; until then every call is discarded.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/anisan-cli/finplay/filesystem"
	"github.com/anisan-cli/finplay/key"
	"github.com/anisan-cli/finplay/where"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Fields is an alias so callers need not import logrus for structured entries.
type Fields = logrus.Fields

var (
	enabled bool
	logger  = newDiscard()
)

func newDiscard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Setup opens today's log file and configures formatter and level from the configuration.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		logger = newDiscard()
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))
	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}

	return SetOutput(f)
}

// SetOutput enables logging to w using the configured format and level.
func SetOutput(w io.Writer) error {
	l := logrus.New()
	l.SetOutput(w)

	if viper.GetBool(key.LogsJson) {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)

	logger = l
	enabled = true
	return nil
}

// WithFields returns an entry carrying the given structured fields.
func WithFields(fields Fields) *logrus.Entry {
	return logger.WithFields(fields)
}

func Error(args ...interface{}) {
	if enabled {
		logger.Error(args...)
	}
}
func Errorf(format string, args ...interface{}) {
	if enabled {
		logger.Errorf(format, args...)
	}
}
func Warn(args ...interface{}) {
	if enabled {
		logger.Warn(args...)
	}
}
func Warnf(format string, args ...interface{}) {
	if enabled {
		logger.Warnf(format, args...)
	}
}
func Info(args ...interface{}) {
	if enabled {
		logger.Info(args...)
	}
}
func Infof(format string, args ...interface{}) {
	if enabled {
		logger.Infof(format, args...)
	}
}
func Debug(args ...interface{}) {
	if enabled {
		logger.Debug(args...)
	}
}
func Debugf(format string, args ...interface{}) {
	if enabled {
		logger.Debugf(format, args...)
	}
}
