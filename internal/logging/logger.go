// Package logging writes the human-readable process log.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
)

var (
	// Logger is the global logger. Nil until Init or SetOutput.
	Logger *log.Logger

	logFile *os.File
)

// Init opens dir/gallery-YYYY-MM-DD.log in append mode and points Logger at
// it. level is one of debug, info, warn, error; an empty or unknown level
// means info.
func Init(dir, level string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create log directory: %w", err)
	}

	name := fmt.Sprintf("gallery-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logFile = f
	SetOutput(f, level)
	Logger.Info("gallery started")
	return nil
}

// SetOutput replaces Logger with one writing to w. Used by Init and tests.
func SetOutput(w io.Writer, level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	Logger = log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           lvl,
	})
}

// Close closes the log file.
func Close() {
	if Logger != nil {
		Logger.Info("gallery shutting down")
	}
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
}

// Info, Debug, Warn and Error write to Logger, or do nothing before Init.
func Info(msg string, keyvals ...interface{}) { write(log.InfoLevel, msg, keyvals) }
func Debug(msg string, keyvals ...interface{}) { write(log.DebugLevel, msg, keyvals) }
func Warn(msg string, keyvals ...interface{}) { write(log.WarnLevel, msg, keyvals) }
func Error(msg string, keyvals ...interface{}) { write(log.ErrorLevel, msg, keyvals) }

func write(lvl log.Level, msg string, keyvals []interface{}) {
	if Logger != nil {
		Logger.Log(lvl, msg, keyvals...)
	}
}
