// ABOUTME: Debug logger for the TUI writing structured records to a file
// ABOUTME: Keeps log output off the terminal while the dashboard is drawn

package debuglog

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/markalston/virt-dashboard/backend/logger"
)

// FileName is the log file created in the config directory
const FileName = "debug.log"

var (
	mu      sync.Mutex
	logFile *os.File
	log     = discard()
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Init opens configDir/debug.log for appending. An empty configDir
// disables logging.
func Init(configDir string) error {
	mu.Lock()
	defer mu.Unlock()

	closeLocked()
	if configDir == "" {
		return nil
	}

	if err := os.MkdirAll(configDir, 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(configDir, FileName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	logFile = f
	log = logger.New(f, "debug", "text").With("component", "tui")
	return nil
}

// Close closes the log file and disables logging
func Close() {
	mu.Lock()
	defer mu.Unlock()
	closeLocked()
}

func closeLocked() {
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	log = discard()
}

// Logger returns the current debug logger
func Logger() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return log
}

// Log writes a debug record
func Log(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Warn writes a warning record
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs err with its context. Nil errors are ignored.
func Error(context string, err error) {
	if err == nil {
		return
	}
	Logger().Error(context, "error", err)
}
