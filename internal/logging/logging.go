// Package logging configures the process-wide logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/log"
	"github.com/mattn/go-isatty"
)

// ParseLevel maps a level name to its slog level. Names are case
// insensitive.
func ParseLevel(lvl string) (slog.Level, error) {
	switch strings.ToUpper(lvl) {
	case "TRACE":
		return log.LevelTrace, nil
	case "DEBUG":
		return log.LevelDebug, nil
	case "", "INFO":
		return log.LevelInfo, nil
	case "WARN", "WARNING":
		return log.LevelWarn, nil
	case "ERROR":
		return log.LevelError, nil
	case "CRIT", "CRITICAL":
		return log.LevelCrit, nil
	default:
		return 0, fmt.Errorf("invalid log level: %q", lvl)
	}
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// New builds a terminal logger writing to w, coloured when w is a terminal.
func New(w io.Writer, level string) (log.Logger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	return log.NewLogger(log.NewTerminalHandlerWithLevel(w, lvl, IsTerminal(w))), nil
}

// Setup installs a logger for w at level as the root logger.
func Setup(w io.Writer, level string) error {
	l, err := New(w, level)
	if err != nil {
		return err
	}
	log.SetDefault(l)
	return nil
}
