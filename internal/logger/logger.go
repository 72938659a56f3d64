// Package logger configures the process-wide structured logger.
//
// Console output goes to stderr: pretty-printed when attached to a
// terminal, JSON otherwise. A rotating file sink keeps a history under
// the covrun home directory so failed runs can be reconstructed.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options control logger construction.
type Options struct {
	// Level is the minimum level to emit: debug, info, warn or error.
	// Unknown values fall back to info.
	Level string

	// NoColor disables ANSI colors even on a terminal.
	NoColor bool

	// File is the log file path. Empty picks the default under
	// $COVRUN_HOME or ~/.covrun; "-" disables the file sink.
	File string
}

// Init builds the root logger all components hang off.
func Init(opts Options) zerolog.Logger {
	level := ParseLevel(opts.Level)

	var console io.Writer = os.Stderr
	if term.IsTerminal(int(os.Stderr.Fd())) {
		console = zerolog.ConsoleWriter{Out: os.Stderr, NoColor: opts.NoColor}
	}

	sinks := []io.Writer{console}

	file := opts.File
	if file == "" {
		file = defaultLogFile()
	}
	if file != "" && file != "-" {
		sinks = append(sinks, &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	return zerolog.New(zerolog.MultiLevelWriter(sinks...)).
		Level(level).
		With().Timestamp().
		Logger()
}

// ParseLevel converts a string to a zerolog level, defaulting to info.
// "warning" is accepted as an alias for warn.
func ParseLevel(levelStr string) zerolog.Level {
	s := strings.ToLower(strings.TrimSpace(levelStr))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// defaultLogFile resolves the log path under $COVRUN_HOME when set,
// falling back to ~/.covrun. An empty return disables the file sink.
func defaultLogFile() string {
	if home := os.Getenv("COVRUN_HOME"); home != "" {
		return filepath.Join(home, "logs", "covrun.log")
	}
	userHome, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(userHome, ".covrun", "logs", "covrun.log")
}
