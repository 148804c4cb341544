package utils

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	DefaultLogDir  = "logs"
	logFileName    = "sftpcopy.log"
	logFileBackups = 10
)

type LogOptions struct {
	Level   string
	ToFile  bool
	Dir     string
	Console io.Writer
}

// ParseLevel accepts slog level names plus the aliases verbose, trace and
// fatal. Unknown values fall back to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "verbose", "debug", "trace":
		return slog.LevelDebug
	case "warning", "warn":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds a text logger on the console writer (stderr by default),
// optionally tee'd into a rotating file under opts.Dir. The returned closer
// flushes the file sink and is never nil.
func NewLogger(opts LogOptions) (*slog.Logger, io.Closer, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}

	var out io.Writer = console
	var closer io.Closer = nopCloser{}

	if opts.ToFile {
		dir := opts.Dir
		if dir == "" {
			dir = DefaultLogDir
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
		file := &lumberjack.Logger{
			Filename:   filepath.Join(dir, logFileName),
			MaxSize:    20,
			MaxBackups: logFileBackups,
			MaxAge:     30,
		}
		out = io.MultiWriter(console, file)
		closer = file
	}

	handler := slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	return slog.New(handler), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
