package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level, output format and an optional log file.
type Options struct {
	Level  string
	Format string // "console" or "json"
	File   string
}

// New builds the service logger. Output goes to stdout, and to File as well
// when one is given. The returned closer releases the file, if any.
func New(opts Options) (zerolog.Logger, io.Closer, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(opts.Level))
	if err != nil || opts.Level == "" {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if !strings.EqualFold(opts.Format, "json") {
		out = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		absPath, err := filepath.Abs(opts.File)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to resolve log file path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(absPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return zerolog.Nop(), nil, fmt.Errorf("failed to open log file: %w", err)
		}
		// the file always gets JSON lines
		out = io.MultiWriter(out, file)
		closer = file
	}

	log := zerolog.New(out).Level(level).With().
		Timestamp().
		Str("service", "scheduling-service").
		Logger()

	return log, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
