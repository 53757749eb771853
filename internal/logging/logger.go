// Package logging builds the zerolog logger used for diagnostics. Results
// meant for the operator (status tables, apply lines) are not logged; they
// are written to the command's stdout.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options configures New.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Empty means info.
	Level string
	// JSON switches from the console writer to one JSON object per line.
	JSON bool
	// Out defaults to os.Stderr.
	Out io.Writer
}

// New creates a logger. Unknown levels are an error rather than a silent
// fallback so a typo in DBMIGRATE_LOG_LEVEL is noticed.
func New(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel

	if s := strings.TrimSpace(opts.Level); s != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil || parsed == zerolog.NoLevel {
			return zerolog.Nop(), fmt.Errorf("unknown log level %q", opts.Level)
		}

		level = parsed
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	if !opts.JSON {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(out),
		}
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}

// WithContext stores the logger in ctx.
func WithContext(ctx context.Context, l zerolog.Logger) context.Context {
	return l.WithContext(ctx)
}

// FromContext returns the logger stored in ctx, or a disabled logger.
func FromContext(ctx context.Context) zerolog.Logger {
	if l := zerolog.Ctx(ctx); l != nil {
		return *l
	}

	return zerolog.Nop()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}

	info, err := f.Stat()
	if err != nil {
		return false
	}

	return info.Mode()&os.ModeCharDevice != 0
}
