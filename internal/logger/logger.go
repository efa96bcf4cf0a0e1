// Package logger builds the structured logger used by the command line
// program.
package logger

import (
	"io"
	"log/slog"
	"time"
)

// New returns a text logger writing to w.  Only warnings and errors are
// logged unless verbose is set, in which case the fitting progress is
// logged at debug level as well.
func New(w io.Writer, verbose bool) *slog.Logger {

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey && a.Value.Kind() == slog.KindTime {
				t := a.Value.Time().UTC()
				a.Value = slog.StringValue(t.Format(time.RFC3339))
			}
			return a
		},
	})

	return slog.New(h)
}

// Discard returns a logger that drops all records.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 4}))
}
