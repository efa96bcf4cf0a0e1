package report

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrUnknownFormat is returned by NewWriter for an unsupported output
// format.
var ErrUnknownFormat = errors.New("report: unknown output format")

// Formats lists the names accepted by NewWriter.
var Formats = []string{"text", "markdown", "json"}

// Writer renders a report.
type Writer interface {
	Write(r *Report) error
}

// NewWriter returns the writer for the named format, writing to w.
func NewWriter(format string, w io.Writer) (Writer, error) {
	switch strings.ToLower(format) {
	case "text", "":
		return NewTextWriter(w), nil
	case "markdown", "md":
		return NewMarkdownWriter(w), nil
	case "json":
		return NewJSONWriter(w, WithPrettyPrint()), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownFormat, format, strings.Join(Formats, ", "))
	}
}

// baseWriter holds the output destination shared by the writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
