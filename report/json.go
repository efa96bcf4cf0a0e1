package report

import (
	"encoding/json"
	"io"
)

// JSONWriter outputs reports in JSON format.
type JSONWriter struct {
	baseWriter

	indent       bool
	indentPrefix string
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables indented JSON output.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = ""
		w.indentString = "  "
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the report as a single JSON document.
func (w *JSONWriter) Write(r *Report) error {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(r, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(r)
	}
	if err != nil {
		return err
	}

	data = append(data, '\n')
	_, err = w.output.Write(data)
	return err
}
