package report

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/upcrawler/internal/crawl"
)

// JSONWriter encodes a summary with derived totals, one document per call.
type JSONWriter struct {
	baseWriter
	prefix, indent string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent sets the line prefix and the per-level indentation.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.prefix, w.indent = prefix, indent
	}
}

// WithPrettyPrint indents with two spaces.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter writing compact JSON to output.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// jsonReport adds derived totals to the summary.
type jsonReport struct {
	*crawl.Summary
	DurationSeconds float64        `json:"duration_seconds"`
	Totals          map[string]int `json:"totals"`
}

// Write encodes the summary followed by a newline.
func (w *JSONWriter) Write(summary *crawl.Summary) (int, error) {
	doc := jsonReport{
		Summary:         summary,
		DurationSeconds: summary.Duration().Seconds(),
		Totals:          make(map[string]int, len(crawl.Outcomes())),
	}
	for _, o := range crawl.Outcomes() {
		doc.Totals[string(o)] = summary.Count(o)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent(w.prefix, w.indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return 0, err
	}
	return w.output.Write(buf.Bytes())
}
