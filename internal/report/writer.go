package report

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nao1215/upcrawler/internal/crawl"
)

// Format names an output format.
type Format string

const (
	// FormatText is the plain text format.
	FormatText Format = "text"
	// FormatJSON is the JSON format.
	FormatJSON Format = "json"
	// FormatMarkdown is the Markdown format.
	FormatMarkdown Format = "md"
)

// ErrUnknownFormat is returned for an unsupported format name.
var ErrUnknownFormat = errors.New("unknown report format")

// FileBase is the report file name without extension.
const FileBase = "crawl_report"

// ParseFormat parses a format name. "markdown" is accepted for FormatMarkdown.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "text", "txt":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FileName returns the report file name for f, e.g. crawl_report.md.
func (f Format) FileName() string {
	return FileBase + "." + string(f)
}

// Writer writes a crawl summary.
type Writer interface {
	// Write outputs the summary and returns the number of bytes written.
	Write(summary *crawl.Summary) (int, error)
}

// New returns the writer for format f.
func New(f Format, output io.Writer) (Writer, error) {
	switch f {
	case FormatText:
		return NewSimpleWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

// WriteFile writes the summary into dir in format f and returns the path.
func WriteFile(dir string, f Format, summary *crawl.Summary) (string, error) {
	path := filepath.Join(dir, f.FileName())
	file, err := os.Create(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}

	w, err := New(f, file)
	if err != nil {
		_ = file.Close()
		return "", err
	}
	if _, err := w.Write(summary); err != nil {
		_ = file.Close()
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return path, nil
}

// MultiWriter writes to multiple Writers.
// Useful for the terminal and a file at once.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the summary to every writer and stops at the first error.
func (m *MultiWriter) Write(summary *crawl.Summary) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(summary)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
