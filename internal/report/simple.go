package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/upcrawler/internal/crawl"
)

// SimpleWriter outputs a plain text summary for the terminal.
type SimpleWriter struct {
	baseWriter

	// showEmpty prints outcomes with a zero count.
	showEmpty bool

	// verbose lists the tag ids added during the run.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show zero counts.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{baseWriter: newBaseWriter(output)}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the summary in human-readable format.
func (w *SimpleWriter) Write(summary *crawl.Summary) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, summary)
	w.writeOutcomes(&sb, summary)
	w.writeTags(&sb, summary)
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	return w.output.Write([]byte(sb.String()))
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, s *crawl.Summary) {
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 60))
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Run:        %s\n", s.RunID)
	if s.DateFrom != "" || s.DateTo != "" {
		fmt.Fprintf(sb, "Range:      %s .. %s\n", s.DateFrom, s.DateTo)
	}
	fmt.Fprintf(sb, "Output:     %s\n", s.OutputDir)
	fmt.Fprintf(sb, "Duration:   %s\n", s.Duration().Round(time.Second))
	fmt.Fprintf(sb, "Groups:     %d / %d\n", s.GroupsDone, s.Groups)

	if s.Error != "" {
		fmt.Fprintf(sb, "Status:     %s - %s\n", strings.ToUpper(s.State.String()), s.Error)
	} else {
		fmt.Fprintf(sb, "Status:     %s\n", strings.ToUpper(s.State.String()))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeOutcomes(sb *strings.Builder, s *crawl.Summary) {
	sb.WriteString("OUTCOMES\n")
	for _, o := range crawl.Outcomes() {
		n := s.Count(o)
		if n == 0 && !w.showEmpty {
			continue
		}
		fmt.Fprintf(sb, "  %-11s %d\n", string(o)+":", n)
	}

	for _, lang := range s.Languages() {
		parts := make([]string, 0, len(crawl.Outcomes()))
		for _, o := range crawl.Outcomes() {
			n := s.Counts[lang][o]
			if n == 0 && !w.showEmpty {
				continue
			}
			parts = append(parts, fmt.Sprintf("%s=%d", o, n))
		}
		fmt.Fprintf(sb, "  [%s] %s\n", lang, strings.Join(parts, " "))
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeTags(sb *strings.Builder, s *crawl.Summary) {
	fmt.Fprintf(sb, "Tags:       %d known, %d new\n", s.DictionarySize, len(s.AddedTags))
	if w.verbose {
		for _, id := range s.AddedTags {
			fmt.Fprintf(sb, "  [+] %s\n", id)
		}
	}
}
