package report

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/upcrawler/internal/crawl"
)

// maxListedTags bounds the new-tag list in the document.
const maxListedTags = 50

// MarkdownWriter outputs summaries as a Markdown document.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the summary in Markdown format.
func (w *MarkdownWriter) Write(summary *crawl.Summary) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, summary)
	w.writeOutcomes(md, summary)
	w.writeLanguages(md, summary)
	w.writeTags(md, summary)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the run information table and a status alert.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, s *crawl.Summary) {
	md.H1("Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + s.RunID + "`"},
			{"Range", dash(s.DateFrom) + " .. " + dash(s.DateTo)},
			{"Output", "`" + s.OutputDir + "`"},
			{"Started", s.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", s.Duration().Round(time.Second).String()},
			{"Candidates", strconv.Itoa(s.Candidates)},
			{"Groups", strconv.Itoa(s.GroupsDone) + " / " + strconv.Itoa(s.Groups)},
			{"State", s.State.String()},
		},
	})
	md.PlainText("")

	switch {
	case s.Count(crawl.OutcomeForbidden) > 0:
		md.Cautionf("The site answered 403 and the crawl stopped: %s", s.Error)
	case s.Error != "":
		md.Warningf("The crawl failed: %s", s.Error)
	case s.Count(crawl.OutcomeMalformed) > 0:
		md.Importantf("%d page(s) lacked the expected markup and were skipped.", s.Count(crawl.OutcomeMalformed))
	default:
		md.Tip("Every group was processed.")
	}
	md.PlainText("")
}

// writeOutcomes writes the outcome totals and a pie chart.
func (w *MarkdownWriter) writeOutcomes(md *markdown.Markdown, s *crawl.Summary) {
	md.H2("Outcomes")
	md.PlainText("")

	rows := make([][]string, 0, len(crawl.Outcomes()))
	total := 0
	for _, o := range crawl.Outcomes() {
		n := s.Count(o)
		total += n
		rows = append(rows, []string{string(o), strconv.Itoa(n)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(total) + "**"})

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Translations"},
		Rows:   rows,
	})
	md.PlainText("")

	if total > 0 {
		w.writePieChart(md, s)
	}
}

// writePieChart writes a mermaid pie chart of the outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s *crawl.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Translation Outcomes"),
		piechart.WithShowData(true),
	)
	for _, o := range crawl.Outcomes() {
		if n := s.Count(o); n > 0 {
			chart.LabelAndIntValue(string(o), uint64(n))
		}
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeLanguages writes one row per language edition.
func (w *MarkdownWriter) writeLanguages(md *markdown.Markdown, s *crawl.Summary) {
	md.H2("Languages")
	md.PlainText("")

	langs := s.Languages()
	if len(langs) == 0 {
		md.PlainText("No translations were processed.")
		md.PlainText("")
		return
	}

	header := []string{"Language"}
	for _, o := range crawl.Outcomes() {
		header = append(header, string(o))
	}
	rows := make([][]string, 0, len(langs))
	for _, lang := range langs {
		row := []string{lang.String()}
		for _, o := range crawl.Outcomes() {
			row = append(row, strconv.Itoa(s.Counts[lang][o]))
		}
		rows = append(rows, row)
	}

	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// writeTags writes the dictionary size and the ids added in this run.
func (w *MarkdownWriter) writeTags(md *markdown.Markdown, s *crawl.Summary) {
	md.H2("Tags")
	md.PlainText("")

	source := "loaded from file"
	if s.Bootstrapped {
		source = "bootstrapped from the tag index pages"
	}
	md.PlainTextf("Dictionary: %d tags, %s.", s.DictionarySize, source)
	md.PlainText("")

	if len(s.AddedTags) == 0 {
		md.PlainText("No new tags.")
		md.PlainText("")
		return
	}

	listed := s.AddedTags
	if len(listed) > maxListedTags {
		listed = listed[:maxListedTags]
	}
	items := make([]string, len(listed))
	for i, id := range listed {
		items[i] = "`" + id + "`"
	}
	md.PlainTextf("New tags (%d):", len(s.AddedTags))
	md.PlainText("")
	md.BulletList(items...)
	if rest := len(s.AddedTags) - len(listed); rest > 0 {
		md.PlainTextf("... and %d more.", rest)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [upcrawler](https://github.com/nao1215/upcrawler)*")
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
