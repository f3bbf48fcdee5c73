// Package report renders crawl summaries.
//
// Writers implement the Writer interface:
//   - SimpleWriter: plain text for the terminal
//   - JSONWriter: structured JSON for other tools
//   - MarkdownWriter: a Markdown document with a mermaid chart of outcomes
//
// WriteFile stores a summary as crawl_report.md or crawl_report.json in the
// output directory of the run.
package report
