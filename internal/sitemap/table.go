package sitemap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/nao1215/upcrawler/internal/model"
)

// DefaultTableFile is the candidate table name used inside an output directory.
const DefaultTableFile = "uris.csv"

// tableHeader lists the candidate table columns in order.
var tableHeader = []string{"uri", "date", "domain", "lang", "kind", "art_id", "id"}

// tableDateLayouts are accepted in the date column.
var tableDateLayouts = []string{time.DateOnly, time.DateTime, time.RFC3339}

// TableFileName returns a descriptive file name for rows, e.g.
// uris_list_2022-12-02-2022-12-24_120.csv.
func TableFileName(rows []model.CandidateURI) string {
	if len(rows) == 0 {
		return DefaultTableFile
	}
	first, last := rows[0].Date, rows[0].Date
	for _, row := range rows[1:] {
		if row.Date.Before(first) {
			first = row.Date
		}
		if row.Date.After(last) {
			last = row.Date
		}
	}
	return fmt.Sprintf("uris_list_%s-%s_%d.csv",
		first.Format(time.DateOnly), last.Format(time.DateOnly), len(rows))
}

// WriteTable writes rows as CSV with a header line.
func WriteTable(w io.Writer, rows []model.CandidateURI) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(tableHeader); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{
			row.URI,
			row.Date.Format(time.DateOnly),
			row.Domain,
			row.Language.String(),
			row.Kind,
			row.ArticlePath,
			row.GroupID,
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SaveTable writes rows to path. If path is an existing directory the
// table is written inside it as DefaultTableFile. The file is replaced
// atomically.
func SaveTable(path string, rows []model.CandidateURI) (string, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultTableFile)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".uris-*.csv")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteTable(tmp, rows); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write candidate table: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save candidate table: %w", err)
	}
	return path, nil
}

// ReadTable parses a candidate table. Columns are matched by header name,
// so extra columns (such as a leading index) are ignored. Dates are read
// in loc.
func ReadTable(r io.Reader, loc *time.Location) ([]model.CandidateURI, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("candidate table is empty")
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[name] = i
	}
	for _, name := range tableHeader {
		if _, ok := index[name]; !ok {
			return nil, fmt.Errorf("candidate table lacks column %q", name)
		}
	}

	rows := make([]model.CandidateURI, 0)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		field := func(name string) string {
			if i := index[name]; i < len(record) {
				return record[i]
			}
			return ""
		}

		date, err := parseTableDate(field("date"), loc)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		lang, err := model.ParseLanguage(field("lang"))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		rows = append(rows, model.CandidateURI{
			URI:         field("uri"),
			Date:        date,
			Domain:      field("domain"),
			Language:    lang,
			Kind:        field("kind"),
			ArticlePath: field("art_id"),
			GroupID:     field("id"),
		})
	}
	return rows, nil
}

// LoadTable reads a candidate table from path.
func LoadTable(path string, loc *time.Location) ([]model.CandidateURI, error) {
	f, err := os.Open(path) //nolint:gosec // user-provided input path
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := ReadTable(f, loc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

func parseTableDate(s string, loc *time.Location) (time.Time, error) {
	for _, layout := range tableDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w in table: %q", ErrInvalidDate, s)
}
