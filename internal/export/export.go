// Package export flattens stored article groups into a CSV dataset with
// one row per group and one column set per language edition.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/upcrawler/internal/model"
	"github.com/nao1215/upcrawler/internal/store"
)

// DefaultFileName is used when the output is a directory.
const DefaultFileName = "articles.csv"

// progressEvery is how often progress is logged while writing rows.
const progressEvery = 50

// ErrNoArticles is returned when the input holds no readable group.
var ErrNoArticles = errors.New("no articles found")

var (
	groupFields   = []string{"art_id", "date_published", "tags"}
	articleFields = []string{"uri", "title", "author_name", "text", "tags", "tags_full"}
)

// Header returns the CSV header: the group fields followed by
// <lang>_<field> for every language.
func Header() []string {
	header := append([]string(nil), groupFields...)
	for _, lang := range model.Languages() {
		for _, f := range articleFields {
			header = append(header, lang.String()+"_"+f)
		}
	}
	return header
}

// Row flattens one group. Columns of a missing translation are empty.
func Row(fa *model.FullArticle) ([]string, error) {
	row := []string{fa.GroupID, fa.DatePublished.String(), strings.Join(fa.Tags, ",")}
	for _, lang := range model.Languages() {
		a, ok := fa.Articles[lang]
		if !ok || a == nil {
			row = append(row, make([]string, len(articleFields))...)
			continue
		}
		full, err := json.Marshal(a.TagsFull)
		if err != nil {
			return nil, fmt.Errorf("failed to encode tags of %s: %w", a.URI, err)
		}
		row = append(row,
			a.URI,
			a.Title,
			a.Author(),
			a.Text(),
			strings.Join(a.TagNames(), ","),
			string(full),
		)
	}
	return row, nil
}

// Write writes the header and one row per group and returns the number
// of rows written.
func Write(w io.Writer, groups []*model.FullArticle, logger *slog.Logger) (int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return 0, err
	}

	n := 0
	for _, fa := range groups {
		row, err := Row(fa)
		if err != nil {
			return n, err
		}
		if err := cw.Write(row); err != nil {
			return n, err
		}
		n++
		if n%progressEvery == 0 {
			logger.Info("rows written", "rows", n)
		}
	}

	cw.Flush()
	return n, cw.Error()
}

// File reads every group under inputDir and writes the dataset to output.
// When output is an existing directory the file is named DefaultFileName
// inside it. It returns the written path and the number of rows.
func File(inputDir, output string, logger *slog.Logger) (string, int, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	groups, err := store.New(inputDir).ReadGroups(logger)
	if err != nil {
		return "", 0, err
	}
	if len(groups) == 0 {
		return "", 0, fmt.Errorf("%w in %s", ErrNoArticles, inputDir)
	}

	if info, err := os.Stat(output); err == nil && info.IsDir() {
		output = filepath.Join(output, DefaultFileName)
	}
	if err := os.MkdirAll(filepath.Dir(output), 0750); err != nil {
		return "", 0, fmt.Errorf("failed to create output directory: %w", err)
	}

	f, err := os.Create(filepath.Clean(output))
	if err != nil {
		return "", 0, fmt.Errorf("failed to create %s: %w", output, err)
	}

	logger.Info("writing dataset", "path", output, "groups", len(groups))
	n, err := Write(f, groups, logger)
	if err != nil {
		_ = f.Close()
		return "", n, fmt.Errorf("failed to write %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return "", n, err
	}
	logger.Info("dataset written", "path", output, "rows", n)
	return output, n, nil
}
