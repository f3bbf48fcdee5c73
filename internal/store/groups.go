package store

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nao1215/upcrawler/internal/model"
)

// GroupIDs returns the names of the group directories below the root, sorted.
// Only directories with purely numeric names are considered groups.
func (s *Store) GroupIDs() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() && isNumeric(e.Name()) {
			ids = append(ids, e.Name())
		}
	}
	slices.SortFunc(ids, compareNumeric)
	return ids, nil
}

// ReadGroup loads every record of one group. Files that cannot be decoded
// are logged and skipped.
func (s *Store) ReadGroup(groupID string, logger *slog.Logger) (*model.FullArticle, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	dir := filepath.Join(s.root, groupID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	fa := &model.FullArticle{
		GroupID:  groupID,
		Articles: make(map[model.Language]*model.Article),
	}
	tagSet := make(map[string]struct{})

	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || filepath.Ext(e.Name()) != recordExt {
			continue
		}
		lang, _, err := ParseFileName(e.Name())
		if err != nil {
			logger.Warn("skipping unexpected file", "path", filepath.Join(dir, e.Name()), "error", err)
			continue
		}
		a, err := ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			logger.Warn("skipping unreadable record", "error", err)
			continue
		}

		fa.Articles[lang] = a
		if !a.Date.IsZero() {
			fa.DatePublished = a.Date
		}
		for _, id := range a.Tags {
			tagSet[id] = struct{}{}
		}
	}

	fa.Tags = make([]string, 0, len(tagSet))
	for id := range tagSet {
		fa.Tags = append(fa.Tags, id)
	}
	slices.Sort(fa.Tags)
	return fa, nil
}

// ReadGroups loads every group below the root. Groups without any readable
// record are left out.
func (s *Store) ReadGroups(logger *slog.Logger) ([]*model.FullArticle, error) {
	ids, err := s.GroupIDs()
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", s.root, err)
	}

	groups := make([]*model.FullArticle, 0, len(ids))
	for _, id := range ids {
		fa, err := s.ReadGroup(id, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to read group %s: %w", id, err)
		}
		if len(fa.Articles) == 0 {
			continue
		}
		groups = append(groups, fa)
	}
	return groups, nil
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// compareNumeric orders decimal strings by value.
func compareNumeric(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		return len(a) - len(b)
	}
	return strings.Compare(a, b)
}
