// Package store persists article records as one JSON file per
// (article group, language).
//
// Layout under the root directory:
//
//	<root>/<group id>/<lang>_<base64url(uri)>.json
//
// The file name is derived only from the language and source URI, so a
// resumed run finds the records of an interrupted one. Writes go through a
// temporary file and a rename; a reader never sees a partial record.
package store

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/upcrawler/internal/model"
)

const recordExt = ".json"

// Store reads and writes records below a root directory.
type Store struct {
	root string
}

// New returns a Store rooted at dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{root: dir}
}

// Root returns the root directory.
func (s *Store) Root() string {
	return s.root
}

// FileName returns the record file name for a translation.
// URL-safe base64 keeps the name free of path separators.
func FileName(lang model.Language, uri string) string {
	return string(lang) + "_" + base64.URLEncoding.EncodeToString([]byte(uri)) + recordExt
}

// ParseFileName recovers the language and URI from a record file name.
func ParseFileName(name string) (model.Language, string, error) {
	base, ok := strings.CutSuffix(name, recordExt)
	if !ok {
		return "", "", fmt.Errorf("not a record file: %s", name)
	}
	prefix, encoded, ok := strings.Cut(base, "_")
	if !ok {
		return "", "", fmt.Errorf("not a record file: %s", name)
	}
	lang, err := model.ParseLanguage(prefix)
	if err != nil {
		return "", "", err
	}
	uri, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		// Files written with the standard alphabet are still readable.
		uri, err = base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return "", "", fmt.Errorf("invalid record file name %s: %w", name, err)
		}
	}
	return lang, string(uri), nil
}

// Path returns the record path of a translation.
func (s *Store) Path(groupID string, lang model.Language, uri string) string {
	return filepath.Join(s.root, groupID, FileName(lang, uri))
}

// Exists reports whether the record of a translation is already stored.
func (s *Store) Exists(groupID string, lang model.Language, uri string) bool {
	info, err := os.Stat(s.Path(groupID, lang, uri))
	return err == nil && info.Mode().IsRegular()
}

// Load reads the record of a translation.
func (s *Store) Load(groupID string, lang model.Language, uri string) (*model.Article, error) {
	return ReadFile(s.Path(groupID, lang, uri))
}

// Save writes a record into its group directory and returns its path.
// The record's GroupID, Language and URI decide the location.
//
// The record is written to a temporary file and renamed into place. A
// resumed run treats an existing file as done, so a truncated record left
// by a crash would otherwise be skipped forever.
func (s *Store) Save(a *model.Article) (string, error) {
	if a.GroupID == "" || a.URI == "" || !a.Language.Valid() {
		return "", errors.New("record lacks group id, language or uri")
	}

	path := s.Path(a.GroupID, a.Language, a.URI)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", fmt.Errorf("failed to create group directory: %w", err)
	}

	data, err := Encode(a)
	if err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(dir, ".record-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("failed to write record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to save record: %w", err)
	}
	return path, nil
}

// Encode renders a record as indented UTF-8 JSON with non-ASCII text
// and markup left unescaped.
func Encode(a *model.Article) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(a); err != nil {
		return nil, fmt.Errorf("failed to encode record: %w", err)
	}
	return buf.Bytes(), nil
}

// ReadFile decodes one record file.
func ReadFile(path string) (*model.Article, error) {
	data, err := os.ReadFile(path) //nolint:gosec // paths come from the store layout
	if err != nil {
		return nil, err
	}
	var a model.Article
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return &a, nil
}
