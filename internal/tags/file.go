package tags

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DefaultFileName is the dictionary file name inside an output directory.
const DefaultFileName = "tags_mapping.json"

// ErrMalformedFile is returned when a dictionary file cannot be decoded.
var ErrMalformedFile = errors.New("malformed tag dictionary file")

// fileFormat is the on-disk envelope.
type fileFormat struct {
	TagsMapping Dictionary `json:"tags_mapping"`
}

// Load reads a dictionary file. A missing file is reported with an error
// matching os.ErrNotExist.
func Load(path string) (Dictionary, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path chosen by the operator
	if err != nil {
		return nil, err
	}

	var f fileFormat
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrMalformedFile, path, err)
	}
	if f.TagsMapping == nil {
		return nil, fmt.Errorf("%w %s: no tags_mapping object", ErrMalformedFile, path)
	}
	return f.TagsMapping, nil
}

// Save writes d to path atomically. Non-ASCII text is written literally.
func Save(path string, d Dictionary) error {
	data, err := marshal(d)
	if err != nil {
		return err
	}
	return writeAtomic(path, data)
}

func marshal(d Dictionary) ([]byte, error) {
	if d == nil {
		d = Dictionary{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "    ")
	if err := enc.Encode(fileFormat{TagsMapping: d}); err != nil {
		return nil, fmt.Errorf("failed to encode tag dictionary: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic replaces path with data via a temporary file in the same directory.
//
// The dictionary is rewritten after every group while other workers keep
// running, and a reader (or a crash) must never see half a file. Renaming
// within one directory is atomic on POSIX file systems, so path always
// holds either the previous dictionary or the new one.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tags-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write tag dictionary: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save tag dictionary: %w", err)
	}
	return nil
}
