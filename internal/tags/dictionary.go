package tags

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"maps"
	"slices"

	"github.com/nao1215/upcrawler/internal/model"
)

// Name is a tag's label and link in one language.
// It is serialized as a JSON array [name, link].
type Name struct {
	Name string
	Link string
}

// MarshalJSON encodes the pair as a two-element array.
func (n Name) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{n.Name, n.Link})
}

// UnmarshalJSON decodes a two-element array.
func (n *Name) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 2 {
		return fmt.Errorf("tag name must have 2 elements, got %d", len(parts))
	}
	n.Name, n.Link = parts[0], parts[1]
	return nil
}

// Entry is one tag id's projection onto the language editions.
type Entry map[model.Language]*Name

// Dictionary maps short tag ids to their entries.
type Dictionary map[string]Entry

// Merge records observations made on a page in lang. Unknown ids get a
// fresh entry; the (id, lang) value is overwritten with the latest
// observation. It returns the ids that were new to the dictionary.
func (d Dictionary) Merge(observations []model.Tag, lang model.Language, logger *slog.Logger) []string {
	var added []string
	for _, tag := range observations {
		entry, ok := d[tag.ShortID]
		if !ok {
			if logger != nil {
				logger.Info("tag not in dictionary, adding", "tag", tag.ShortID, "lang", lang)
			}
			entry = make(Entry)
			d[tag.ShortID] = entry
			added = append(added, tag.ShortID)
		}
		entry[lang] = &Name{Name: tag.Name, Link: tag.Link}
	}
	return added
}

// IDs returns the short ids in sorted order.
func (d Dictionary) IDs() []string {
	return slices.Sorted(maps.Keys(d))
}

// Lookup returns the name of id in lang, if it is known.
func (d Dictionary) Lookup(id string, lang model.Language) (Name, bool) {
	name := d[id][lang]
	if name == nil {
		return Name{}, false
	}
	return *name, true
}

// Union builds a dictionary from the tag index pages of several editions.
// Every id gets a key for each edition; editions that do not list the id
// map to nil.
func Union(pages map[model.Language]map[string]model.Tag) Dictionary {
	d := make(Dictionary)
	for _, listed := range pages {
		for id := range listed {
			d[id] = make(Entry, len(pages))
		}
	}
	for id, entry := range d {
		for lang, listed := range pages {
			tag, ok := listed[id]
			if !ok {
				entry[lang] = nil
				continue
			}
			entry[lang] = &Name{Name: tag.Name, Link: tag.Link}
		}
	}
	return d
}
