package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tag is one tag chip observed on an article page.
// It is serialized as a JSON array [short_id, name, link].
type Tag struct {
	// ShortID is the second-to-last path segment of Link, e.g. "pozhezha".
	// It is stable across language editions.
	ShortID string
	// Name is the human-readable label in the page's language.
	Name string
	// Link is the tag page path as found in the markup.
	Link string
}

// MarshalJSON encodes the tag as a three-element array.
func (t Tag) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{t.ShortID, t.Name, t.Link})
}

// UnmarshalJSON decodes a three-element array.
func (t *Tag) UnmarshalJSON(data []byte) error {
	var parts []string
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("tag must have 3 elements, got %d", len(parts))
	}
	t.ShortID, t.Name, t.Link = parts[0], parts[1], parts[2]
	return nil
}

// Article is one language edition of one article.
//
// The parser fills URI-independent content. The orchestrator then attaches
// URI, Language, GroupID and Date from the candidate row before the record
// is persisted. A persisted Article is never modified; re-crawling produces
// a new record that replaces the file.
type Article struct {
	URI   string `json:"uri"`
	Title string `json:"title"`

	// AuthorName is nil for articles without a byline (common before ~2010).
	AuthorName *string `json:"author_name"`

	// Paragraphs may be empty for media-only posts but is never nil
	// on records produced by the parser.
	Paragraphs []string `json:"text"`

	// RawHTML is the outer markup of the body container.
	RawHTML string `json:"raw_html,omitempty"`

	Language Language `json:"lang"`

	// GroupID is shared by every translation of the same article.
	GroupID string `json:"art_id"`

	Date Date `json:"date"`

	TagsFull []Tag    `json:"tags_full"`
	Tags     []string `json:"tags"`
}

// SetTags stores the tag observations and derives the short id list.
// Duplicated short ids are kept once, in first-seen order.
func (a *Article) SetTags(tags []Tag) {
	a.TagsFull = tags
	a.Tags = make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if _, ok := seen[t.ShortID]; ok {
			continue
		}
		seen[t.ShortID] = struct{}{}
		a.Tags = append(a.Tags, t.ShortID)
	}
}

// Text returns the paragraphs joined by a single space.
func (a *Article) Text() string {
	return strings.Join(a.Paragraphs, " ")
}

// TagNames returns the display names of the observed tags.
func (a *Article) TagNames() []string {
	names := make([]string, 0, len(a.TagsFull))
	for _, t := range a.TagsFull {
		names = append(names, t.Name)
	}
	return names
}

// Author returns the author name or an empty string.
func (a *Article) Author() string {
	if a.AuthorName == nil {
		return ""
	}
	return *a.AuthorName
}
