package model

import "time"

// CandidateURI is one article translation discovered in a sitemap archive.
// Rows are produced by the sitemap resolver and consumed read-only.
type CandidateURI struct {
	// URI is the absolute article address.
	URI string
	// Date is the publication date embedded in the URI path.
	Date time.Time
	// Domain is the scheme and host part up to and including ".com.ua/".
	Domain string
	// Language is derived from the optional language segment.
	Language Language
	// Kind is the content section, e.g. "news" or "columns".
	Kind string
	// ArticlePath is the path after the kind segment, with trailing slash,
	// e.g. "2022/12/24/7382312/".
	ArticlePath string
	// GroupID is the opaque article id shared by all translations.
	GroupID string
}

// Group is every candidate row sharing one GroupID.
type Group struct {
	ID   string
	Rows []CandidateURI
}

// GroupCandidates groups rows by GroupID. Groups are returned in the order
// their first row appears, and rows keep their relative order.
func GroupCandidates(rows []CandidateURI) []Group {
	index := make(map[string]int)
	groups := make([]Group, 0)
	for _, row := range rows {
		i, ok := index[row.GroupID]
		if !ok {
			i = len(groups)
			index[row.GroupID] = i
			groups = append(groups, Group{ID: row.GroupID})
		}
		groups[i].Rows = append(groups[i].Rows, row)
	}
	return groups
}

// FullArticle collects every stored translation of one article group.
type FullArticle struct {
	GroupID string
	// DatePublished is taken from the last translation read; translations
	// may be published on different days.
	DatePublished Date
	// Tags is the union of short tag ids over all translations, sorted.
	Tags     []string
	Articles map[Language]*Article
}
