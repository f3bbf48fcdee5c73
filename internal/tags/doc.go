// Package tags maintains the cross-language tag dictionary.
//
// The dictionary maps a short tag id (e.g. "pozhezha") to its display name
// and link in each language edition. It is seeded from the site's tag
// index pages and then refined with every tag observed on an article
// page, which is the only way English labels become known.
//
// Two kinds of absence are kept apart: a language key mapped to nil means
// the id is known not to be listed for that edition, while a missing key
// means that edition was never observed.
package tags
