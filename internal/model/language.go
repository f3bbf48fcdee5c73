package model

import "fmt"

// Language identifies one edition of the news site.
// Values are ISO 639-3 codes; "rus" and "eng" match the URI segments the
// site itself uses, "ukr" is the primary edition without a segment.
type Language string

const (
	// LanguageUkrainian is the primary edition. Its URIs carry no language segment.
	LanguageUkrainian Language = "ukr"
	// LanguageRussian is the edition under /rus/.
	LanguageRussian Language = "rus"
	// LanguageEnglish is the edition under /eng/.
	LanguageEnglish Language = "eng"
)

// Languages returns all supported editions in their canonical order.
func Languages() []Language {
	return []Language{LanguageUkrainian, LanguageRussian, LanguageEnglish}
}

// String returns the language code.
func (l Language) String() string {
	return string(l)
}

// Valid reports whether l is one of the supported editions.
func (l Language) Valid() bool {
	switch l {
	case LanguageUkrainian, LanguageRussian, LanguageEnglish:
		return true
	default:
		return false
	}
}

// ParseLanguage converts a URI segment or language code into a Language.
// An empty segment means the primary edition.
func ParseLanguage(s string) (Language, error) {
	if s == "" {
		return LanguageUkrainian, nil
	}
	l := Language(s)
	if !l.Valid() {
		return "", fmt.Errorf("unknown language %q", s)
	}
	return l, nil
}
