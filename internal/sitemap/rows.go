package sitemap

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/klauspost/compress/gzip"

	"github.com/nao1215/upcrawler/internal/model"
)

// locationPattern splits an article address into its parts, e.g.
// https://www.pravda.com.ua/eng/news/2022/12/24/7382312/
// domain=https://www.pravda.com.ua/ lang=eng kind=news
// art_id=2022/12/24/7382312/ date_part=2022/12/24 id=7382312
var locationPattern = regexp.MustCompile(
	`(?P<uri>(?P<domain>.*\.com\.ua/)(?P<lang>(eng)|(rus))?/?(?P<kind>.*?)/(?P<art_id>.*(?P<date_part>..../../..?)/(?P<id>.*)/))`,
)

// datePartLayout matches the date segment; the day may lack a leading zero.
const datePartLayout = "2006/01/2"

var (
	groupURI      = locationPattern.SubexpIndex("uri")
	groupDomain   = locationPattern.SubexpIndex("domain")
	groupLang     = locationPattern.SubexpIndex("lang")
	groupKind     = locationPattern.SubexpIndex("kind")
	groupArtID    = locationPattern.SubexpIndex("art_id")
	groupDatePart = locationPattern.SubexpIndex("date_part")
	groupID       = locationPattern.SubexpIndex("id")
)

// ParseLocation extracts a candidate row from one sitemap location.
// The date is interpreted in loc. It returns false for locations that do
// not look like article addresses.
func ParseLocation(location string, loc *time.Location) (model.CandidateURI, bool) {
	m := locationPattern.FindStringSubmatch(strings.TrimSpace(location))
	if m == nil {
		return model.CandidateURI{}, false
	}

	date, err := time.ParseInLocation(datePartLayout, m[groupDatePart], loc)
	if err != nil {
		return model.CandidateURI{}, false
	}
	lang, err := model.ParseLanguage(m[groupLang])
	if err != nil {
		return model.CandidateURI{}, false
	}

	return model.CandidateURI{
		URI:         m[groupURI],
		Date:        date,
		Domain:      m[groupDomain],
		Language:    lang,
		Kind:        m[groupKind],
		ArticlePath: m[groupArtID],
		GroupID:     m[groupID],
	}, true
}

// ExtractLocations returns the text of every <loc> element in a sitemap.
// Gzip-compressed documents are decompressed first.
func ExtractLocations(document []byte) ([]string, error) {
	var r io.Reader = bytes.NewReader(document)
	if len(document) >= 2 && document[0] == 0x1f && document[1] == 0x8b {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}

	doc, err := xmlquery.Parse(bufio.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("failed to parse sitemap: %w", err)
	}

	nodes, err := xmlquery.QueryAll(doc, "//*[local-name()='loc']")
	if err != nil {
		return nil, fmt.Errorf("failed to query sitemap: %w", err)
	}

	locations := make([]string, 0, len(nodes))
	for _, n := range nodes {
		if text := strings.TrimSpace(n.InnerText()); text != "" {
			locations = append(locations, text)
		}
	}
	return locations, nil
}
