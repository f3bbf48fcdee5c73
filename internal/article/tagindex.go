package article

import (
	"fmt"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/upcrawler/internal/model"
)

const tagIndexSelector = "div.block_tags"

// ParseTagIndex extracts every tag listed on a tag index page such as
// https://www.pravda.com.ua/tags/. Later duplicates of a short id win.
func ParseTagIndex(doc *goquery.Document) (map[string]model.Tag, error) {
	container := doc.Find(tagIndexSelector).First()
	if container.Length() == 0 {
		return nil, fmt.Errorf("%w: no tag index container", ErrMalformed)
	}

	tags := make(map[string]model.Tag)
	container.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		short := ShortIDFromLink(href)
		tags[short] = model.Tag{ShortID: short, Name: s.Text(), Link: href}
	})
	return tags, nil
}
