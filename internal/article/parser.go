package article

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"github.com/nao1215/upcrawler/internal/model"
)

// ErrMalformed is returned when a page lacks an element every article has.
var ErrMalformed = errors.New("malformed article page")

// DefaultSkipPatterns drop promotional and "read also" paragraphs.
var DefaultSkipPatterns = []string{
	"Follow (us|Ukrainska Pravda) on Twitter",
	"Support UP",
	"become our patron",
	"(читайте|слухайте|слушайте) (також|также)",
}

// Page structure selectors.
const (
	titleSelector     = "h1"
	authorSelector    = "span.post_author"
	tagSelector       = "span.post_tags_item"
	bodySelector      = "div.post_text"
	paragraphSelector = "p, li"
)

// Parser turns an article page into a model.Article.
// It is safe for concurrent use.
type Parser struct {
	skip        []*regexp.Regexp
	keepRawHTML bool
}

// ParserOption configures a Parser.
type ParserOption func(*Parser) error

// WithSkipPatterns sets the paragraph exclusion patterns. A paragraph is
// dropped when any pattern matches anywhere in it, ignoring case.
func WithSkipPatterns(patterns []string) ParserOption {
	return func(p *Parser) error {
		p.skip = make([]*regexp.Regexp, 0, len(patterns))
		for _, pattern := range patterns {
			re, err := regexp.Compile("(?i)" + pattern)
			if err != nil {
				return fmt.Errorf("invalid skip pattern %q: %w", pattern, err)
			}
			p.skip = append(p.skip, re)
		}
		return nil
	}
}

// WithRawHTML controls whether the body markup is kept in the record.
func WithRawHTML(keep bool) ParserOption {
	return func(p *Parser) error {
		p.keepRawHTML = keep
		return nil
	}
}

// NewParser creates a Parser. Without options no paragraph is skipped and
// the body markup is kept.
func NewParser(opts ...ParserOption) (*Parser, error) {
	p := &Parser{keepRawHTML: true}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Parse extracts title, author, tags and body paragraphs from doc.
// URI, language, group id and date are left for the caller.
func (p *Parser) Parse(doc *goquery.Document) (*model.Article, error) {
	h1 := doc.Find(titleSelector).First()
	if h1.Length() == 0 {
		return nil, fmt.Errorf("%w: no title heading", ErrMalformed)
	}

	body := doc.Find(bodySelector).First()
	if body.Length() == 0 {
		return nil, fmt.Errorf("%w: no body container", ErrMalformed)
	}

	a := &model.Article{
		Title:      h1.Text(),
		AuthorName: author(doc),
		Paragraphs: p.paragraphs(body),
	}
	a.SetTags(tags(doc))

	if p.keepRawHTML {
		raw, err := goquery.OuterHtml(body)
		if err != nil {
			return nil, fmt.Errorf("failed to render body markup: %w", err)
		}
		a.RawHTML = raw
	}

	return a, nil
}

// author returns the byline text, or nil for pages without one.
func author(doc *goquery.Document) *string {
	link := doc.Find(authorSelector).First().Find("a").First()
	if link.Length() == 0 {
		return nil
	}
	name := link.Text()
	return &name
}

// tags returns every tag chip on the page. Chips without a link are ignored.
func tags(doc *goquery.Document) []model.Tag {
	result := make([]model.Tag, 0)
	doc.Find(tagSelector).Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}
		result = append(result, model.Tag{
			ShortID: ShortIDFromLink(href),
			Name:    s.Text(),
			Link:    href,
		})
	})
	return result
}

// paragraphs collects the non-empty, non-skipped paragraph texts in
// document order.
func (p *Parser) paragraphs(body *goquery.Selection) []string {
	result := make([]string, 0)
	body.Find(paragraphSelector).Each(func(_ int, s *goquery.Selection) {
		text := s.Text()
		if text == "" || p.skipped(text) {
			return
		}
		if normalized := strings.TrimSpace(norm.NFKC.String(text)); normalized != "" {
			result = append(result, normalized)
		}
	})
	return result
}

func (p *Parser) skipped(text string) bool {
	for _, re := range p.skip {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// ShortIDFromLink returns the second-to-last slash-separated segment:
// "/eng/tags/tserkva/" becomes "tserkva".
func ShortIDFromLink(link string) string {
	parts := strings.Split(link, "/")
	if len(parts) < 2 {
		return link
	}
	return parts[len(parts)-2]
}
