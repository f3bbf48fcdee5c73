package fetch

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
)

// notFoundHeadings are the heading phrases of the site's error page in
// English, Russian and Ukrainian.
var notFoundHeadings = []string{"error 404", "ошибка 404", "помилка 404"}

// IsSoft404 reports whether a page served with status 200 is the site's
// "not found" page. The first h1 is compared case-insensitively against
// notFoundHeadings.
func IsSoft404(doc *goquery.Document) bool {
	if doc == nil {
		return false
	}
	h1 := doc.Find("h1").First()
	if h1.Length() == 0 {
		return false
	}

	fold := cases.Fold()
	heading := fold.String(h1.Text())
	for _, phrase := range notFoundHeadings {
		if strings.Contains(heading, fold.String(phrase)) {
			return true
		}
	}
	return false
}
