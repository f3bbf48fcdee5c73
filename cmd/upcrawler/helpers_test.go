package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/nao1215/upcrawler/internal/model"
)

func articlePage(title string, tagLinks ...string) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"></head><body><h1>")
	b.WriteString(title)
	b.WriteString(`</h1><span class="post_author"><a href="/authors/1/">Автор</a></span>`)
	b.WriteString(`<div class="post_text"><p>Текст новини.</p><p>Читайте також: інше</p></div>`)
	for _, link := range tagLinks {
		fmt.Fprintf(&b, `<span class="post_tags_item"><a href="%s">%s</a></span>`, link, strings.Trim(link, "/"))
	}
	b.WriteString("</body></html>")
	return b.String()
}

func tagIndexPage(links ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="block_tags">`)
	for _, link := range links {
		fmt.Fprintf(&b, `<a href="%s">%s</a>`, link, strings.Trim(link, "/"))
	}
	b.WriteString("</div></body></html>")
	return b.String()
}

func gzipSitemap(t *testing.T, locations ...string) []byte {
	t.Helper()

	var xml strings.Builder
	xml.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	xml.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locations {
		fmt.Fprintf(&xml, "<url><loc>%s</loc></url>", loc)
	}
	xml.WriteString(`</urlset>`)

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write([]byte(xml.String())); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("failed to compress: %v", err)
	}
	return buf.Bytes()
}

// newTestSite serves two translations of one article, the tag index pages
// and the December 2022 sitemap archive. Paths under /blocked/ answer 403.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	archive := gzipSitemap(t,
		"https://www.pravda.com.ua/news/2022/12/24/7382312/",
		"https://www.pravda.com.ua/rus/news/2022/12/24/7382312/",
		"https://www.pravda.com.ua/columns/2022/12/24/7382313/",
		"https://www.pravda.com.ua/news/2022/12/27/7382500/",
	)
	html := map[string]string{
		"/tags/":                        tagIndexPage("/tags/kyiv/"),
		"/rus/tags/":                    tagIndexPage("/rus/tags/kyiv/"),
		"/news/2022/12/24/7382312/":     articlePage("Новина", "/tags/kyiv/", "/tags/lviv/"),
		"/rus/news/2022/12/24/7382312/": articlePage("Новость", "/rus/tags/kyiv/"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sitemap-2022-12.xml.gz" {
			w.Header().Set("Content-Type", "application/x-gzip")
			_, _ = w.Write(archive)
			return
		}
		if strings.HasPrefix(r.URL.Path, "/blocked/") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		page, ok := html[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeTestConfig writes a configuration file pointing every remote
// address at srv and disabling request waits.
func writeTestConfig(t *testing.T, srv *httptest.Server) string {
	t.Helper()

	content := fmt.Sprintf(`timeout: -1
max_retries: 1
sitemap_template: "%[1]s/sitemap-{year}-{month}.xml.gz"
tag_index_urls:
  ukr: "%[1]s/tags/"
  rus: "%[1]s/rus/tags/"
`, srv.URL)

	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// testRows lists the translations served by newTestSite.
func testRows(srv *httptest.Server) []model.CandidateURI {
	date := time.Date(2022, 12, 24, 0, 0, 0, 0, time.Local)
	return []model.CandidateURI{
		{
			URI:         srv.URL + "/news/2022/12/24/7382312/",
			Date:        date,
			Domain:      srv.URL + "/",
			Language:    model.LanguageUkrainian,
			Kind:        "news",
			ArticlePath: "2022/12/24/7382312/",
			GroupID:     "7382312",
		},
		{
			URI:         srv.URL + "/rus/news/2022/12/24/7382312/",
			Date:        date,
			Domain:      srv.URL + "/",
			Language:    model.LanguageRussian,
			Kind:        "news",
			ArticlePath: "2022/12/24/7382312/",
			GroupID:     "7382312",
		},
	}
}

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
