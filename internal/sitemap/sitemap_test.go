package sitemap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/nao1215/upcrawler/internal/fetch"
	"github.com/nao1215/upcrawler/internal/model"
)

// fakeFetcher serves canned documents and records requested URIs.
type fakeFetcher struct {
	mu        sync.Mutex
	documents map[string][]byte
	forbidden map[string]bool
	requested []string
}

func (f *fakeFetcher) Fetch(_ context.Context, uri string) (*fetch.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, uri)

	if f.forbidden[uri] {
		return &fetch.Result{URI: uri, StatusCode: http.StatusForbidden, Outcome: fetch.OutcomeForbidden}, nil
	}
	body, ok := f.documents[uri]
	if !ok {
		return &fetch.Result{URI: uri, StatusCode: http.StatusNotFound, Outcome: fetch.OutcomeNotFound}, nil
	}
	return &fetch.Result{URI: uri, StatusCode: http.StatusOK, Outcome: fetch.OutcomeOK, Body: body}, nil
}

// gzipSitemap builds a compressed urlset containing locations.
func gzipSitemap(t *testing.T, locations ...string) []byte {
	t.Helper()

	var xml strings.Builder
	xml.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	xml.WriteString(`<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
	for _, loc := range locations {
		fmt.Fprintf(&xml, "<url><loc>%s</loc><lastmod>2023-05-01</lastmod></url>", loc)
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

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestParseLocation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		location string
		ok       bool
		expected model.CandidateURI
	}{
		{
			name:     "primary edition",
			location: "https://www.pravda.com.ua/news/2022/12/24/7382312/",
			ok:       true,
			expected: model.CandidateURI{
				URI:         "https://www.pravda.com.ua/news/2022/12/24/7382312/",
				Date:        time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC),
				Domain:      "https://www.pravda.com.ua/",
				Language:    model.LanguageUkrainian,
				Kind:        "news",
				ArticlePath: "2022/12/24/7382312/",
				GroupID:     "7382312",
			},
		},
		{
			name:     "russian edition",
			location: "https://www.pravda.com.ua/rus/news/2022/12/24/7382312/",
			ok:       true,
			expected: model.CandidateURI{
				URI:         "https://www.pravda.com.ua/rus/news/2022/12/24/7382312/",
				Date:        time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC),
				Domain:      "https://www.pravda.com.ua/",
				Language:    model.LanguageRussian,
				Kind:        "news",
				ArticlePath: "2022/12/24/7382312/",
				GroupID:     "7382312",
			},
		},
		{
			name:     "english column with single digit day",
			location: "https://www.pravda.com.ua/eng/columns/2022/12/4/7379001/",
			ok:       true,
			expected: model.CandidateURI{
				URI:         "https://www.pravda.com.ua/eng/columns/2022/12/4/7379001/",
				Date:        time.Date(2022, 12, 4, 0, 0, 0, 0, time.UTC),
				Domain:      "https://www.pravda.com.ua/",
				Language:    model.LanguageEnglish,
				Kind:        "columns",
				ArticlePath: "2022/12/4/7379001/",
				GroupID:     "7379001",
			},
		},
		{
			name:     "not an article",
			location: "https://www.pravda.com.ua/tags/",
			ok:       false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := ParseLocation(tc.location, time.UTC)
			if ok != tc.ok {
				t.Fatalf("got ok=%v, expected %v", ok, tc.ok)
			}
			if !tc.ok {
				return
			}
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("got %+v\nexpected %+v", got, tc.expected)
			}
		})
	}
}

func TestExtractLocations(t *testing.T) {
	t.Parallel()

	t.Run("gzip archive", func(t *testing.T) {
		t.Parallel()

		doc := gzipSitemap(t, "https://www.pravda.com.ua/news/2022/12/24/1/", "https://www.pravda.com.ua/news/2022/12/24/2/")
		got, err := ExtractLocations(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("expected 2 locations, got %v", got)
		}
	})

	t.Run("plain xml", func(t *testing.T) {
		t.Parallel()

		doc := []byte(`<urlset><url><loc> https://www.pravda.com.ua/news/2022/12/24/1/ </loc></url></urlset>`)
		got, err := ExtractLocations(doc)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got) != 1 || got[0] != "https://www.pravda.com.ua/news/2022/12/24/1/" {
			t.Errorf("unexpected locations %v", got)
		}
	})

	t.Run("corrupt gzip", func(t *testing.T) {
		t.Parallel()

		if _, err := ExtractLocations([]byte{0x1f, 0x8b, 0x00}); err == nil {
			t.Error("expected error")
		}
	})
}

func TestMonths(t *testing.T) {
	t.Parallel()

	from := time.Date(2022, 11, 30, 12, 0, 0, 0, time.UTC)
	to := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)

	got := Months(from, to)
	expected := []string{"2022-11", "2022-12", "2023-01", "2023-02"}
	if len(got) != len(expected) {
		t.Fatalf("got %v", got)
	}
	for i, m := range got {
		if m.Format("2006-01") != expected[i] {
			t.Errorf("month %d: got %s, expected %s", i, m.Format("2006-01"), expected[i])
		}
	}
}

func TestResolveDecemberScenario(t *testing.T) {
	t.Parallel()

	dec := "https://www.pravda.com.ua/sitemap/sitemap-2022-12.xml.gz"
	jan := "https://www.pravda.com.ua/sitemap/sitemap-2023-01.xml.gz"
	f := &fakeFetcher{documents: map[string][]byte{
		dec: gzipSitemap(t,
			"https://www.pravda.com.ua/news/2022/12/26/7382400/",
			"https://www.pravda.com.ua/news/2022/12/24/7382312/",
			"https://www.pravda.com.ua/rus/news/2022/12/24/7382312/",
			"https://www.pravda.com.ua/columns/2022/12/24/7382313/",
			"https://www.epravda.com.ua/news/2022/12/24/695000/",
			"https://www.pravda.com.ua/news/2022/12/1/7378000/",
		),
		// Late November articles are listed in the next archive as well.
		jan: gzipSitemap(t,
			"https://www.pravda.com.ua/news/2022/11/30/7377900/",
			"https://www.pravda.com.ua/eng/news/2022/12/23/7382200/",
		),
	}}

	r := NewResolver(f, WithNow(fixedNow(time.Date(2023, 6, 1, 12, 0, 0, 0, time.UTC))))
	rows, err := r.Resolve(context.Background(), "2022-12-01", "2022-12-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(f.requested, []string{dec, jan}) {
		t.Errorf("unexpected archives requested: %v", f.requested)
	}

	var uris []string
	for _, row := range rows {
		uris = append(uris, row.URI)
	}
	expected := []string{
		"https://www.pravda.com.ua/eng/news/2022/12/23/7382200/",
		"https://www.pravda.com.ua/news/2022/12/24/7382312/",
		"https://www.pravda.com.ua/rus/news/2022/12/24/7382312/",
		"https://www.epravda.com.ua/news/2022/12/24/695000/",
	}
	if !reflect.DeepEqual(uris, expected) {
		t.Errorf("got %v\nexpected %v", uris, expected)
	}
}

func TestResolveDomains(t *testing.T) {
	t.Parallel()

	dec := "https://www.pravda.com.ua/sitemap/sitemap-2022-12.xml.gz"
	archive := gzipSitemap(t,
		"https://pravda.com.ua/news/2022/12/24/7000001/",
		"https://www.pravda.com.ua/news/2022/12/24/7000002/",
		"https://life.pravda.com.ua/news/2022/12/24/7000003/",
	)
	now := fixedNow(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	tests := []struct {
		name     string
		opts     []Option
		expected []string
	}{
		{
			name:     "every host is kept by default",
			expected: []string{"7000001", "7000002", "7000003"},
		},
		{
			name:     "empty allow-list keeps every host",
			opts:     []Option{WithDomains(nil)},
			expected: []string{"7000001", "7000002", "7000003"},
		},
		{
			name:     "bare host",
			opts:     []Option{WithDomains([]string{"pravda.com.ua"})},
			expected: []string{"7000001"},
		},
		{
			name:     "several hosts",
			opts:     []Option{WithDomains([]string{"www.pravda.com.ua", "life.pravda.com.ua"})},
			expected: []string{"7000002", "7000003"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := &fakeFetcher{documents: map[string][]byte{dec: archive}}
			r := NewResolver(f, append([]Option{WithNow(now)}, tt.opts...)...)
			rows, err := r.Resolve(context.Background(), "2022-12-01", "2022-12-25")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var ids []string
			for _, row := range rows {
				ids = append(ids, row.GroupID)
			}
			if !reflect.DeepEqual(ids, tt.expected) {
				t.Errorf("got %v, expected %v", ids, tt.expected)
			}
		})
	}
}

func TestResolveCustomKinds(t *testing.T) {
	t.Parallel()

	dec := "https://www.pravda.com.ua/sitemap/sitemap-2022-12.xml.gz"
	f := &fakeFetcher{documents: map[string][]byte{
		dec: gzipSitemap(t,
			"https://www.pravda.com.ua/news/2022/12/24/7382312/",
			"https://www.pravda.com.ua/columns/2022/12/24/7382313/",
			"https://www.pravda.com.ua/articles/2022/12/24/7382314/",
		),
	}}

	r := NewResolver(f,
		WithKinds([]string{"news", "columns"}),
		WithNow(fixedNow(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))),
	)
	rows, err := r.Resolve(context.Background(), "2022-12-01", "2022-12-25")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 2 {
		t.Errorf("expected news and columns rows, got %+v", rows)
	}
}

func TestResolveSkipsFutureMonths(t *testing.T) {
	t.Parallel()

	dec := "https://www.pravda.com.ua/sitemap/sitemap-2022-12.xml.gz"
	f := &fakeFetcher{documents: map[string][]byte{
		dec: gzipSitemap(t, "https://www.pravda.com.ua/news/2022/12/28/7382500/"),
	}}

	r := NewResolver(f, WithNow(fixedNow(time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))))
	rows, err := r.Resolve(context.Background(), "2022-12-20", "2023-01-05")
	if err != nil {
		t.Fatalf("future months must not be an error: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("expected 1 row, got %d", len(rows))
	}
	for _, uri := range f.requested {
		if strings.Contains(uri, "2023-02") {
			t.Errorf("future archive requested: %s", uri)
		}
	}
}

func TestResolveNewsFeed(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{documents: map[string][]byte{
		DefaultNewsFeedURI: []byte(`<urlset><url><loc>https://www.pravda.com.ua/news/2023/01/08/7383000/</loc></url></urlset>`),
	}}

	r := NewResolver(f,
		WithNewsFeed(DefaultNewsFeedURI),
		WithNow(fixedNow(time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC))),
	)
	rows, err := r.Resolve(context.Background(), "2023-01-05", "2023-01-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].GroupID != "7383000" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestResolveRangeErrors(t *testing.T) {
	t.Parallel()

	now := fixedNow(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))

	testCases := []struct {
		name      string
		d1, d2    string
		target    error
		tooRecent bool
	}{
		{"equal dates", "2022-12-01", "2022-12-01", ErrEmptyRange, false},
		{"inverted range", "2022-12-25", "2022-12-01", ErrInvertedRange, false},
		{"nothing published", "2021-01-01", "2021-01-10", ErrNoCandidates, false},
		{"too recent", "2023-05-20", "2023-05-30", ErrNoCandidates, true},
		{"garbage", "not a date at all", "2022-12-01", ErrInvalidDate, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			r := NewResolver(&fakeFetcher{}, WithNow(now))
			rows, err := r.Resolve(context.Background(), tc.d1, tc.d2)
			if !errors.Is(err, tc.target) {
				t.Fatalf("expected %v, got %v", tc.target, err)
			}
			if rows != nil {
				t.Errorf("expected no rows, got %v", rows)
			}

			var rangeErr *RangeError
			if errors.As(err, &rangeErr) && rangeErr.TooRecent != tc.tooRecent {
				t.Errorf("got TooRecent=%v, expected %v", rangeErr.TooRecent, tc.tooRecent)
			}
		})
	}
}

func TestResolveForbidden(t *testing.T) {
	t.Parallel()

	dec := "https://www.pravda.com.ua/sitemap/sitemap-2022-12.xml.gz"
	f := &fakeFetcher{forbidden: map[string]bool{dec: true}}

	r := NewResolver(f, WithNow(fixedNow(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC))))
	_, err := r.Resolve(context.Background(), "2022-12-01", "2022-12-25")
	if !errors.Is(err, fetch.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	now := time.Date(2023, 6, 15, 14, 30, 0, 0, time.UTC)

	testCases := []struct {
		expr     string
		expected string
	}{
		{"2022-12-01", "2022-12-01"},
		{"yesterday", "2023-06-14"},
		{"3 days ago", "2023-06-12"},
	}

	for _, tc := range testCases {
		t.Run(tc.expr, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDate(tc.expr, now)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Format(time.DateOnly) != tc.expected {
				t.Errorf("got %s, expected %s", got.Format(time.DateOnly), tc.expected)
			}
		})
	}

	if _, err := ParseDate("   ", now); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for blank input, got %v", err)
	}
}

func TestTableRoundTrip(t *testing.T) {
	t.Parallel()

	rows := []model.CandidateURI{
		{
			URI:         "https://www.pravda.com.ua/news/2022/12/24/7382312/",
			Date:        time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC),
			Domain:      "https://www.pravda.com.ua/",
			Language:    model.LanguageUkrainian,
			Kind:        "news",
			ArticlePath: "2022/12/24/7382312/",
			GroupID:     "7382312",
		},
		{
			URI:         "https://www.pravda.com.ua/eng/news/2022/12/24/7382312/",
			Date:        time.Date(2022, 12, 24, 0, 0, 0, 0, time.UTC),
			Domain:      "https://www.pravda.com.ua/",
			Language:    model.LanguageEnglish,
			Kind:        "news",
			ArticlePath: "2022/12/24/7382312/",
			GroupID:     "7382312",
		},
	}

	var buf bytes.Buffer
	if err := WriteTable(&buf, rows); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "uri,date,domain,lang,kind,art_id,id\n") {
		t.Errorf("unexpected header: %q", strings.SplitN(buf.String(), "\n", 2)[0])
	}

	got, err := ReadTable(&buf, time.UTC)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !reflect.DeepEqual(got, rows) {
		t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, rows)
	}
}

func TestReadTableToleratesExtraColumns(t *testing.T) {
	t.Parallel()

	input := ",uri,date,domain,lang,kind,art_id,id\n" +
		"0,https://www.pravda.com.ua/news/2022/12/24/7382312/,2022-12-24 00:00:00,https://www.pravda.com.ua/,ukr,news,2022/12/24/7382312/,7382312\n"

	rows, err := ReadTable(strings.NewReader(input), time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].GroupID != "7382312" {
		t.Errorf("unexpected rows %+v", rows)
	}
}

func TestReadTableMissingColumn(t *testing.T) {
	t.Parallel()

	if _, err := ReadTable(strings.NewReader("uri,date\n"), time.UTC); err == nil {
		t.Error("expected error for missing columns")
	}
}

func TestSaveTableIntoDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path, err := SaveTable(dir, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasSuffix(path, DefaultTableFile) {
		t.Errorf("expected table inside directory, got %s", path)
	}
	rows, err := LoadTable(path, time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("expected empty table, got %v", rows)
	}
}

func TestTableFileName(t *testing.T) {
	t.Parallel()

	day := func(d int) time.Time { return time.Date(2022, 12, d, 0, 0, 0, 0, time.UTC) }
	rows := []model.CandidateURI{{Date: day(24)}, {Date: day(2)}, {Date: day(10)}}

	if got := TableFileName(rows); got != "uris_list_2022-12-02-2022-12-24_3.csv" {
		t.Errorf("unexpected name %q", got)
	}
	if got := TableFileName(nil); got != DefaultTableFile {
		t.Errorf("expected %q for no rows, got %q", DefaultTableFile, got)
	}
}
