// Package sitemap turns a date range into the list of article URIs the
// news site published in it.
//
// The site keeps one gzip-compressed sitemap per calendar month. The
// Resolver enumerates the months a range touches, downloads each archive,
// extracts every listed location and keeps the news articles whose
// embedded date lies strictly inside the range. The result is written as a
// CSV table that the download phase reads back.
package sitemap
