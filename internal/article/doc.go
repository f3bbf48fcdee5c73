// Package article extracts structured records from article pages and tag
// index pages of the news site.
package article
