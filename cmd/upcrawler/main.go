// Package main provides the entry point for the upcrawler CLI.
//
// upcrawler downloads Ukrainska Pravda news articles published in a date
// range, in every available translation, and stores them as JSON records
// grouped by article.
//
// Usage:
//
//	upcrawler crawl --from "3 days ago" --to yesterday -o ./data
//	upcrawler uris --from 2023-12-01 --to 2023-12-31 -o ./data
//	upcrawler download -i ./data/uris.csv -o ./data
//	upcrawler export -i ./data -o ./articles.csv
//
// See --help for all available options.
package main

func main() {
	Execute()
}
