// Package main provides the entry point for the quarry CLI.
//
// Quarry is a bounded, polite web crawler and extractor. It visits pages
// breadth-first from a seed URL, renders them, and pulls typed records
// (headlines, prices, contacts, social links, custom selector matches)
// out of the rendered HTML.
//
// Usage:
//
//	quarry serve
//	quarry crawl <seed-url>
//
// See --help for all available options.
package main

// main is the entry point for quarry.
func main() {
	Execute()
}
