// Package main provides the entry point for the contactscan CLI.
//
// contactscan harvests contact details (email addresses and social media
// profiles) from business websites under a small page budget, remembers
// which sites are done, and retries the ones that failed.
//
// Usage:
//
//	contactscan crawl <url>...
//	contactscan enrich --input leads.csv
//	contactscan retry
//
// See --help for all available options.
package main

// main is the entry point for contactscan.
func main() {
	Execute()
}
