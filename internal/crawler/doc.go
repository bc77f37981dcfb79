// Package crawler walks one website at a time looking for contact details.
//
// # Architecture
//
// A Crawler owns the shared pieces (page fetcher, completion store, content
// extractor, link prioritizer and the set of failed URLs). Each call to
// Crawl or Run creates a private session holding the frontier, the visited
// set and the contacts found so far, so concurrent calls never share
// traversal state.
//
// Design decision: We implement our own traversal rather than using a
// crawling framework because:
//  1. Only three links per page are followed, chosen by a scoring table
//  2. The page budget is a depth bound, not a page counter
//  3. Failure handling feeds a site-level retry pass
//
// # Components
//
//   - Crawler: runs sessions and records failed URLs
//   - Prioritizer: scores links with a weighted rule table and keeps the best
//   - Parser: extracts anchors and their text with golang.org/x/net/html
//
// # Traversal
//
// The frontier is a stack. The root is fetched first; the top-ranked links
// of every fetched page are pushed in reverse so the best one is explored
// completely before the next:
//
//	root ─┬─ /contact (3) ─── /contact/team (3)
//	      ├─ /about   (3)
//	      └─ /help    (2)
//
// Only links on the root's registrable domain are followed, and a URL is
// fetched at most once per session.
//
// # Usage
//
//	c := crawler.New(fetcher.New(), crawler.WithStore(store))
//	bundle := c.Crawl(ctx, "https://acme.com", 5)
package crawler
