// Package fetcher performs the HTTP GETs of the contact harvester.
//
// A single Fetch call makes up to N attempts against one URL:
//
//	attempt 1 ── 200 ──> success
//	    │
//	    ├─ 429 ──────> sleep base*attempt*2 ──> attempt 2 ...
//	    └─ other/err ─> sleep base*2^(attempt-1)+jitter ──> attempt 2 ...
//
// Each attempt takes the next endpoint from a proxy.Pool (or connects
// directly when the pool is empty) and sends a User-Agent picked at random
// from a small pool of desktop browser strings. Response bodies are decoded
// to UTF-8 with golang.org/x/net/html/charset so pattern matching downstream
// works on legacy-encoded pages too.
//
// Failures are reported through Outcome, never as a Go error: running out
// of attempts is a normal result the crawler records and moves past.
package fetcher
