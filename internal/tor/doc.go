// Package tor runs an embedded Tor daemon for contactscan.
//
// When --tor is given, the crawl commands start a daemon through tornago and
// register its SOCKS5 listener with the proxy pool, so a share of the
// requests leaves through the Tor network alongside any configured proxies.
//
// Design decision: We use tornago instead of requiring a system Tor
// installation because the daemon lifecycle (ports, bootstrap, shutdown) is
// then owned by the process that needs it, and the feature works without
// setup on machines that have never run Tor.
//
// The daemon only supplies an endpoint; dialing and transport construction
// stay in the proxy package, which already speaks SOCKS5.
package tor
