// Package proxy provides outbound proxy rotation for contactscan.
//
// A Pool holds the configured endpoints (http, https, socks5) and hands them
// out round-robin; an empty pool means every request connects directly.
// Transports turns an endpoint into a cached *http.Transport:
//
//	pool, err := proxy.NewPool([]string{"http://10.0.0.1:8080", "socks5://127.0.0.1:1080"})
//	transports := proxy.NewTransports(cfg.InsecureSkipVerify)
//	tr, err := transports.For(pool.Next())
//
// Endpoint passwords are never returned in clear text by Endpoints; use the
// log package's SecureHandler to keep them out of log output as well.
package proxy
