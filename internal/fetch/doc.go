// Package fetch builds the HTTP client used to download school websites.
//
// The client can route through a SOCKS5 proxy (for example an SSH tunnel or
// a corporate egress proxy) using golang.org/x/net/proxy. Redirects are
// limited, and when the limit is reached the last response is returned
// instead of an error, so callers see an ordinary non-2xx status.
package fetch
