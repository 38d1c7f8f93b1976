package server

import (
	"net/url"
)

// IsTrustedLocalOrigin reports whether a request's declared Origin value
// refers to the local machine.
//
// The origin is parsed as a URL and its host field is compared exactly
// against "localhost" and "127.0.0.1". Substring or suffix matching is
// deliberately avoided: hosts like "localhost.attacker.com" or
// "127.0.0.1.attacker.com" would pass a naive contains-check and open the
// server to DNS rebinding from the browser. Any port is accepted; any
// other host, including other loopback addresses such as 127.0.0.2, is
// rejected. Malformed or empty origins return false.
func IsTrustedLocalOrigin(origin string) bool {
	if origin == "" {
		return false
	}

	u, err := url.Parse(origin)
	if err != nil {
		return false
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}

	host := u.Hostname()
	return host == "localhost" || host == "127.0.0.1"
}
