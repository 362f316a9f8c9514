package oauth

import (
	"fmt"
	"net"
)

// CheckListenAddr refuses to serve unauthenticated requests on anything
// but a loopback address. An empty host such as ":8080" binds every
// interface and is refused too.
func CheckListenAddr(addr string, authenticated bool) error {
	if authenticated {
		return nil
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return fmt.Errorf("invalid listen address %q: %w", addr, err)
	}
	if !isLoopbackHost(host) {
		return fmt.Errorf("refusing to serve without authentication on %q: bind a loopback address such as 127.0.0.1:8080 or set --base-url to enable OAuth", addr)
	}
	return nil
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
