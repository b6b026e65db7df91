package common

import (
	"net"
	"net/http"
	"strings"
)

// GetIPAddr returns the client address, preferring the first hop recorded in
// X-Forwarded-For when the service runs behind a proxy.
func GetIPAddr(r *http.Request) string {

	headerIP := r.Header.Get("X-Forwarded-For")
	if headerIP == "" {
		return fetchRemoteIPAddr(r.RemoteAddr)
	}
	if i := strings.IndexByte(headerIP, ','); i >= 0 {
		headerIP = headerIP[:i]
	}
	return strings.TrimSpace(headerIP)
}

func fetchRemoteIPAddr(addr string) string {
	if strings.Contains(addr, "[::1]") {
		return "127.0.0.1"
	}
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}
