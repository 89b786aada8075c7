package chi

import (
	"net"
	"net/http"
	"strings"
)

// ClientID identifies the caller for quota accounting: the X-Forwarded-For
// header verbatim when present, else the peer address without its port.
func ClientID(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		return xff
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
