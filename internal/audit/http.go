package audit

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller address recorded on audit entries. The
// station gateway sits behind a reverse proxy, so the forwarding headers
// win over RemoteAddr; the first X-Forwarded-For hop is the client.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return strings.TrimSpace(realIP)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil {
		return host
	}
	return r.RemoteAddr
}
