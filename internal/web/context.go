package web

import (
	"net"
	"net/http"

	"github.com/JonMunkholm/salesdash/internal/core"
)

// requestMeta extracts the client details recorded in the upload log.
// RemoteAddr has already been resolved by TrustedRealIP.
func requestMeta(r *http.Request) core.RequestMeta {
	return core.RequestMeta{
		IPAddress: clientIP(r),
		UserAgent: r.UserAgent(),
	}
}

// clientIP returns RemoteAddr without its port.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
