package middleware

import (
	"net"
	"net/http"
	"strings"

	goGate "github.com/MrEthical07/goGate"
)

// ClientInfo returns middleware that attaches the caller's IP address and
// User-Agent to the request context. With trustProxy set, the first address
// in X-Forwarded-For wins over the connection's remote address.
func ClientInfo(trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := goGate.WithClientIP(r.Context(), ClientIP(r, trustProxy))
			if ua := r.UserAgent(); ua != "" {
				ctx = goGate.WithUserAgent(ctx, ua)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClientIP extracts the caller address from r.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
