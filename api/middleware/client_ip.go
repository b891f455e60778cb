package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/omanfreight/quote-service/pkg/logger"
)

// ClientIP resolves the caller address once and stores it on the context
// and the request logger.
//
// trustedHops is the number of proxies in front of the service that append to
// X-Forwarded-For. With zero hops the header is ignored and RemoteAddr is used.
// With N hops the client is the Nth entry from the right; entries further
// left are caller supplied and never used.
func ClientIP(trustedHops int, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, trustedHops)
			ctx := WithClientIP(r.Context(), ip)
			if logg != nil {
				ctx = logg.WithClientIP(ctx, ip)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func requestClientIP(r *http.Request) string {
	if ip := ClientIPFromContext(r.Context()); ip != "" {
		return ip
	}
	return clientIP(r, 0)
}

func clientIP(r *http.Request, trustedHops int) string {
	if r == nil {
		return ""
	}
	if trustedHops > 0 {
		if ip := forwardedFor(r.Header.Values("X-Forwarded-For"), trustedHops); ip != "" {
			return ip
		}
	}
	return remoteHost(r.RemoteAddr)
}

// forwardedFor returns the entry trustedHops positions from the right, or ""
// when the chain is shorter than the proxies that should have written it.
func forwardedFor(headers []string, trustedHops int) string {
	var entries []string
	for _, header := range headers {
		for _, part := range strings.Split(header, ",") {
			if ip := strings.TrimSpace(part); ip != "" {
				entries = append(entries, ip)
			}
		}
	}
	idx := len(entries) - trustedHops
	if idx < 0 {
		return ""
	}
	ip := entries[idx]
	if net.ParseIP(ip) == nil {
		return ""
	}
	return ip
}

func remoteHost(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err == nil && host != "" {
		return host
	}
	return addr
}
