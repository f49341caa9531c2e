package ratelimit

import (
	"net"
	"net/http"
	"strings"
)

// Proxy headers consulted in order before falling back to the transport-level
// peer address.
var clientIPHeaders = []string{
	"X-Forwarded-For",
	"Proxy-Client-IP",
	"WL-Proxy-Client-IP",
	"HTTP_CLIENT_IP",
	"HTTP_X_FORWARDED_FOR",
}

// ClientIP resolves the rate-limit key for a request. Empty and "unknown"
// header values are treated as absent; a comma-separated forwarding chain
// yields its first entry.
func ClientIP(r *http.Request) string {
	for _, header := range clientIPHeaders {
		value := r.Header.Get(header)
		if isAbsent(value) {
			continue
		}
		return firstForwardedAddr(value)
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func isAbsent(value string) bool {
	trimmed := strings.TrimSpace(value)
	return trimmed == "" || strings.EqualFold(trimmed, "unknown")
}

func firstForwardedAddr(value string) string {
	if idx := strings.IndexByte(value, ','); idx != -1 {
		value = value[:idx]
	}
	return strings.TrimSpace(value)
}
