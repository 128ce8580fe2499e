package domain

import (
	"net"
	"net/http"
	"strings"
)

// RequestMeta is the request-derived part of an event.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

// MetaFromRequest prefers the first X-Forwarded-For entry, then X-Real-IP,
// then the peer address.
func MetaFromRequest(r *http.Request) RequestMeta {
	if r == nil {
		return RequestMeta{}
	}
	return RequestMeta{
		IPAddress: ClientIP(r.Header, r.RemoteAddr),
		UserAgent: r.Header.Get("User-Agent"),
	}
}

func ClientIP(header http.Header, remoteAddr string) string {
	if forwarded := header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if realIP := strings.TrimSpace(header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
