package shared

import (
	"net"
	"strings"
)

// ClientAddress resolves the originating client address from proxy
// headers. The service sits behind a single trusted reverse proxy, so the
// leftmost X-Forwarded-For entry is taken at face value; no verification
// of the header is attempted. Falls back to X-Real-IP, then the transport
// peer, then the sentinel address. Never fails.
func ClientAddress(forwardedFor, realIP, remoteAddr string) string {
	if forwardedFor != "" {
		first, _, _ := strings.Cut(forwardedFor, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP != "" {
		return realIP
	}

	if remoteAddr != "" {
		if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
			return host
		}
		return remoteAddr
	}

	return SentinelAddress
}
