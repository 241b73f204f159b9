package ranking

import (
	"net"
	"strings"
)

// LoopbackKey is used when a request carries no usable client identity.
const LoopbackKey = "127.0.0.1"

// ClientSignals carries the request attributes a client key is derived from.
type ClientSignals struct {
	ForwardedFor string // X-Forwarded-For
	RemoteAddr   string // direct connection address, host:port
	RealIP       string // X-Real-IP
}

// ClientKey picks the first usable identity: the first X-Forwarded-For hop, the connection host,
// then X-Real-IP. It never fails.
func ClientKey(s ClientSignals) string {
	if first, _, _ := strings.Cut(s.ForwardedFor, ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if addr := strings.TrimSpace(s.RemoteAddr); addr != "" {
		if host, _, err := net.SplitHostPort(addr); err == nil {
			if host != "" {
				return host
			}
		} else {
			return addr
		}
	}
	if ip := strings.TrimSpace(s.RealIP); ip != "" {
		return ip
	}
	return LoopbackKey
}
