package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientKey(t *testing.T) {
	tests := []struct {
		name string
		in   ClientSignals
		want string
	}{
		{"forwarded first hop", ClientSignals{ForwardedFor: " 203.0.113.7 , 10.0.0.1", RemoteAddr: "10.0.0.2:5555", RealIP: "198.51.100.1"}, "203.0.113.7"},
		{"remote host", ClientSignals{RemoteAddr: "192.0.2.10:43120", RealIP: "198.51.100.1"}, "192.0.2.10"},
		{"remote ipv6", ClientSignals{RemoteAddr: "[2001:db8::1]:8080"}, "2001:db8::1"},
		{"remote without port", ClientSignals{RemoteAddr: "192.0.2.10"}, "192.0.2.10"},
		{"real ip", ClientSignals{RealIP: " 198.51.100.1 "}, "198.51.100.1"},
		{"empty forwarded falls through", ClientSignals{ForwardedFor: " , 10.0.0.1", RealIP: "198.51.100.1"}, "198.51.100.1"},
		{"nothing usable", ClientSignals{}, LoopbackKey},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClientKey(tt.in))
		})
	}
}
