package shared

import "testing"

func TestClientAddress(t *testing.T) {
	tests := []struct {
		name         string
		forwardedFor string
		realIP       string
		remoteAddr   string
		want         string
	}{
		{
			name:         "forwarded for single entry",
			forwardedFor: "203.0.113.7",
			remoteAddr:   "10.0.0.1:4312",
			want:         "203.0.113.7",
		},
		{
			name:         "forwarded for chain keeps leftmost",
			forwardedFor: "203.0.113.7, 70.41.3.18, 150.172.238.178",
			remoteAddr:   "10.0.0.1:4312",
			want:         "203.0.113.7",
		},
		{
			name:         "forwarded for with leading space",
			forwardedFor: " 203.0.113.7 ,70.41.3.18",
			want:         "203.0.113.7",
		},
		{
			name:       "real ip fallback",
			realIP:     "203.0.113.8",
			remoteAddr: "10.0.0.1:4312",
			want:       "203.0.113.8",
		},
		{
			name:       "remote addr strips port",
			remoteAddr: "203.0.113.9:51423",
			want:       "203.0.113.9",
		},
		{
			name:       "remote addr without port",
			remoteAddr: "203.0.113.9",
			want:       "203.0.113.9",
		},
		{
			name:       "ipv6 remote addr",
			remoteAddr: "[2001:db8::1]:51423",
			want:       "2001:db8::1",
		},
		{
			name: "nothing known yields sentinel",
			want: SentinelAddress,
		},
		{
			name:         "forwarded for only commas yields real ip",
			forwardedFor: " , ",
			realIP:       "203.0.113.10",
			want:         "203.0.113.10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClientAddress(tt.forwardedFor, tt.realIP, tt.remoteAddr)
			if got != tt.want {
				t.Errorf("ClientAddress(%q, %q, %q) = %q, want %q",
					tt.forwardedFor, tt.realIP, tt.remoteAddr, got, tt.want)
			}
		})
	}
}
