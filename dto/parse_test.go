package dto

import "testing"

func TestParseRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https url", "https://example.com/recipes/42", false},
		{"valid http url", "http://example.com/", false},
		{"empty url", "", true},
		{"not a url", "not a url", true},
		{"missing scheme", "example.com/recipe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ParseRequest{URL: tt.url}.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestBlockIPRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		req     BlockIPRequest
		wantErr bool
	}{
		{"valid ipv4", BlockIPRequest{IPAddress: "203.0.113.7", Reason: "abuse"}, false},
		{"valid ipv6", BlockIPRequest{IPAddress: "2001:db8::1", Reason: "abuse"}, false},
		{"with duration", BlockIPRequest{IPAddress: "203.0.113.7", Reason: "abuse", DurationMinutes: 60}, false},
		{"not an ip", BlockIPRequest{IPAddress: "example.com", Reason: "abuse"}, true},
		{"missing reason", BlockIPRequest{IPAddress: "203.0.113.7"}, true},
		{"negative duration", BlockIPRequest{IPAddress: "203.0.113.7", Reason: "abuse", DurationMinutes: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
