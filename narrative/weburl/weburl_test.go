package weburl

import (
	"net"
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"valid https URL", "https://www.gutenberg.org/files/1342/1342-0.txt", false},
		{"http URL rejected", "http://example.com/story", true},
		{"localhost rejected", "https://localhost:8080/story", true},
		{"127.0.0.1 rejected", "https://127.0.0.1/story", true},
		{".local domain rejected", "https://myserver.local/story", true},
		{".internal domain rejected", "https://app.internal/story", true},
		{"private IP 192.168.x.x rejected", "https://192.168.1.1/story", true},
		{"private IP 10.x.x.x rejected", "https://10.0.0.1/story", true},
		{"CGNAT IP rejected", "https://100.64.0.1/story", true},
		{"invalid URL", "not-a-url", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestIsPrivateIP(t *testing.T) {
	tests := []struct {
		ip   string
		want bool
	}{
		{"192.168.1.1", true},
		{"10.0.0.1", true},
		{"172.16.0.1", true},
		{"127.0.0.1", true},
		{"169.254.1.1", true},
		{"100.64.0.1", true},
		{"::1", true},
		{"fc00::1", true},
		{"fe80::1", true},
		{"::ffff:192.168.1.1", true},
		{"8.8.8.8", false},
		{"1.1.1.1", false},
		{"2607:f8b0::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.ip, func(t *testing.T) {
			ip := net.ParseIP(tt.ip)
			if ip == nil {
				t.Fatalf("failed to parse IP %q", tt.ip)
			}
			if got := IsPrivateIP(ip); got != tt.want {
				t.Errorf("IsPrivateIP(%q) = %v, want %v", tt.ip, got, tt.want)
			}
		})
	}
}

func TestGenerateNarrativeID(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			"domain and path",
			"https://example.com/stories/the-fall",
			"narrative.web.example-com-stories-the-fall",
		},
		{
			"domain only",
			"https://example.com",
			"narrative.web.example-com",
		},
		{
			"trailing slash ignored",
			"https://example.com/story/",
			"narrative.web.example-com-story",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GenerateNarrativeID(tt.url)
			if got != tt.want {
				t.Errorf("GenerateNarrativeID(%q) = %q, want %q", tt.url, got, tt.want)
			}
			if !ValidateNarrativeID(got) {
				t.Errorf("generated ID %q fails validation", got)
			}
		})
	}
}

func TestGenerateNarrativeID_Deterministic(t *testing.T) {
	a := GenerateNarrativeID("https://example.com/story")
	b := GenerateNarrativeID("https://example.com/story")
	if a != b {
		t.Errorf("IDs differ: %q vs %q", a, b)
	}
}

func TestValidateNarrativeID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"narrative.web.example-com", true},
		{"narrative.web.a1-b2", true},
		{"narrative.web.", false},
		{"narrative.web.UPPER", false},
		{"source.web.example-com", false},
		{"narrative.web.bad.subject", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := ValidateNarrativeID(tt.id); got != tt.want {
				t.Errorf("ValidateNarrativeID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
