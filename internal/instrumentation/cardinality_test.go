package instrumentation

import "testing"

func TestExtractUserDomain(t *testing.T) {
	tests := []struct {
		email    string
		expected string
	}{
		{"jane@example.com", "example.com"},
		{"work@corp.example.org", "corp.example.org"},
		{"invalid", "unknown"},
		{"trailing@", "unknown"},
		{"@domain.only", "domain.only"},
		{"two@at@signs", "unknown"},
		{"", "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := ExtractUserDomain(tt.email); got != tt.expected {
				t.Errorf("ExtractUserDomain(%q) = %q, expected %q", tt.email, got, tt.expected)
			}
		})
	}
}
