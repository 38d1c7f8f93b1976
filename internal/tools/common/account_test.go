package common

import (
	"testing"
)

func TestAccountFromArgs(t *testing.T) {
	tests := []struct {
		name     string
		args     map[string]interface{}
		expected string
	}{
		{
			name:     "no account provided",
			args:     map[string]interface{}{},
			expected: "default",
		},
		{
			name: "account provided",
			args: map[string]interface{}{
				"account": "work@example.com",
			},
			expected: "work@example.com",
		},
		{
			name: "empty account string",
			args: map[string]interface{}{
				"account": "",
			},
			expected: "default",
		},
		{
			name: "non-string account value",
			args: map[string]interface{}{
				"account": 123,
			},
			expected: "default",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := AccountFromArgs(tt.args)
			if result != tt.expected {
				t.Errorf("AccountFromArgs() = %v, expected %v", result, tt.expected)
			}
		})
	}
}

func TestValidAccountName(t *testing.T) {
	tests := []struct {
		name     string
		account  string
		expected bool
	}{
		{"simple name", "default", true},
		{"email", "work@example.com", true},
		{"digits and punctuation", "team-2.backup_a", true},
		{"empty", "", false},
		{"uppercase rejected", "Work", false},
		{"spaces rejected", "my account", false},
		{"path traversal rejected", "../etc/passwd", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidAccountName(tt.account); got != tt.expected {
				t.Errorf("ValidAccountName(%q) = %v, expected %v", tt.account, got, tt.expected)
			}
		})
	}
}
