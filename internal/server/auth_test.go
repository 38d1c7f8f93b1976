package server

import (
	"net/http"
	"testing"
)

func headerWithAuth(value string) http.Header {
	h := http.Header{}
	h.Set("Authorization", value)
	return h
}

func TestBearerAuthorized_WithSecret(t *testing.T) {
	const secret = "my-secret-token"

	tests := []struct {
		name       string
		headers    http.Header
		authorized bool
	}{
		{"correct bearer token", headerWithAuth("Bearer my-secret-token"), true},
		{"raw token without prefix", headerWithAuth("my-secret-token"), true},
		{"absent header", http.Header{}, false},
		{"empty header value", headerWithAuth(""), false},
		{"wrong token", headerWithAuth("Bearer wrong-token"), false},
		{"double space after prefix", headerWithAuth("Bearer  my-secret-token"), false},
		{"lowercase prefix", headerWithAuth("bearer my-secret-token"), false},
		{"case-mismatched token", headerWithAuth("Bearer MY-SECRET-TOKEN"), false},
		{"trailing whitespace", headerWithAuth("Bearer my-secret-token "), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BearerAuthorized(tt.headers, secret); got != tt.authorized {
				t.Errorf("BearerAuthorized() = %v, expected %v", got, tt.authorized)
			}
		})
	}
}

func TestBearerAuthorized_NoSecretConfigured(t *testing.T) {
	// With no secret, auth is disabled and every request passes.
	if !BearerAuthorized(http.Header{}, "") {
		t.Error("expected request without headers to be authorized when no secret is configured")
	}
	if !BearerAuthorized(headerWithAuth("Bearer anything"), "") {
		t.Error("expected request with arbitrary token to be authorized when no secret is configured")
	}
}
