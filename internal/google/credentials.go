package google

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// ErrInvalidCredentialsFormat is returned when an OAuth client credentials
// payload is not valid JSON or does not contain a usable client shape.
var ErrInvalidCredentialsFormat = errors.New("invalid credentials format")

// ClientCredentials is the canonical OAuth client credential record.
// It is constructed once at configuration-load time and never mutated.
type ClientCredentials struct {
	ClientID     string   `json:"client_id"`
	ClientSecret string   `json:"client_secret"`
	RedirectURIs []string `json:"redirect_uris,omitempty"`
}

// complete reports whether both required fields are present.
func (c *ClientCredentials) complete() bool {
	return c != nil && c.ClientID != "" && c.ClientSecret != ""
}

// ParseClientCredentials extracts client credentials from a raw JSON payload.
//
// Google's credential downloads nest the client under an "installed" (desktop
// app) or "web" (web app) key, while hand-written configs often put the fields
// at the top level. The shapes are checked in that order and the first one
// that yields both a non-empty client_id and client_secret wins.
func ParseClientCredentials(data []byte) (*ClientCredentials, error) {
	var payload struct {
		Installed *ClientCredentials `json:"installed"`
		Web       *ClientCredentials `json:"web"`
		ClientCredentials
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentialsFormat, err)
	}

	for _, candidate := range []*ClientCredentials{payload.Installed, payload.Web, &payload.ClientCredentials} {
		if candidate.complete() {
			return &ClientCredentials{
				ClientID:     candidate.ClientID,
				ClientSecret: candidate.ClientSecret,
				RedirectURIs: candidate.RedirectURIs,
			}, nil
		}
	}

	return nil, ErrInvalidCredentialsFormat
}

// LoadClientCredentials reads and parses an OAuth client credentials file.
func LoadClientCredentials(path string) (*ClientCredentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file %s: %w", path, err)
	}
	return ParseClientCredentials(data)
}
