package google

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

// OOB is the out-of-band redirect URI used when the client credentials do not
// declare one. The user copies the authorization code back manually.
const OOB = "urn:ietf:wg:oauth:2.0:oob"

// Authorizer manages the Google OAuth flow and per-account token persistence.
// Tokens are cached as JSON files under the user cache directory, one file per
// account, and refreshed transparently by the oauth2 token source.
type Authorizer struct {
	conf     *oauth2.Config
	cacheDir string

	mu        sync.Mutex
	onRefresh func(err error)
}

// NewAuthorizer creates an Authorizer from canonical client credentials.
func NewAuthorizer(creds *ClientCredentials) *Authorizer {
	redirectURL := OOB
	if len(creds.RedirectURIs) > 0 {
		redirectURL = creds.RedirectURIs[0]
	}

	return &Authorizer{
		conf: &oauth2.Config{
			ClientID:     creds.ClientID,
			ClientSecret: creds.ClientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  redirectURL,
			Scopes: []string{
				calendar.CalendarScope,
				calendar.CalendarEventsScope,
			},
		},
		cacheDir: filepath.Join(userCacheDir(), "gcalmcp"),
	}
}

// AuthURLForAccount returns the OAuth URL for user authorization.
func (a *Authorizer) AuthURLForAccount(account string) string {
	return a.conf.AuthCodeURL(account, oauth2.AccessTypeOffline)
}

// SaveAuthCode exchanges an authorization code for tokens and caches them
// for the given account.
func (a *Authorizer) SaveAuthCode(ctx context.Context, account, authCode string) error {
	token, err := a.conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	if err := os.MkdirAll(a.cacheDir, 0700); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(a.tokenFile(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// HasTokenForAccount checks whether a cached token exists for the account.
func (a *Authorizer) HasTokenForAccount(account string) bool {
	if account == "" {
		return false
	}
	_, err := os.Stat(a.tokenFile(account))
	return err == nil
}

// SetRefreshObserver installs a callback invoked after each token refresh
// attempt, with a nil error on success. Used for metrics.
func (a *Authorizer) SetRefreshObserver(observer func(err error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.onRefresh = observer
}

func (a *Authorizer) notifyRefresh(err error) {
	a.mu.Lock()
	observer := a.onRefresh
	a.mu.Unlock()
	if observer != nil {
		observer(err)
	}
}

// TokenSourceForAccount returns an auto-refreshing token source backed by the
// cached token for the account. Refreshed tokens are persisted back to the
// cache so restarts pick up the newest refresh token.
func (a *Authorizer) TokenSourceForAccount(ctx context.Context, account string) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(a.tokenFile(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %s", account)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}

	return &persistingTokenSource{
		src:        a.conf.TokenSource(ctx, &token),
		authorizer: a,
		account:    account,
		lastAccess: token.AccessToken,
	}, nil
}

// persistingTokenSource wraps a token source, writing refreshed tokens back
// to the account's cache file and notifying the refresh observer.
type persistingTokenSource struct {
	src        oauth2.TokenSource
	authorizer *Authorizer
	account    string

	mu         sync.Mutex
	lastAccess string
}

func (p *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := p.src.Token()
	if err != nil {
		p.authorizer.notifyRefresh(err)
		return nil, err
	}

	p.mu.Lock()
	refreshed := token.AccessToken != p.lastAccess
	if refreshed {
		p.lastAccess = token.AccessToken
	}
	p.mu.Unlock()

	if refreshed {
		p.authorizer.notifyRefresh(nil)
		if data, err := json.Marshal(token); err == nil {
			_ = os.WriteFile(p.authorizer.tokenFile(p.account), data, 0600)
		}
	}

	return token, nil
}

// HTTPClientForAccount returns an HTTP client that authenticates requests with
// the account's OAuth token. The client is pinned to HTTP/1.1 to avoid HTTP/2
// protocol errors against the Google APIs.
func (a *Authorizer) HTTPClientForAccount(ctx context.Context, account string) (*http.Client, error) {
	ts, err := a.TokenSourceForAccount(ctx, account)
	if err != nil {
		return nil, err
	}

	client := oauth2.NewClient(ctx, ts)

	transport := client.Transport.(*oauth2.Transport)
	transport.Base = &http.Transport{
		ForceAttemptHTTP2: false,
	}

	return client, nil
}

func (a *Authorizer) tokenFile(account string) string {
	return filepath.Join(a.cacheDir, fmt.Sprintf("google-%s.token", account))
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(os.Getenv("HOME"), ".cache")
}
