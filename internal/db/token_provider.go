package db

import (
	"context"
	"sync"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
// The token is used as the password of each new pooled connection.
type TokenProvider interface {
	// GetToken returns a token and the time it stops being accepted.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It must not include secrets.
	String() string
}

// AzurePostgreSQLScope is the OAuth scope for Azure Database for PostgreSQL.
const AzurePostgreSQLScope = "https://ossrdbms-aad.database.windows.net/.default"

// tokenRefreshWindow is how long before expiry a cached token is replaced.
const tokenRefreshWindow = 5 * time.Minute

// cachedTokenProvider reuses a token across pooled connections until it
// enters the refresh window. Safe for concurrent use.
type cachedTokenProvider struct {
	inner TokenProvider
	now   func() time.Time

	mu        sync.Mutex
	token     string
	expiresOn time.Time
}

func newCachedTokenProvider(inner TokenProvider) *cachedTokenProvider {
	return &cachedTokenProvider{inner: inner, now: time.Now}
}

func (p *cachedTokenProvider) GetToken(ctx context.Context) (string, time.Time, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.token != "" && p.expiresOn.Sub(p.now()) > tokenRefreshWindow {
		return p.token, p.expiresOn, nil
	}

	token, expiresOn, err := p.inner.GetToken(ctx)
	if err != nil {
		return "", time.Time{}, err
	}
	p.token, p.expiresOn = token, expiresOn
	return token, expiresOn, nil
}

func (p *cachedTokenProvider) String() string {
	return p.inner.String()
}
