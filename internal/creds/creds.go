// Package creds resolves provider credentials for a connection. The vault
// that stores and refreshes tokens is an external system; this package only
// consumes it and turns its answers into a ready-to-use HTTP transport.
package creds

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Credentials is what the vault hands back for one connection.
type Credentials struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	// InstanceURL is set for providers with per-tenant hosts (salesforce).
	InstanceURL string `json:"instance_url"`
}

// Source resolves credentials for a (customer, provider) connection.
type Source interface {
	GetCredentials(ctx context.Context, customerID, providerName string) (Credentials, error)
}

// ConfigError is a setup problem (missing connection, missing credentials).
// It fails a sync before any page is fetched and is not retried.
type ConfigError struct {
	CustomerID   string
	ProviderName string
	Reason       string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("connection %s/%s: %s", e.CustomerID, e.ProviderName, e.Reason)
}

// bearerTransport injects the access token into every outbound request.
type bearerTransport struct {
	token string
	base  http.RoundTripper
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+t.token)
	return t.base.RoundTrip(clone)
}

// AuthenticatedClient builds an HTTP client whose requests carry the
// connection's bearer token. Adapters receive this, never raw credentials.
func AuthenticatedClient(c Credentials, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &bearerTransport{
			token: c.AccessToken,
			base:  http.DefaultTransport,
		},
	}
}
