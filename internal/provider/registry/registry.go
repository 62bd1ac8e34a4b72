// Package registry constructs provider adapters for live connections. The
// set of supported providers is closed: adding one means adding a package
// and a case here.
package registry

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"unisync/internal/creds"
	"unisync/internal/provider"
	"unisync/internal/provider/apollo"
	"unisync/internal/provider/hubspot"
	"unisync/internal/provider/outreach"
	"unisync/internal/provider/pipedrive"
	"unisync/internal/provider/salesforce"
	"unisync/internal/provider/salesloft"
)

const defaultTimeout = 30 * time.Second

type Builder struct {
	Creds   creds.Source
	Timeout time.Duration
	// BaseURLs overrides a provider's API host, mainly for tests and
	// sandbox tenants. Salesforce ignores it: its host comes from the
	// connection's instance URL.
	BaseURLs map[string]string
	Logger   *zap.Logger
}

func (b *Builder) timeout() time.Duration {
	if b.Timeout > 0 {
		return b.Timeout
	}
	return defaultTimeout
}

func (b *Builder) baseURL(providerName string) string {
	if b.BaseURLs == nil {
		return ""
	}
	return b.BaseURLs[providerName]
}

// Adapter resolves credentials for the connection and builds the matching
// adapter. Unknown providers and unusable connections come back as
// creds.ConfigError.
func (b *Builder) Adapter(ctx context.Context, customerID, providerName string) (provider.Adapter, error) {
	c, err := b.Creds.GetCredentials(ctx, customerID, providerName)
	if err != nil {
		return nil, err
	}
	hc := creds.AuthenticatedClient(c, b.timeout())
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	switch providerName {
	case "salesforce":
		if c.InstanceURL == "" {
			return nil, &creds.ConfigError{
				CustomerID:   customerID,
				ProviderName: providerName,
				Reason:       "missing instance URL",
			}
		}
		return salesforce.New(hc, c.InstanceURL, logger), nil
	case "hubspot":
		return hubspot.New(hc, b.baseURL(providerName), logger), nil
	case "pipedrive":
		return pipedrive.New(hc, b.baseURL(providerName), logger), nil
	case "outreach":
		return outreach.New(hc, b.baseURL(providerName), logger), nil
	case "salesloft":
		return salesloft.New(hc, b.baseURL(providerName), logger), nil
	case "apollo":
		return apollo.New(apolloClient(hc, c.AccessToken), b.baseURL(providerName), logger), nil
	}
	return nil, &creds.ConfigError{
		CustomerID:   customerID,
		ProviderName: providerName,
		Reason:       "unsupported provider",
	}
}

// apolloClient swaps the bearer header for Apollo's api key header.
func apolloClient(hc *http.Client, key string) *http.Client {
	return &http.Client{
		Timeout:   hc.Timeout,
		Transport: &apolloTransport{key: key, base: http.DefaultTransport},
	}
}

type apolloTransport struct {
	key  string
	base http.RoundTripper
}

func (t *apolloTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("X-Api-Key", t.key)
	return t.base.RoundTrip(clone)
}
