package creds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// VaultClient talks to the external credential vault over HTTP. The vault
// refreshes provider tokens itself; we only read the current ones.
type VaultClient struct {
	BaseURL string
	APIKey  string

	HTTP *http.Client
}

type vaultConnectionResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    string `json:"expires_at"`
	InstanceURL  string `json:"instance_url"`
}

func (c *VaultClient) GetCredentials(ctx context.Context, customerID, providerName string) (Credentials, error) {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return Credentials{}, errors.New("vault base url is empty")
	}

	path := fmt.Sprintf("/api/v1/connections/%s/%s/credentials",
		url.PathEscape(customerID), url.PathEscape(providerName))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, base+path, nil)
	if err != nil {
		return Credentials{}, err
	}
	req.Header.Set("Accept", "application/json")
	if key := strings.TrimSpace(c.APIKey); key != "" {
		req.Header.Set("x-api-key", key)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Credentials{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	b, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Credentials{}, err
	}
	if resp.StatusCode == http.StatusNotFound {
		return Credentials{}, &ConfigError{
			CustomerID:   customerID,
			ProviderName: providerName,
			Reason:       "no connection in credential vault",
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Credentials{}, fmt.Errorf("vault http %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}

	var vr vaultConnectionResponse
	if err := json.Unmarshal(b, &vr); err != nil {
		return Credentials{}, err
	}
	if strings.TrimSpace(vr.AccessToken) == "" {
		return Credentials{}, &ConfigError{
			CustomerID:   customerID,
			ProviderName: providerName,
			Reason:       "vault returned empty access token",
		}
	}
	exp, _ := time.Parse(time.RFC3339, strings.TrimSpace(vr.ExpiresAt))
	return Credentials{
		AccessToken:  vr.AccessToken,
		RefreshToken: vr.RefreshToken,
		ExpiresAt:    exp,
		InstanceURL:  strings.TrimRight(vr.InstanceURL, "/"),
	}, nil
}

func (c *VaultClient) httpClient() *http.Client {
	if c.HTTP != nil {
		return c.HTTP
	}
	return http.DefaultClient
}
