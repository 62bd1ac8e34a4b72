package creds

import (
	"context"
	"strings"
)

// StaticSource serves credentials from configuration. Meant for dev and for
// single-tenant deployments that do not run a vault.
type StaticSource struct {
	byKey map[string]Credentials
}

func NewStaticSource() *StaticSource {
	return &StaticSource{byKey: map[string]Credentials{}}
}

func (s *StaticSource) Add(customerID, providerName string, c Credentials) {
	s.byKey[staticKey(customerID, providerName)] = c
}

func (s *StaticSource) GetCredentials(ctx context.Context, customerID, providerName string) (Credentials, error) {
	c, ok := s.byKey[staticKey(customerID, providerName)]
	if !ok || strings.TrimSpace(c.AccessToken) == "" {
		return Credentials{}, &ConfigError{
			CustomerID:   customerID,
			ProviderName: providerName,
			Reason:       "no static credentials configured",
		}
	}
	return c, nil
}

func staticKey(customerID, providerName string) string {
	return customerID + "/" + providerName
}
