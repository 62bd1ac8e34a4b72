package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a non-2xx answer from a provider. Adapters never retry; the
// orchestration layer (or the scheduler re-invoking it) decides, using
// Transient to tell rate limits and outages apart from hard failures.
type APIError struct {
	Provider string
	Status   int
	Body     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (%d): %s", e.Provider, e.Status, e.Body)
}

func (e *APIError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// NotImplementedError reports a capability the provider does not offer.
type NotImplementedError struct {
	Provider  string
	Operation string
}

func (e *NotImplementedError) Error() string {
	return fmt.Sprintf("%s provider does not implement %s", e.Provider, e.Operation)
}

// IsNotImplemented reports whether err is a missing-capability error.
func IsNotImplemented(err error) bool {
	var nie *NotImplementedError
	return errors.As(err, &nie)
}

// IsTransient reports whether err is worth retrying by an external scheduler.
func IsTransient(err error) bool {
	var ae *APIError
	return errors.As(err, &ae) && ae.Transient()
}
