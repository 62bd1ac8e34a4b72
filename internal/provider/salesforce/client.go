package salesforce

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"unisync/internal/provider"
)

// Hard-coded for now; to see available versions visit $instanceUrl/services/data.
const apiVersion = "59.0"

// Client wraps the Salesforce REST query endpoint for one tenant instance.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client rooted at the connection's instance URL. The
// http.Client must already carry authentication.
func NewClient(httpClient *http.Client, instanceURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(instanceURL, "/") + "/services/data/v" + apiVersion,
		httpClient: httpClient,
	}
}

type QueryResponse struct {
	TotalSize int              `json:"totalSize"`
	Done      bool             `json:"done"`
	Records   []map[string]any `json:"records"`
}

// Query runs a SOQL statement.
func (c *Client) Query(ctx context.Context, soql string) (*QueryResponse, error) {
	q := url.Values{}
	q.Set("q", soql)
	var out QueryResponse
	err := provider.DoJSON(ctx, c.httpClient, "salesforce", http.MethodGet, c.baseURL+"/query?"+q.Encode(), nil, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}
