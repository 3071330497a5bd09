// ABOUTME: Fresh-connection strategy using a high-level HTTP client
// ABOUTME: Opens a new connection for every request, no reuse
package timesource

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
)

// Fresh dials a new connection for every fetch.
type Fresh struct {
	endpoint Endpoint
	client   *http.Client
}

// NewFresh creates a fresh-connection source for the endpoint's real path.
func NewFresh(endpoint Endpoint) *Fresh {
	transport := &http.Transport{
		Proxy:             http.ProxyFromEnvironment,
		DisableKeepAlives: true,
		TLSClientConfig:   &tls.Config{InsecureSkipVerify: endpoint.InsecureSkipVerify},
	}

	return &Fresh{
		endpoint: endpoint,
		client: &http.Client{
			Transport: transport,
			Timeout:   endpoint.Timeout,
		},
	}
}

// ID implements Source.
func (f *Fresh) ID() StrategyID { return StrategyFresh }

// FetchRaw implements Source.
func (f *Fresh) FetchRaw(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.endpoint.URL(f.endpoint.path()), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	f.endpoint.decorate(req)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return readHeader(resp.Header, f.endpoint.header())
}
