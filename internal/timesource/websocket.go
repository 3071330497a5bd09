// ABOUTME: WebSocket-upgrade strategy reading the time header from the handshake response
// ABOUTME: The upgrade is expected to be refused; the refusal still carries the header
package timesource

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// WebSocket issues a WebSocket opening handshake per fetch and reads the
// time header from whatever response the server sends back.
type WebSocket struct {
	endpoint Endpoint
	dialer   *websocket.Dialer
}

// NewWebSocket creates a websocket-upgrade source against the missing path.
func NewWebSocket(endpoint Endpoint) *WebSocket {
	return &WebSocket{
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: endpoint.Timeout,
			TLSClientConfig:  &tls.Config{InsecureSkipVerify: endpoint.InsecureSkipVerify},
		},
	}
}

// ID implements Source.
func (w *WebSocket) ID() StrategyID { return StrategyWebSocket }

// FetchRaw implements Source.
func (w *WebSocket) FetchRaw(ctx context.Context) (string, error) {
	scheme := "wss"
	if w.endpoint.scheme() == "http" {
		scheme = "ws"
	}
	u := url.URL{Scheme: scheme, Host: w.endpoint.Host, Path: w.endpoint.missingPath()}

	var header http.Header
	if w.endpoint.UserAgent != "" {
		header = http.Header{"User-Agent": []string{w.endpoint.UserAgent}}
	}

	conn, resp, err := w.dialer.DialContext(ctx, u.String(), header)
	if conn != nil {
		conn.Close()
	}
	if resp == nil {
		if err == nil {
			err = fmt.Errorf("%w: handshake returned no response", errMalformed)
		}
		return "", err
	}
	if err != nil && !errors.Is(err, websocket.ErrBadHandshake) {
		return "", err
	}

	return readHeader(resp.Header, w.endpoint.header())
}
