// ABOUTME: Remote time source contract and shared endpoint configuration
// ABOUTME: Every strategy reads the server's time header over a different HTTP transport
package timesource

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StrategyID names one transport strategy. It is the grouping key in benchmark reports.
type StrategyID string

const (
	StrategyFresh      StrategyID = "fresh-client"
	StrategySession    StrategyID = "session-reuse"
	StrategyPersistent StrategyID = "persistent-conn"
	StrategyWebSocket  StrategyID = "websocket-upgrade"
)

// DefaultHeader is the response header carrying the server's current time.
const DefaultHeader = "Date"

// ErrMissingHeader is returned when a response has no time header.
var ErrMissingHeader = errors.New("time header missing from response")

// Source fetches one raw time header value from a remote endpoint.
// Implementations are not safe for concurrent use.
type Source interface {
	ID() StrategyID
	FetchRaw(ctx context.Context) (string, error)
}

// Endpoint describes the remote server and how to reach it.
type Endpoint struct {
	Scheme      string // "https" or "http"
	Host        string // host[:port]
	Path        string // real resource, used by the fresh-client strategy
	MissingPath string // path expected to 404, used by the reusing strategies
	Header      string
	Timeout     time.Duration

	// InsecureSkipVerify disables certificate validation. The target's
	// certificate is deliberately not checked.
	InsecureSkipVerify bool
	UserAgent          string
}

// DefaultEndpoint returns an endpoint for host with the usual settings.
func DefaultEndpoint(host string) Endpoint {
	return Endpoint{
		Scheme:             "https",
		Host:               host,
		Path:               "/",
		MissingPath:        "/dummy",
		Header:             DefaultHeader,
		Timeout:            5 * time.Second,
		InsecureSkipVerify: true,
	}
}

// URL builds the absolute URL for path on this endpoint.
func (e Endpoint) URL(path string) string {
	u := url.URL{Scheme: e.scheme(), Host: e.Host, Path: path}
	return u.String()
}

// Validate checks that the endpoint can be dialed.
func (e Endpoint) Validate() error {
	if e.Host == "" {
		return errors.New("endpoint host is empty")
	}
	switch e.scheme() {
	case "http", "https":
	default:
		return fmt.Errorf("unsupported scheme %q", e.Scheme)
	}
	return nil
}

func (e Endpoint) scheme() string {
	if e.Scheme == "" {
		return "https"
	}
	return e.Scheme
}

func (e Endpoint) header() string {
	if e.Header == "" {
		return DefaultHeader
	}
	return e.Header
}

func (e Endpoint) missingPath() string {
	if e.MissingPath == "" {
		return "/dummy"
	}
	return e.MissingPath
}

func (e Endpoint) path() string {
	if e.Path == "" {
		return "/"
	}
	return e.Path
}

// readHeader extracts the time header from a response header set.
func readHeader(h http.Header, name string) (string, error) {
	v := h.Get(name)
	if v == "" {
		return "", ErrMissingHeader
	}
	return v, nil
}

func (e Endpoint) decorate(req *http.Request) {
	if e.UserAgent != "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}
}

// Strategies lists every strategy in the order they are benchmarked.
var Strategies = []StrategyID{StrategyFresh, StrategySession, StrategyPersistent, StrategyWebSocket}

// New creates the source for a strategy.
func New(id StrategyID, endpoint Endpoint) (Source, error) {
	switch id {
	case StrategyFresh:
		return NewFresh(endpoint), nil
	case StrategySession:
		return NewSession(endpoint), nil
	case StrategyPersistent:
		return NewPersistent(endpoint), nil
	case StrategyWebSocket:
		return NewWebSocket(endpoint), nil
	}
	return nil, fmt.Errorf("unknown strategy %q", id)
}
