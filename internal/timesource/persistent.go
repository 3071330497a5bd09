// ABOUTME: Persistent-connection strategy over one explicit long-lived connection
// ABOUTME: Closes and redials immediately after any failure so the next fetch starts clean
package timesource

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"
)

// Persistent speaks HTTP/1.1 over a single connection it owns.
type Persistent struct {
	endpoint Endpoint
	dialer   *net.Dialer

	conn   net.Conn
	reader *bufio.Reader

	reconnects int
}

// NewPersistent creates a persistent-connection source. The connection is
// dialed lazily on the first fetch.
func NewPersistent(endpoint Endpoint) *Persistent {
	return &Persistent{
		endpoint: endpoint,
		dialer:   &net.Dialer{Timeout: endpoint.Timeout, KeepAlive: 30 * time.Second},
	}
}

// ID implements Source.
func (p *Persistent) ID() StrategyID { return StrategyPersistent }

// Reconnects returns how many times the connection was redialed after a failure.
func (p *Persistent) Reconnects() int { return p.reconnects }

// FetchRaw implements Source. On failure the connection is replaced before
// the original error is returned.
func (p *Persistent) FetchRaw(ctx context.Context) (string, error) {
	raw, err := p.roundTrip(ctx)
	if errors.Is(err, ErrMissingHeader) {
		// The exchange itself completed; the connection is still usable.
		return "", err
	}
	if err != nil {
		if rerr := p.reconnect(ctx); rerr != nil {
			return "", errors.Join(err, fmt.Errorf("reconnect: %w", rerr))
		}
		return "", err
	}
	return raw, nil
}

func (p *Persistent) roundTrip(ctx context.Context) (string, error) {
	if p.conn == nil {
		if err := p.connect(ctx); err != nil {
			return "", err
		}
	}

	if p.endpoint.Timeout > 0 {
		if err := p.conn.SetDeadline(time.Now().Add(p.endpoint.Timeout)); err != nil {
			return "", err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint.URL(p.endpoint.missingPath()), nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	p.endpoint.decorate(req)

	if err := req.Write(p.conn); err != nil {
		return "", err
	}

	resp, err := http.ReadResponse(p.reader, req)
	if err != nil {
		return "", malformed(err)
	}
	// The body must be consumed before the next request on this connection.
	_, copyErr := io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if copyErr != nil {
		return "", copyErr
	}

	raw, err := readHeader(resp.Header, p.endpoint.header())
	if resp.Close {
		// Server will hang up after this response.
		p.closeConn()
	}
	return raw, err
}

func (p *Persistent) connect(ctx context.Context) error {
	addr := p.endpoint.Host
	if _, _, err := net.SplitHostPort(addr); err != nil {
		port := "443"
		if p.endpoint.scheme() == "http" {
			port = "80"
		}
		addr = net.JoinHostPort(addr, port)
	}

	var conn net.Conn
	var err error
	if p.endpoint.scheme() == "https" {
		host, _, _ := net.SplitHostPort(addr)
		td := &tls.Dialer{
			NetDialer: p.dialer,
			Config: &tls.Config{
				ServerName:         host,
				InsecureSkipVerify: p.endpoint.InsecureSkipVerify,
			},
		}
		conn, err = td.DialContext(ctx, "tcp", addr)
	} else {
		conn, err = p.dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return err
	}

	p.conn = conn
	p.reader = bufio.NewReader(conn)
	return nil
}

func (p *Persistent) reconnect(ctx context.Context) error {
	p.closeConn()
	p.reconnects++
	log.Printf("[debug] %s reconnecting to %s", p.ID(), p.endpoint.Host)
	return p.connect(ctx)
}

func (p *Persistent) closeConn() {
	if p.conn != nil {
		p.conn.Close()
	}
	p.conn = nil
	p.reader = nil
}

// Close releases the connection.
func (p *Persistent) Close() error {
	p.closeConn()
	return nil
}

// malformed tags protocol-level read errors; transport errors pass through.
func malformed(err error) error {
	var netErr net.Error
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.As(err, &netErr) {
		return err
	}
	return fmt.Errorf("%w: %v", errMalformed, err)
}
