// ABOUTME: Fetch outcome and fault classification
// ABOUTME: Maps transport, protocol and parse errors onto coarse fault categories
package timesource

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"net"
	"syscall"
	"time"
)

// Fault is a coarse category for a failed fetch.
type Fault string

const (
	FaultNone              Fault = ""
	FaultNetwork           Fault = "network"
	FaultTimeout           Fault = "timeout"
	FaultConnectionReset   Fault = "connection-reset"
	FaultTLS               Fault = "tls"
	FaultDNS               Fault = "dns"
	FaultMalformedResponse Fault = "malformed-response"
	FaultMissingHeader     Fault = "missing-header"
	FaultParse             Fault = "parse"
	FaultPanic             Fault = "panic"
)

// Outcome is the result of one fetch attempt after suppression: either a
// sample (OK) or no sample with a fault.
type Outcome struct {
	Strategy StrategyID
	OK       bool
	Instant  time.Time // remote time, UTC; zero unless OK
	Fault    Fault
	Err      error

	// Local wall clock around the attempt.
	Started  time.Time
	Finished time.Time
}

// Elapsed is the local duration of the attempt.
func (o Outcome) Elapsed() time.Duration {
	return o.Finished.Sub(o.Started)
}

// Sample returns the remote instant and whether there is one.
func (o Outcome) Sample() (time.Time, bool) {
	return o.Instant, o.OK
}

// Classify maps err to a Fault.
func Classify(err error) Fault {
	if err == nil {
		return FaultNone
	}

	var parseErr *ParseError
	var dnsErr *net.DNSError
	var certErr *tls.CertificateVerificationError
	var recordErr tls.RecordHeaderError
	var netErr net.Error

	switch {
	case errors.Is(err, ErrMissingHeader):
		return FaultMissingHeader
	case errors.As(err, &parseErr):
		return FaultParse
	case errors.Is(err, context.DeadlineExceeded):
		return FaultTimeout
	case errors.As(err, &dnsErr):
		return FaultDNS
	case errors.As(err, &certErr), errors.As(err, &recordErr):
		return FaultTLS
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE),
		errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF), errors.Is(err, net.ErrClosed):
		return FaultConnectionReset
	case errors.As(err, &netErr) && netErr.Timeout():
		return FaultTimeout
	case errors.Is(err, errMalformed):
		return FaultMalformedResponse
	}
	return FaultNetwork
}

var errMalformed = errors.New("malformed response")
