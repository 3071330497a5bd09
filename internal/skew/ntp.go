// ABOUTME: NTP reference check for the local clock
// ABOUTME: Reports how far the host clock is from an NTP server
package skew

import (
	"fmt"
	"time"

	"github.com/beevik/ntp"
)

// Reference is the result of one NTP query.
type Reference struct {
	Server      string
	ClockOffset time.Duration // add to local time to get NTP time
	RTT         time.Duration
	Stratum     uint8
}

// QueryNTP asks server for the local clock offset.
func QueryNTP(server string, timeout time.Duration) (Reference, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return Reference{}, fmt.Errorf("ntp query %s: %w", server, err)
	}
	if err := resp.Validate(); err != nil {
		return Reference{}, fmt.Errorf("ntp response from %s: %w", server, err)
	}

	return Reference{
		Server:      server,
		ClockOffset: resp.ClockOffset,
		RTT:         resp.RTT,
		Stratum:     resp.Stratum,
	}, nil
}
