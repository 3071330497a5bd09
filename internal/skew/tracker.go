// ABOUTME: Remote-minus-local clock offset tracking from time header samples
// ABOUTME: Tracks RTT, a smoothed offset estimate and sync quality
package skew

import (
	"log"
	"sync"
	"time"

	"github.com/harperreed/headerclock/internal/timesource"
)

// Quality represents how trustworthy the current estimate is.
type Quality int

const (
	QualityGood Quality = iota
	QualityDegraded
	QualityLost
)

func (q Quality) String() string {
	switch q {
	case QualityGood:
		return "good"
	case QualityDegraded:
		return "degraded"
	}
	return "lost"
}

const (
	// Samples with a longer round trip are discarded.
	maxRTT = time.Second
	// Above this RTT quality is degraded.
	degradedRTT = 100 * time.Millisecond
	// Without a sample for this long quality is lost.
	staleAfter = 5 * time.Second
)

// Tracker estimates the offset between the remote clock and the local one.
//
// The time header has whole-second resolution, so a sample R means the
// remote clock read somewhere in [R, R+1s). The estimate assumes the middle
// of that window at the midpoint of the request.
type Tracker struct {
	mu            sync.RWMutex
	offset        time.Duration // remote - local
	rawOffset     time.Duration
	rtt           time.Duration
	quality       Quality
	lastSync      time.Time
	sampleCount   int
	smoothingRate float64
	now           func() time.Time
}

// NewTracker creates a tracker with no samples.
func NewTracker() *Tracker {
	return &Tracker{
		smoothingRate: 0.1, // 10% weight to new samples
		quality:       QualityLost,
		now:           time.Now,
	}
}

// Process folds one fetch outcome into the estimate. Failed outcomes are ignored.
func (t *Tracker) Process(o timesource.Outcome) {
	if !o.OK {
		return
	}

	rtt := o.Finished.Sub(o.Started)
	midpoint := o.Started.Add(rtt / 2)
	measured := o.Instant.Add(500 * time.Millisecond).Sub(midpoint)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rtt = rtt
	t.rawOffset = measured
	t.lastSync = t.now()

	if rtt > maxRTT {
		log.Printf("Discarding skew sample: high RTT %v", rtt)
		return
	}

	if t.sampleCount == 0 {
		t.offset = measured
	} else {
		residual := measured - t.offset
		t.offset += time.Duration(t.smoothingRate * float64(residual))
	}
	t.sampleCount++

	if rtt < degradedRTT {
		t.quality = QualityGood
	} else {
		t.quality = QualityDegraded
	}

	if t.sampleCount == 1 {
		log.Printf("Initial skew: offset=%v, rtt=%v", t.offset, rtt)
	}
}

// Stats returns the smoothed offset, latest RTT and quality.
func (t *Tracker) Stats() (offset, rtt time.Duration, quality Quality) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.offset, t.rtt, t.quality
}

// Samples returns how many samples contributed to the estimate.
func (t *Tracker) Samples() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sampleCount
}

// CheckQuality marks the estimate lost if no sample arrived recently.
func (t *Tracker) CheckQuality() Quality {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.sampleCount == 0 || t.now().Sub(t.lastSync) > staleAfter {
		t.quality = QualityLost
	}
	return t.quality
}

// RemoteNow estimates the remote clock from the local one.
func (t *Tracker) RemoteNow() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.now().Add(t.offset).UTC()
}
