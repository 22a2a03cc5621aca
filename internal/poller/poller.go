// Package poller implements adaptive-interval polling for passive mode
// (§4.7): after injection, repeatedly query the Store for new findings,
// backing off during quiet periods and resetting on activity.
package poller

import (
	"time"

	"github.com/invaen/ricochet/internal/db"
	"github.com/invaen/ricochet/internal/findings"
	"github.com/invaen/ricochet/internal/models"
)

// Config holds the timing parameters for a polling run.
type Config struct {
	BaseInterval    float64
	MaxInterval     float64
	BackoffFactor   float64
	ResetOnCallback bool
	Timeout         float64
	// QuietThreshold is the number of consecutive empty polls tolerated
	// before the interval starts backing off (§4.7). The first poll of a
	// run is not counted.
	QuietThreshold int
}

// DefaultConfig mirrors the reference tool's defaults.
func DefaultConfig() Config {
	return Config{
		BaseInterval:    5.0,
		MaxInterval:     60.0,
		BackoffFactor:   1.5,
		ResetOnCallback: true,
		Timeout:         3600.0,
		QuietThreshold:  5,
	}
}

// Strategy tracks interval state across a polling run, backing off once
// more than cfg.QuietThreshold consecutive quiet polls (the first poll
// excluded) have been seen and resetting when a poll finds new activity.
type Strategy struct {
	cfg             Config
	currentInterval float64
	quietPolls      int
	start           time.Time
	started         bool
}

// New constructs a polling Strategy.
func New(cfg Config) *Strategy {
	return &Strategy{cfg: cfg, currentInterval: cfg.BaseInterval}
}

// NextInterval returns the interval to wait before the next poll, given
// whether the poll just completed found new activity.
func (s *Strategy) NextInterval(receivedCallback bool) time.Duration {
	first := !s.started
	if !s.started {
		s.start = time.Now()
		s.started = true
	}

	switch {
	case receivedCallback && s.cfg.ResetOnCallback:
		s.currentInterval = s.cfg.BaseInterval
		s.quietPolls = 0
	case first:
		// The first poll establishes the baseline interval; it never
		// counts toward the quiet streak that triggers backoff (§8 S5).
	default:
		s.quietPolls++
		if s.quietPolls > s.cfg.QuietThreshold {
			s.currentInterval = min(s.currentInterval*s.cfg.BackoffFactor, s.cfg.MaxInterval)
		}
	}

	return time.Duration(s.currentInterval * float64(time.Second))
}

// TimedOut reports whether the configured Timeout has elapsed.
func (s *Strategy) TimedOut() bool {
	if !s.started {
		return false
	}
	return time.Since(s.start).Seconds() > s.cfg.Timeout
}

// Elapsed returns time elapsed since the first call to NextInterval.
func (s *Strategy) Elapsed() time.Duration {
	if !s.started {
		return 0
	}
	return time.Since(s.start)
}

// Sleeper abstracts time.Sleep so tests can run polling loops without
// real delays.
type Sleeper func(time.Duration)

// Run polls store for new findings at adaptive intervals, invoking
// onFindings whenever a poll surfaces at least one finding at or above
// minSeverity. It returns the total number of findings seen, stopping
// when the configured timeout elapses or stop is closed.
func Run(store *db.Store, cfg Config, minSeverity string, onFindings func([]models.Finding), sleep Sleeper, stop <-chan struct{}) (int, error) {
	strategy := New(cfg)
	total := 0
	var lastPoll *float64

	for !strategy.TimedOut() {
		select {
		case <-stop:
			return total, nil
		default:
		}

		found, err := findings.Get(store, lastPoll, minSeverity)
		if err != nil {
			return total, err
		}

		now := float64(time.Now().UnixNano()) / 1e9
		lastPoll = &now

		received := len(found) > 0
		if received {
			total += len(found)
			onFindings(found)
		}

		interval := strategy.NextInterval(received)
		select {
		case <-stop:
			return total, nil
		default:
			sleep(interval)
		}
	}

	return total, nil
}
