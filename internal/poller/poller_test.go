package poller

import "testing"

func TestNextIntervalResetsOnCallback(t *testing.T) {
	s := New(Config{BaseInterval: 5, MaxInterval: 60, BackoffFactor: 1.5, ResetOnCallback: true, Timeout: 3600, QuietThreshold: 5})

	// The first call is never counted as quiet, so 7 calls are needed to
	// push the quiet streak past QuietThreshold (5) and trigger backoff.
	for i := 0; i < 7; i++ {
		s.NextInterval(false)
	}
	if s.currentInterval <= 5 {
		t.Fatalf("expected backoff after quiet polls, got %v", s.currentInterval)
	}

	got := s.NextInterval(true)
	if got.Seconds() != 5 {
		t.Errorf("expected reset to base interval, got %v", got)
	}
}

func TestNextIntervalNeverExceedsMax(t *testing.T) {
	s := New(Config{BaseInterval: 5, MaxInterval: 12, BackoffFactor: 3, ResetOnCallback: true, Timeout: 3600, QuietThreshold: 2})
	var last float64
	for i := 0; i < 20; i++ {
		d := s.NextInterval(false)
		last = d.Seconds()
	}
	if last > 12 {
		t.Errorf("interval exceeded max: %v", last)
	}
}

// TestNextIntervalMatchesQuietThresholdTrace reproduces §8 S5's worked
// example (base=1, max=4, factor=2, quiet=2), expecting sleeps
// 1,1,1,2,4,4,4,... — three base-interval polls before the first backoff.
func TestNextIntervalMatchesQuietThresholdTrace(t *testing.T) {
	s := New(Config{BaseInterval: 1, MaxInterval: 4, BackoffFactor: 2, ResetOnCallback: true, Timeout: 3600, QuietThreshold: 2})

	want := []float64{1, 1, 1, 2, 4, 4, 4}
	for i, w := range want {
		got := s.NextInterval(false).Seconds()
		if got != w {
			t.Errorf("poll %d: got interval %v, want %v", i+1, got, w)
		}
	}
}

func TestTimedOutFalseBeforeStart(t *testing.T) {
	s := New(DefaultConfig())
	if s.TimedOut() {
		t.Error("expected not timed out before any poll")
	}
}
