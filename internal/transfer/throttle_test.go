package transfer

import (
	"math/rand/v2"
	"testing"
	"time"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func TestNewThrottleState(t *testing.T) {
	s := NewThrottleState("a.bin", 100, t0)
	if s.LastReportedPercent != -1 {
		t.Errorf("LastReportedPercent = %v, want -1", s.LastReportedPercent)
	}
	if !s.LastReportedAt.Equal(t0) || s.LastReportedBytes != 0 || s.Done() {
		t.Errorf("unexpected initial state %+v", s)
	}
}

func TestThrottleShouldReport(t *testing.T) {
	throttle := NewThrottle(CallbackThreshold)

	tests := []struct {
		name     string
		total    uint64
		bytes    uint64
		after    time.Duration
		expected bool
	}{
		{"Small step, short time", 1000, 50, 100 * time.Millisecond, false},
		{"Percentage jump", 1000, 100, 100 * time.Millisecond, true},
		{"Interval elapsed", 1000, 1, 500 * time.Millisecond, true},
		{"Just under interval", 1000, 1, 499 * time.Millisecond, false},
		{"Completion", 1000, 1000, 0, true},
		{"Unknown size only by time", 0, 5000, 100 * time.Millisecond, false},
		{"Unknown size after interval", 0, 5000, time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewThrottleState("f", tt.total, t0)
			if got := throttle.ShouldReport(s, tt.bytes, t0.Add(tt.after)); got != tt.expected {
				t.Errorf("ShouldReport() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestThrottleThresholdsDiffer(t *testing.T) {
	s := NewThrottleState("f", 1000, t0)
	now := t0.Add(10 * time.Millisecond)

	if !NewThrottle(StreamThreshold).ShouldReport(s, 60, now) {
		t.Errorf("stream throttle should report a 6%% jump")
	}
	if NewThrottle(CallbackThreshold).ShouldReport(s, 60, now) {
		t.Errorf("callback throttle should not report a 6%% jump")
	}
}

func TestThrottleObserveComputesSpeedAndEta(t *testing.T) {
	throttle := NewThrottle(CallbackThreshold)
	s := NewThrottleState("movie.mkv", 1000, t0)

	sample, ok := throttle.Observe(s, 200, t0.Add(time.Second))
	if !ok {
		t.Fatalf("Observe() did not emit a sample")
	}
	if sample.SpeedBytesPerSec != 200 {
		t.Errorf("SpeedBytesPerSec = %v, want 200", sample.SpeedBytesPerSec)
	}
	if sample.EtaRemaining == nil || *sample.EtaRemaining != 4*time.Second {
		t.Errorf("EtaRemaining = %v, want 4s", sample.EtaRemaining)
	}
	if sample.ElapsedSinceStart != time.Second || sample.PercentComplete() != 20 {
		t.Errorf("sample = %+v", sample)
	}
	if s.LastReportedBytes != 200 || s.LastReportedPercent != 20 || !s.LastReportedAt.Equal(t0.Add(time.Second)) {
		t.Errorf("state not updated: %+v", s)
	}

	// Speed is measured since the previous sample, not since the start.
	sample, ok = throttle.Observe(s, 700, t0.Add(2*time.Second))
	if !ok || sample.SpeedBytesPerSec != 500 {
		t.Errorf("second sample = %+v, %v, want speed 500", sample, ok)
	}
}

func TestThrottleZeroElapsed(t *testing.T) {
	throttle := NewThrottle(CallbackThreshold)
	s := NewThrottleState("f", 100, t0)

	sample, ok := throttle.Observe(s, 100, t0)
	if !ok {
		t.Fatalf("completion must always be reported")
	}
	if sample.SpeedBytesPerSec != 0 || sample.EtaRemaining != nil {
		t.Errorf("sample = %+v, want zero speed and no ETA", sample)
	}
}

func TestThrottleDoneStopsReporting(t *testing.T) {
	throttle := NewThrottle(CallbackThreshold)
	s := NewThrottleState("f", 100, t0)

	if _, ok := throttle.Observe(s, 100, t0.Add(time.Second)); !ok {
		t.Fatalf("completion must be reported")
	}
	if !s.Done() {
		t.Fatalf("state should be done after 100%%")
	}
	if _, ok := throttle.Observe(s, 100, t0.Add(time.Hour)); ok {
		t.Errorf("no sample expected after completion")
	}
	if _, ok := throttle.Finish(s, 100, t0.Add(time.Hour)); ok {
		t.Errorf("Finish should not repeat the final sample")
	}
}

func TestThrottleIgnoresBackwardCounts(t *testing.T) {
	throttle := NewThrottle(CallbackThreshold)
	s := NewThrottleState("f", 1000, t0)

	if _, ok := throttle.Observe(s, 500, t0.Add(time.Second)); !ok {
		t.Fatalf("expected a sample")
	}
	if _, ok := throttle.Observe(s, 400, t0.Add(time.Hour)); ok {
		t.Errorf("a lower byte count must not produce a sample")
	}
}

func TestThrottleFinishEmptyFile(t *testing.T) {
	throttle := NewThrottle(StreamThreshold)
	s := NewThrottleState("empty", 0, t0)

	sample, ok := throttle.Finish(s, 0, t0.Add(time.Millisecond))
	if !ok {
		t.Fatalf("Finish() should emit the final sample")
	}
	if sample.BytesTransferred != 0 || sample.PercentComplete() != 0 || !s.Done() {
		t.Errorf("sample = %+v, done = %v", sample, s.Done())
	}
}

func TestThrottleSampleSequenceProperties(t *testing.T) {
	type point struct {
		bytes uint64
		at    time.Time
	}
	rng := rand.New(rand.NewPCG(7, 42))

	for _, threshold := range []float64{StreamThreshold, CallbackThreshold} {
		for round := 0; round < 50; round++ {
			total := uint64(rng.IntN(1_000_000) + 1)
			throttle := NewThrottle(threshold)
			s := NewThrottleState("f", total, t0)

			now := t0
			var bytes uint64
			var samples []point
			for bytes < total {
				step := uint64(rng.IntN(int(total/20)+1) + 1)
				bytes = min(bytes+step, total)
				now = now.Add(time.Duration(rng.IntN(200)) * time.Millisecond)
				if sample, ok := throttle.Observe(s, bytes, now); ok {
					samples = append(samples, point{sample.BytesTransferred, now})
				}
			}

			if len(samples) == 0 || samples[len(samples)-1].bytes != total {
				t.Fatalf("total %d: final sample missing", total)
			}
			for i := 1; i < len(samples); i++ {
				prev, cur := samples[i-1], samples[i]
				if cur.bytes < prev.bytes {
					t.Fatalf("total %d: samples not monotonic", total)
				}
				jump := float64(cur.bytes-prev.bytes) / float64(total) * 100
				if cur.at.Sub(prev.at) < DefaultReportInterval && jump < threshold && cur.bytes != total {
					t.Fatalf("total %d: sample %d emitted %v after previous with only %.2f%% progress",
						total, i, cur.at.Sub(prev.at), jump)
				}
			}
		}
	}
}
