package transfer

import (
	"time"

	"sftpcopy/internal/models"
)

const (
	DefaultReportInterval = 500 * time.Millisecond
	// StreamThreshold applies when progress is taken from the local sink.
	StreamThreshold = 5.0
	// CallbackThreshold applies when progress comes from the transport's
	// download callback.
	CallbackThreshold = 10.0
)

// ThrottleState belongs to exactly one file transfer.
type ThrottleState struct {
	FileName            string
	TotalSize           uint64
	StartedAt           time.Time
	LastReportedPercent float64
	LastReportedAt      time.Time
	LastReportedBytes   uint64
	done                bool
}

func NewThrottleState(fileName string, totalSize uint64, now time.Time) *ThrottleState {
	return &ThrottleState{
		FileName:            fileName,
		TotalSize:           totalSize,
		StartedAt:           now,
		LastReportedPercent: -1,
		LastReportedAt:      now,
	}
}

// Done reports whether the 100% sample was emitted.
func (s *ThrottleState) Done() bool {
	return s.done
}

// Throttle decides when a running byte count deserves a progress sample:
// on completion, after Interval, or after a jump of Threshold percent.
type Throttle struct {
	Interval  time.Duration
	Threshold float64
}

func NewThrottle(threshold float64) Throttle {
	return Throttle{Interval: DefaultReportInterval, Threshold: threshold}
}

func (t Throttle) ShouldReport(s *ThrottleState, bytes uint64, now time.Time) bool {
	if s.done || bytes < s.LastReportedBytes {
		return false
	}
	if bytes == s.TotalSize {
		return true
	}
	if now.Sub(s.LastReportedAt) >= t.Interval {
		return true
	}
	if s.TotalSize > 0 {
		jump := float64(bytes-s.LastReportedBytes) / float64(s.TotalSize) * 100
		if jump >= t.Threshold {
			return true
		}
	}
	return false
}

// Observe feeds a cumulative byte count and returns a sample when one is due.
func (t Throttle) Observe(s *ThrottleState, bytes uint64, now time.Time) (models.ProgressSample, bool) {
	if !t.ShouldReport(s, bytes, now) {
		return models.ProgressSample{}, false
	}
	return s.emit(bytes, now), true
}

// Finish emits the final sample if it has not been emitted yet. Empty files
// and transports that never report the last chunk end up here.
func (t Throttle) Finish(s *ThrottleState, bytes uint64, now time.Time) (models.ProgressSample, bool) {
	if s.done || bytes < s.LastReportedBytes {
		return models.ProgressSample{}, false
	}
	sample := s.emit(bytes, now)
	s.done = true
	return sample, true
}

func (s *ThrottleState) emit(bytes uint64, now time.Time) models.ProgressSample {
	var speed float64
	if elapsed := now.Sub(s.LastReportedAt).Seconds(); elapsed > 0 {
		speed = float64(bytes-s.LastReportedBytes) / elapsed
	}

	sample := models.ProgressSample{
		FileName:          s.FileName,
		BytesTransferred:  bytes,
		TotalSize:         s.TotalSize,
		ElapsedSinceStart: now.Sub(s.StartedAt),
		SpeedBytesPerSec:  speed,
	}
	if speed > 0 {
		var remaining uint64
		if s.TotalSize > bytes {
			remaining = s.TotalSize - bytes
		}
		eta := time.Duration(float64(remaining) / speed * float64(time.Second))
		sample.EtaRemaining = &eta
	}

	s.LastReportedBytes = bytes
	s.LastReportedAt = now
	s.LastReportedPercent = sample.PercentComplete()
	if bytes == s.TotalSize {
		s.done = true
	}
	return sample
}
