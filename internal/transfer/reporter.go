package transfer

import (
	"log/slog"
	"time"

	"sftpcopy/internal/models"
	"sftpcopy/pkg/utils"
)

// Reporter observes a copy run. Calls happen synchronously on the copying
// goroutine, so implementations must return quickly.
type Reporter interface {
	OperationStarted(operation string)
	FileStarted(remotePath, localPath string, size uint64)
	Progress(sample models.ProgressSample)
	FileCompleted(remotePath, localPath string, bytes uint64)
	OperationCompleted(success bool, message string, elapsed time.Duration)
}

type NopReporter struct{}

func (NopReporter) OperationStarted(string) {}
func (NopReporter) FileStarted(string, string, uint64) {}
func (NopReporter) Progress(models.ProgressSample) {}
func (NopReporter) FileCompleted(string, string, uint64) {}
func (NopReporter) OperationCompleted(bool, string, time.Duration) {}

// LogReporter writes every event to a structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) OperationStarted(operation string) {
	r.Logger.Info("Operation started", "operation", operation)
}

func (r LogReporter) FileStarted(remotePath, localPath string, size uint64) {
	r.Logger.Info("Downloading", "remote", remotePath, "local", localPath, "size", utils.FormatBytes(size))
}

func (r LogReporter) Progress(sample models.ProgressSample) {
	attrs := []any{
		"file", sample.FileName,
		"percent", roundPercent(sample.PercentComplete()),
		"transferred", utils.FormatBytes(sample.BytesTransferred),
		"total", utils.FormatBytes(sample.TotalSize),
		"speed", utils.FormatSpeed(sample.SpeedBytesPerSec),
	}
	if sample.EtaRemaining != nil {
		attrs = append(attrs, "eta", sample.EtaRemaining.Round(time.Second))
	}
	r.Logger.Info("Progress", attrs...)
}

func (r LogReporter) FileCompleted(remotePath, localPath string, bytes uint64) {
	r.Logger.Info("File copied", "remote", remotePath, "local", localPath, "size", utils.FormatBytes(bytes))
}

func (r LogReporter) OperationCompleted(success bool, message string, elapsed time.Duration) {
	if success {
		r.Logger.Info("Operation completed", "message", message, "duration", elapsed)
		return
	}
	r.Logger.Error("Operation failed", "message", message, "duration", elapsed)
}

func roundPercent(p float64) float64 {
	return float64(int64(p*10+0.5)) / 10
}
