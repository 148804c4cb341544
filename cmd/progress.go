package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"

	"sftpcopy/internal/models"
	"sftpcopy/internal/transfer"
	"sftpcopy/pkg/utils"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	fileColor    = color.New(color.FgBlue)
	successColor = color.New(color.FgGreen)
	failureColor = color.New(color.FgRed, color.Bold)
)

// consoleReporter draws one self-overwriting progress line per file.
type consoleReporter struct {
	out        io.Writer
	lineActive bool
}

func (r *consoleReporter) OperationStarted(operation string) {
	headerColor.Fprintf(r.out, "Starting %s\n", operation)
}

func (r *consoleReporter) FileStarted(remotePath, localPath string, size uint64) {
	r.endLine()
	fileColor.Fprintf(r.out, "%s -> %s (%s)\n", remotePath, localPath, utils.FormatBytes(size))
}

func (r *consoleReporter) Progress(sample models.ProgressSample) {
	eta := "--"
	if sample.EtaRemaining != nil {
		eta = sample.EtaRemaining.Round(time.Second).String()
	}
	fmt.Fprintf(r.out, "\r  %5.1f%%  %s / %s  %s  ETA %s   ",
		sample.PercentComplete(),
		utils.FormatBytes(sample.BytesTransferred),
		utils.FormatBytes(sample.TotalSize),
		utils.FormatSpeed(sample.SpeedBytesPerSec),
		eta)
	r.lineActive = true
}

func (r *consoleReporter) FileCompleted(remotePath, _ string, bytes uint64) {
	r.endLine()
	successColor.Fprintf(r.out, "  done %s (%s)\n", remotePath, utils.FormatBytes(bytes))
}

func (r *consoleReporter) OperationCompleted(success bool, message string, elapsed time.Duration) {
	r.endLine()
	if success {
		successColor.Fprintf(r.out, "%s in %s\n", message, elapsed.Round(time.Millisecond))
		return
	}
	failureColor.Fprintf(r.out, "Failed: %s\n", message)
}

func (r *consoleReporter) endLine() {
	if r.lineActive {
		fmt.Fprintln(r.out)
		r.lineActive = false
	}
}

// newReporter draws progress on an interactive stderr and falls back to
// structured log lines otherwise, so piped output stays parseable.
func newReporter(logger *slog.Logger) transfer.Reporter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return &consoleReporter{out: os.Stderr}
	}
	return transfer.LogReporter{Logger: logger}
}
