package utils

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sftpcopy/internal/models"
	"time"
)

var byteSuffixes = []string{"B", "KB", "MB", "GB", "TB"}

// FormatBytes renders a byte count with binary prefixes and one fractional
// digit, e.g. 1536 -> "1.5KB". Values never scale past TB.
func FormatBytes(bytes uint64) string {
	number := float64(bytes)
	i := 0
	for i < len(byteSuffixes)-1 && math.RoundToEven(number/1024) >= 1 {
		number /= 1024
		i++
	}
	return fmt.Sprintf("%.1f%s", number, byteSuffixes[i])
}

// FormatSpeed renders a transfer rate as FormatBytes followed by "/s".
func FormatSpeed(bytesPerSec float64) string {
	if bytesPerSec <= 0 || math.IsNaN(bytesPerSec) || math.IsInf(bytesPerSec, 0) {
		return FormatBytes(0) + "/s"
	}
	return FormatBytes(uint64(bytesPerSec)) + "/s"
}

func PrintJSON(data interface{}) error {
	jsonOutput, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(jsonOutput))
	return nil
}

func PrintError(err error, command string) {
	PrintErrorKind(err, "", command)
}

func PrintErrorKind(err error, kind models.ErrorKind, command string) {
	errorResp := models.ErrorResponse{
		Error:     err.Error(),
		Kind:      kind,
		Timestamp: time.Now().Format(time.RFC3339),
		Command:   command,
	}
	err = PrintJSON(errorResp)
	if err != nil {
		slog.Error("Failed to print error in JSON format", "error", err)
		fmt.Println("Error: ", errorResp)
		return
	}
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}
