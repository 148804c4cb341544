package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"regexp"
	"sftpcopy/internal/models"
	"strings"
	"testing"
	"time"
)

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		name     string
		bytes    uint64
		expected string
	}{
		{"Zero bytes", 0, "0.0B"},
		{"Bytes", 500, "500.0B"},
		{"Half kilobyte rounds to even", 512, "512.0B"},
		{"Just over half kilobyte", 513, "0.5KB"},
		{"Almost a kilobyte", 1023, "1.0KB"},
		{"Kilobyte", 1024, "1.0KB"},
		{"Kilobytes", 1500, "1.5KB"},
		{"Megabytes", 1500000, "1.4MB"},
		{"Gigabytes", 1500000000, "1.4GB"},
		{"Terabytes", 1500000000000, "1.4TB"},
		{"Clamped at terabytes", 1 << 50, "1024.0TB"},
		{"Max uint64", math.MaxUint64, "16777216.0TB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := FormatBytes(tt.bytes)
			if result != tt.expected {
				t.Errorf("FormatBytes(%d) = %s, want %s", tt.bytes, result, tt.expected)
			}
		})
	}
}

func TestFormatBytesShape(t *testing.T) {
	shape := regexp.MustCompile(`^[0-9]+\.[0-9](B|KB|MB|GB|TB)$`)
	for b := uint64(1); b < math.MaxUint64/3; b = b*3 + 7 {
		got := FormatBytes(b)
		if !shape.MatchString(got) {
			t.Fatalf("FormatBytes(%d) = %q, want one fractional digit and a known suffix", b, got)
		}
	}
}

func TestFormatSpeed(t *testing.T) {
	tests := []struct {
		speed    float64
		expected string
	}{
		{0, "0.0B/s"},
		{-3, "0.0B/s"},
		{math.Inf(1), "0.0B/s"},
		{2048, "2.0KB/s"},
	}

	for _, tt := range tests {
		if got := FormatSpeed(tt.speed); got != tt.expected {
			t.Errorf("FormatSpeed(%v) = %s, want %s", tt.speed, got, tt.expected)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	testData := map[string]string{"key": "value"}

	err := PrintJSON(testData)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	if err != nil {
		t.Errorf("PrintJSON() returned error: %v", err)
	}

	var result map[string]string
	err = json.Unmarshal([]byte(output), &result)
	if err != nil {
		t.Errorf("PrintJSON() produced invalid JSON: %v", err)
	}

	if result["key"] != "value" {
		t.Errorf("PrintJSON() output = %v, want %v", result, testData)
	}
}

func TestPrintError(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	testErr := errors.New("test error")
	testCmd := "test-command"

	PrintError(testErr, testCmd)

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)
	output := buf.String()

	if !strings.Contains(output, "test error") {
		t.Errorf("PrintError() output doesn't contain error message: %s", output)
	}

	if !strings.Contains(output, "test-command") {
		t.Errorf("PrintError() output doesn't contain command: %s", output)
	}

	var result models.ErrorResponse
	err := json.Unmarshal([]byte(output), &result)
	if err != nil {
		t.Errorf("PrintError() produced invalid JSON: %v", err)
	}

	if result.Error != "test error" {
		t.Errorf("PrintError() error = %s, want %s", result.Error, "test error")
	}

	if result.Command != "test-command" {
		t.Errorf("PrintError() command = %s, want %s", result.Command, "test-command")
	}
}

func TestPrintErrorKind(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	PrintErrorKind(errors.New("no such path"), models.ErrorKindRemoteNotFound, "copy")

	w.Close()
	os.Stdout = oldStdout

	var buf bytes.Buffer
	buf.ReadFrom(r)

	var result models.ErrorResponse
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("PrintErrorKind() produced invalid JSON: %v", err)
	}

	if result.Kind != models.ErrorKindRemoteNotFound {
		t.Errorf("PrintErrorKind() kind = %s, want %s", result.Kind, models.ErrorKindRemoteNotFound)
	}
}

func TestFormatTime(t *testing.T) {
	testTime := time.Date(2023, 5, 15, 10, 30, 0, 0, time.UTC)
	expected := "2023-05-15T10:30:00Z" // RFC3339 format

	result := FormatTime(testTime)
	if result != expected {
		t.Errorf("FormatTime() = %s, want %s", result, expected)
	}
}
