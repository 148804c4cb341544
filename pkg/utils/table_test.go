package utils

import (
	"bytes"
	"sftpcopy/internal/models"
	"strings"
	"testing"
	"time"
)

func TestRenderEntries(t *testing.T) {
	var buf bytes.Buffer
	entries := []models.RemoteEntry{
		{Name: "a.txt", Kind: models.KindFile, Size: 100, ModifiedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{Name: "b", Kind: models.KindDirectory},
		{Name: "link", Kind: models.KindOther},
	}

	if err := RenderEntries(&buf, entries); err != nil {
		t.Fatalf("RenderEntries() error = %v", err)
	}

	output := buf.String()
	for _, want := range []string{"a.txt", "100.0B", "Mar 01 09:30", "b/", "link@"} {
		if !strings.Contains(output, want) {
			t.Errorf("RenderEntries() output doesn't contain %q:\n%s", want, output)
		}
	}
}

func TestRenderEntriesEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderEntries(&buf, nil); err != nil {
		t.Fatalf("RenderEntries() error = %v", err)
	}
	if !strings.Contains(buf.String(), "Directory is empty") {
		t.Errorf("RenderEntries() output = %q", buf.String())
	}
}
