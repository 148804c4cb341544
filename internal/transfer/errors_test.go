package transfer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"sftpcopy/internal/models"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected models.ErrorKind
	}{
		{"Nil", nil, ""},
		{"Validation", fmt.Errorf("%w: host is required", ErrValidation), models.ErrorKindValidation},
		{"Connection", fmt.Errorf("%w: nas:22: %w", ErrConnection, errBoom), models.ErrorKindConnection},
		{"Not found", ErrRemoteNotFound, models.ErrorKindRemoteNotFound},
		{"Is directory", ErrIsDirectory, models.ErrorKindIsDirectory},
		{"Remote list", fmt.Errorf("%w: /data", ErrRemoteList), models.ErrorKindRemoteList},
		{"Transfer IO", fmt.Errorf("%w: write: %w", ErrTransferIO, errBoom), models.ErrorKindTransferIO},
		{"Cancelled wins over IO", fmt.Errorf("%w: %w", ErrCancelled, fmt.Errorf("%w: %w", ErrTransferIO, context.Canceled)), models.ErrorKindCancelled},
		{"Unclassified", errBoom, models.ErrorKindUnknown},
		{"Bare context error", context.Canceled, models.ErrorKindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.expected {
				t.Errorf("KindOf() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestSentinelsAreDistinct(t *testing.T) {
	all := []error{ErrValidation, ErrConnection, ErrRemoteNotFound, ErrIsDirectory, ErrRemoteList, ErrTransferIO, ErrCancelled}
	for i, a := range all {
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v should not match %v", a, b)
			}
		}
	}
}
