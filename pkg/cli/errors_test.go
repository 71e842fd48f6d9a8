package cli

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		name  string
		field string
		want  string
	}{
		{"with field", "library.mode", "config error in library.mode: unknown mode"},
		{"without field", "", "config error: unknown mode"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfigError(tt.field, "unknown mode")
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}
}

func TestCommandError_Unwrap(t *testing.T) {
	inner := errors.New("tree not found")
	err := NewCommandError("eval", inner)

	if !errors.Is(err, inner) {
		t.Error("errors.Is() should find the wrapped error")
	}
	if got, want := err.Error(), "command eval failed: tree not found"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain error", errors.New("boom"), ExitError},
		{"command error", NewCommandError("lint", errors.New("unreadable")), ExitError},
		{"failure", NewFailure("test", errors.New("2 cases failed")), ExitFailure},
		{"wrapped failure", fmt.Errorf("run: %w", NewFailure("eval", errors.New("failed"))), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
