package errs

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	e := NewPath(OversizedFile, "big.bin", "exceeds limit")
	want := "oversized_file: big.bin: exceeds limit"
	if e.Error() != want {
		t.Errorf("Error() = %q, want %q", e.Error(), want)
	}

	if New(LockContention, "busy").Error() != "lock_contention: busy" {
		t.Errorf("message-only formatting wrong")
	}
}

func TestKindMatching(t *testing.T) {
	base := Wrap(StoreIntegrity, "migration 3", errors.New("disk full"))
	wrapped := fmt.Errorf("open store: %w", base)

	if !Is(wrapped, StoreIntegrity) {
		t.Error("kind should match through wrapping")
	}
	if Is(wrapped, PathEscape) {
		t.Error("wrong kind must not match")
	}
	if KindOf(errors.New("plain")) != "" {
		t.Error("plain errors carry no kind")
	}
	if !errors.Is(wrapped, base.Err) && base.Err.Error() != "disk full" {
		t.Error("cause retained")
	}
}
