package sessionstate

import (
	"context"
	"testing"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	got, err := s.Active(ctx, "user-1")
	if err != nil {
		t.Fatalf("Active: %v", err)
	}
	if got != "" {
		t.Fatalf("got %q, want empty", got)
	}

	if err := s.SetActive(ctx, "user-1", "doc-1"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}
	if err := s.SetActive(ctx, "user-2", "doc-2"); err != nil {
		t.Fatalf("SetActive: %v", err)
	}

	got, _ = s.Active(ctx, "user-1")
	if got != "doc-1" {
		t.Fatalf("got %q, want doc-1", got)
	}

	if err := s.ClearActive(ctx, "user-1"); err != nil {
		t.Fatalf("ClearActive: %v", err)
	}
	got, _ = s.Active(ctx, "user-1")
	if got != "" {
		t.Fatalf("got %q after clear, want empty", got)
	}

	// Other users are untouched.
	got, _ = s.Active(ctx, "user-2")
	if got != "doc-2" {
		t.Fatalf("got %q, want doc-2", got)
	}
}
