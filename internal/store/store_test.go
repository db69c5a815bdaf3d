package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "nova.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() returned an error: %v", err)
	}
	defer s.Close()

	// A fresh database reports no delivery.
	date, err := s.LastFiredDate(ctx)
	if err != nil {
		t.Fatalf("LastFiredDate() returned an error: %v", err)
	}
	if date != "" {
		t.Errorf("Expected an empty date for a fresh store, got %q", date)
	}

	if err := s.SetLastFiredDate(ctx, "2025-06-10"); err != nil {
		t.Fatalf("SetLastFiredDate() returned an error: %v", err)
	}
	date, err = s.LastFiredDate(ctx)
	if err != nil {
		t.Fatalf("LastFiredDate() returned an error: %v", err)
	}
	if date != "2025-06-10" {
		t.Errorf("Expected '2025-06-10', got %q", date)
	}

	// Upsert: a later delivery overwrites the previous date.
	if err := s.SetLastFiredDate(ctx, "2025-06-11"); err != nil {
		t.Fatalf("second SetLastFiredDate() returned an error: %v", err)
	}
	date, err = s.LastFiredDate(ctx)
	if err != nil {
		t.Fatalf("LastFiredDate() returned an error: %v", err)
	}
	if date != "2025-06-11" {
		t.Errorf("Expected '2025-06-11', got %q", date)
	}
}

func TestStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nova.db")

	s, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open() returned an error: %v", err)
	}
	if err := s.SetLastFiredDate(ctx, "2025-06-10"); err != nil {
		t.Fatalf("SetLastFiredDate() returned an error: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() returned an error: %v", err)
	}

	// Reopen: state written before a restart must survive it.
	s2, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen returned an error: %v", err)
	}
	defer s2.Close()

	date, err := s2.LastFiredDate(ctx)
	if err != nil {
		t.Fatalf("LastFiredDate() returned an error: %v", err)
	}
	if date != "2025-06-10" {
		t.Errorf("Expected persisted date '2025-06-10', got %q", date)
	}
}
