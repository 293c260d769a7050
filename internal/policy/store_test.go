// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/tomtom215/loglens/internal/models"
)

func TestStore_DefaultsWhenFileMissing(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "policy.json"), 5000)
	if err := s.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}

	p := s.Snapshot()
	if p.DefaultIndexPattern != DefaultIndexPattern {
		t.Errorf("DefaultIndexPattern = %q", p.DefaultIndexPattern)
	}
	if s.MaxExportSize() != 5000 {
		t.Errorf("MaxExportSize = %d, want 5000", s.MaxExportSize())
	}
}

func TestStore_ReplacePersistsAndSwaps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	s := NewStore(path, 1000)

	var notified *models.Policy
	s.OnReplace(func(p *models.Policy) { notified = p })

	before := s.Snapshot()
	next, err := s.Replace(models.Policy{
		IndexOptions:  []string{"logs-*", "audit-*"},
		PiiFieldRules: []models.PiiRule{{Pattern: "user.email", Action: models.PiiMask}},
		MaxExportSize: 250,
	})
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	if next.Version != before.Version+1 {
		t.Errorf("Version = %d, want %d", next.Version, before.Version+1)
	}
	if s.Snapshot() != next || notified != next {
		t.Error("new snapshot should be published and announced")
	}
	if before.MaxExportSize != 1000 {
		t.Error("previous snapshot must not be mutated")
	}

	reloaded := NewStore(path, 1000)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.Snapshot(); got.MaxExportSize != 250 || len(got.PiiFieldRules) != 1 {
		t.Errorf("reloaded policy = %+v", got)
	}
}

func TestStore_ReplaceRejectsInvalid(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "policy.json"), 1000)
	before := s.Snapshot()

	_, err := s.Replace(models.Policy{
		PiiFieldRules: []models.PiiRule{{Pattern: "x", Action: "scramble"}},
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if s.Snapshot() != before {
		t.Error("snapshot must not change on validation failure")
	}
}

func TestStore_LoadCorruptKeepsCurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.json")
	if err := os.WriteFile(path, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	s := NewStore(path, 1000)
	before := s.Snapshot()

	if err := s.Load(); err == nil {
		t.Fatal("expected decode error")
	}
	if s.Snapshot() != before {
		t.Error("snapshot must not change when the file cannot be read")
	}
}

func TestStore_ConcurrentReadersSeeWholeSnapshots(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "policy.json"), 1000)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				p := s.Snapshot()
				// Every published snapshot pairs the two options with a
				// matching ceiling.
				if len(p.IndexOptions) == 2 && p.MaxExportSize != 2 {
					t.Errorf("torn snapshot: %+v", p)
					return
				}
			}
		}()
	}

	for i := 0; i < 20; i++ {
		if _, err := s.Replace(models.Policy{IndexOptions: []string{"a", "b"}, MaxExportSize: 2}); err != nil {
			t.Fatal(err)
		}
		if _, err := s.Replace(models.Policy{IndexOptions: []string{"a"}, MaxExportSize: 1}); err != nil {
			t.Fatal(err)
		}
	}
	close(stop)
	wg.Wait()
}
