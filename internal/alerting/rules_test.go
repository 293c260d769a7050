// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerting

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/loglens/internal/models"
)

func TestRuleStore_LoadMissingFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewRuleStore(filepath.Join(dir, "rules.json"), filepath.Join(dir, "state.json"))
	if err := s.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(s.Rules()) != 0 {
		t.Errorf("Rules() = %v, want empty", s.Rules())
	}
}

func TestRuleStore_PersistsRulesAndState(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")
	statePath := filepath.Join(dir, "state.json")

	s := NewRuleStore(rulesPath, statePath)
	rules := []models.AlertRule{
		{ID: "a", Name: "A", Query: "x", Threshold: 1, WindowMinutes: 60},
		{ID: "b", Name: "B", Query: "y", Threshold: 2, WindowMinutes: 30},
	}
	if err := s.Replace(rules); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	at := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	if err := s.MarkTriggered("a", at); err != nil {
		t.Fatalf("MarkTriggered() error = %v", err)
	}

	reloaded := NewRuleStore(rulesPath, statePath)
	if err := reloaded.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := reloaded.Rules(); len(got) != 2 || got[1].ID != "b" {
		t.Errorf("Rules() = %+v", got)
	}
	if last, ok := reloaded.LastTriggered("a"); !ok || !last.Equal(at) {
		t.Errorf("LastTriggered(a) = %v, %v", last, ok)
	}
	if _, ok := reloaded.LastTriggered("b"); ok {
		t.Error("rule b should have no state")
	}
}

func TestRuleStore_StateOfRemovedRulesIsDropped(t *testing.T) {
	dir := t.TempDir()
	s := NewRuleStore(filepath.Join(dir, "rules.json"), filepath.Join(dir, "state.json"))

	_ = s.Replace([]models.AlertRule{{ID: "a"}, {ID: "b"}})
	_ = s.MarkTriggered("a", time.Now())
	_ = s.Replace([]models.AlertRule{{ID: "b"}})
	_ = s.MarkTriggered("b", time.Now())

	if _, ok := s.LastTriggered("a"); ok {
		t.Error("state for removed rule a survived")
	}
}

func TestRuleStore_RejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	rulesPath := filepath.Join(dir, "rules.json")
	s := NewRuleStore(rulesPath, filepath.Join(dir, "state.json"))

	err := s.Replace([]models.AlertRule{{ID: "a"}, {ID: "a"}})
	if !errors.Is(err, ErrDuplicateRule) {
		t.Fatalf("Replace() error = %v, want ErrDuplicateRule", err)
	}
	if _, statErr := os.Stat(rulesPath); !os.IsNotExist(statErr) {
		t.Error("rejected rule set was written")
	}
}

func TestRuleStore_RulesReturnsCopy(t *testing.T) {
	dir := t.TempDir()
	s := NewRuleStore(filepath.Join(dir, "rules.json"), filepath.Join(dir, "state.json"))
	_ = s.Replace([]models.AlertRule{{ID: "a", Name: "A"}})

	got := s.Rules()
	got[0].Name = "changed"
	if s.Rules()[0].Name != "A" {
		t.Error("Rules() exposed internal slice")
	}
}
