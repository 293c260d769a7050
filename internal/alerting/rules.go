// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package alerting

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tomtom215/loglens/internal/jsonfile"
	"github.com/tomtom215/loglens/internal/models"
)

// ErrDuplicateRule is returned when a rule set repeats an ID.
var ErrDuplicateRule = errors.New("duplicate alert rule id")

// RuleStore holds the alert rules and their last-fired state, each backed
// by its own JSON file.
type RuleStore struct {
	rulesPath string
	statePath string

	mu    sync.RWMutex
	rules []models.AlertRule
	state map[string]time.Time
}

// NewRuleStore creates an empty store. Call Load to read the files.
func NewRuleStore(rulesPath, statePath string) *RuleStore {
	return &RuleStore{
		rulesPath: rulesPath,
		statePath: statePath,
		state:     make(map[string]time.Time),
	}
}

// Load reads both files. Missing files leave the store empty.
func (s *RuleStore) Load() error {
	var set models.AlertRuleSet
	if err := jsonfile.Load(s.rulesPath, &set); err != nil && !errors.Is(err, jsonfile.ErrNotFound) {
		return fmt.Errorf("load alert rules: %w", err)
	}
	if err := checkUnique(set.Rules); err != nil {
		return fmt.Errorf("load alert rules: %w", err)
	}

	var st models.AlertState
	if err := jsonfile.Load(s.statePath, &st); err != nil && !errors.Is(err, jsonfile.ErrNotFound) {
		return fmt.Errorf("load alert state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = set.Rules
	s.state = make(map[string]time.Time, len(st.LastTriggeredAt))
	for id, t := range st.LastTriggeredAt {
		s.state[id] = t
	}
	return nil
}

// Rules returns a copy of the configured rules.
func (s *RuleStore) Rules() []models.AlertRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AlertRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Replace persists and installs a new rule set. State entries of removed
// rules are dropped on the next state save.
func (s *RuleStore) Replace(rules []models.AlertRule) error {
	if err := checkUnique(rules); err != nil {
		return err
	}
	if rules == nil {
		rules = []models.AlertRule{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := jsonfile.Save(s.rulesPath, models.AlertRuleSet{Rules: rules}); err != nil {
		return fmt.Errorf("persist alert rules: %w", err)
	}
	s.rules = append([]models.AlertRule(nil), rules...)
	return nil
}

// LastTriggered returns when the rule last fired successfully.
func (s *RuleStore) LastTriggered(id string) (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.state[id]
	return t, ok
}

// MarkTriggered records a successful fire and saves the state file.
// The in-memory state is updated even if the save fails.
func (s *RuleStore) MarkTriggered(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state[id] = at

	live := make(map[string]time.Time, len(s.rules))
	for _, r := range s.rules {
		if t, ok := s.state[r.ID]; ok {
			live[r.ID] = t
		}
	}
	s.state = live

	if err := jsonfile.Save(s.statePath, models.AlertState{LastTriggeredAt: live}); err != nil {
		return fmt.Errorf("persist alert state: %w", err)
	}
	return nil
}

func checkUnique(rules []models.AlertRule) error {
	seen := make(map[string]struct{}, len(rules))
	for _, r := range rules {
		if _, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateRule, r.ID)
		}
		seen[r.ID] = struct{}{}
	}
	return nil
}
