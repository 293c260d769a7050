// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package policy

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/loglens/internal/jsonfile"
	"github.com/tomtom215/loglens/internal/logging"
	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

// DefaultIndexPattern is used when the policy file names none.
const DefaultIndexPattern = "logs-*"

// Store holds the current policy snapshot.
type Store struct {
	path             string
	defaultMaxExport int

	current atomic.Pointer[models.Policy]

	// writeMu serializes Replace calls; readers never take it.
	writeMu   sync.Mutex
	listeners []func(*models.Policy)
	logger    zerolog.Logger
}

// NewStore creates a store backed by the JSON file at path. The store starts
// with the default policy until Load is called.
func NewStore(path string, defaultMaxExport int) *Store {
	s := &Store{
		path:             path,
		defaultMaxExport: defaultMaxExport,
		logger:           logging.WithComponent("policy"),
	}
	s.publish(s.defaults())
	return s
}

func (s *Store) publish(p *models.Policy) {
	s.current.Store(p)
	metrics.PolicyVersion.Set(float64(p.Version))
}

func (s *Store) defaults() *models.Policy {
	return &models.Policy{
		IndexOptions:        []string{DefaultIndexPattern},
		TeamIndexAccess:     map[string][]string{},
		UserIndexAccess:     map[string][]string{},
		FeatureToggles:      map[string]models.Features{},
		MaxExportSize:       s.defaultMaxExport,
		DefaultIndexPattern: DefaultIndexPattern,
	}
}

// Load reads the policy file. A missing file leaves the default policy in
// place; any other failure is returned and the current snapshot is kept.
func (s *Store) Load() error {
	var p models.Policy
	if err := jsonfile.Load(s.path, &p); err != nil {
		if errors.Is(err, jsonfile.ErrNotFound) {
			s.logger.Info().Str("path", s.path).Msg("No policy file, using defaults")
			return nil
		}
		return err
	}

	s.normalize(&p)
	if err := Validate(&p); err != nil {
		return fmt.Errorf("policy file %s: %w", s.path, err)
	}

	s.publish(&p)
	s.logger.Info().
		Int64("version", p.Version).
		Int("pii_rules", len(p.PiiFieldRules)).
		Int("teams", len(p.FeatureToggles)).
		Msg("Policy loaded")
	return nil
}

// Snapshot returns the current policy. The result must not be modified.
func (s *Store) Snapshot() *models.Policy {
	return s.current.Load()
}

// MaxExportSize returns the export ceiling of the current snapshot.
func (s *Store) MaxExportSize() int {
	if p := s.Snapshot(); p.MaxExportSize > 0 {
		return p.MaxExportSize
	}
	return s.defaultMaxExport
}

// OnReplace registers fn to run after every successful Replace.
// Registration must happen before the store is shared.
func (s *Store) OnReplace(fn func(*models.Policy)) {
	s.listeners = append(s.listeners, fn)
}

// Replace validates, persists and publishes a whole new policy. The version
// is assigned by the store. On any error the current snapshot is unchanged.
func (s *Store) Replace(p models.Policy) (*models.Policy, error) {
	s.normalize(&p)
	if err := Validate(&p); err != nil {
		return nil, err
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	p.Version = s.Snapshot().Version + 1
	p.UpdatedAt = time.Now().UTC()

	if err := jsonfile.Save(s.path, &p); err != nil {
		return nil, fmt.Errorf("persist policy: %w", err)
	}

	next := &p
	s.publish(next)

	s.logger.Info().Int64("version", next.Version).Msg("Policy replaced")
	for _, fn := range s.listeners {
		fn(next)
	}
	return next, nil
}

func (s *Store) normalize(p *models.Policy) {
	if p.DefaultIndexPattern == "" {
		p.DefaultIndexPattern = DefaultIndexPattern
	}
	if len(p.IndexOptions) == 0 {
		p.IndexOptions = []string{p.DefaultIndexPattern}
	}
	if p.MaxExportSize == 0 {
		p.MaxExportSize = s.defaultMaxExport
	}
	if p.TeamIndexAccess == nil {
		p.TeamIndexAccess = map[string][]string{}
	}
	if p.UserIndexAccess == nil {
		p.UserIndexAccess = map[string][]string{}
	}
	if p.FeatureToggles == nil {
		p.FeatureToggles = map[string]models.Features{}
	}
}

// ValidationError describes why a policy was rejected.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid policy %s: %s", e.Field, e.Message)
}

// Validate checks semantic constraints that struct tags cannot express.
func Validate(p *models.Policy) error {
	if p.MaxExportSize < 0 {
		return &ValidationError{Field: "maxExportSize", Message: "must not be negative"}
	}
	for i, r := range p.PiiFieldRules {
		field := fmt.Sprintf("piiFieldRules[%d]", i)
		if strings.TrimSpace(r.Pattern) == "" {
			return &ValidationError{Field: field, Message: "pattern is required"}
		}
		switch r.Action {
		case models.PiiHide, models.PiiMask, models.PiiPartial:
		default:
			return &ValidationError{Field: field, Message: fmt.Sprintf("unknown action %q", r.Action)}
		}
	}
	for i, s := range p.IndexPatternSettings {
		if s.Pattern == "" {
			return &ValidationError{Field: fmt.Sprintf("indexPatternSettings[%d]", i), Message: "pattern is required"}
		}
		if s.SearchMode != "" && s.SearchMode != "and" && s.SearchMode != "or" {
			return &ValidationError{Field: fmt.Sprintf("indexPatternSettings[%d]", i), Message: `searchMode must be "and" or "or"`}
		}
	}
	for team, patterns := range p.TeamIndexAccess {
		if err := checkPatterns("teamIndexAccess."+team, patterns); err != nil {
			return err
		}
	}
	for user, patterns := range p.UserIndexAccess {
		if err := checkPatterns("userIndexAccess."+user, patterns); err != nil {
			return err
		}
	}
	return nil
}

func checkPatterns(field string, patterns []string) error {
	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			return &ValidationError{Field: field, Message: "empty index pattern"}
		}
	}
	return nil
}
