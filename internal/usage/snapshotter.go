// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package usage

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/loglens/internal/metrics"
)

// Snapshotter periodically persists a Store. It implements suture.Service.
type Snapshotter struct {
	store    *Store
	path     string
	interval time.Duration
	logger   zerolog.Logger
}

// NewSnapshotter creates a snapshotter saving store to path every interval.
func NewSnapshotter(store *Store, path string, interval time.Duration, logger zerolog.Logger) *Snapshotter {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Snapshotter{
		store:    store,
		path:     path,
		interval: interval,
		logger:   logger.With().Str("component", "usage-snapshotter").Logger(),
	}
}

// Serve saves on every tick and once more when ctx is cancelled.
func (s *Snapshotter) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.save()
		case <-ctx.Done():
			s.save()
			return ctx.Err()
		}
	}
}

func (s *Snapshotter) save() {
	err := s.store.Save(s.path)
	metrics.RecordUsageSnapshot(err)
	if err != nil {
		s.logger.Error().Err(err).Str("path", s.path).Msg("Failed to save usage snapshot")
	}
}

// String implements fmt.Stringer for logging.
func (s *Snapshotter) String() string {
	return "usage-snapshotter"
}
