// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package errorlog keeps route-boundary failures in BadgerDB so admins can
// review them after the fact.
//
// Keys sort by time, so listing iterates in reverse to return the most
// recent entries first. Entries expire through Badger's per-entry TTL.
package errorlog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

const (
	keyPrefix = "err:"

	// DefaultRetention applies when no retention is configured.
	DefaultRetention = 14 * 24 * time.Hour

	// DefaultListLimit caps List when the caller passes no limit.
	DefaultListLimit = 100

	gcInterval = 10 * time.Minute
)

// Store is a BadgerDB-backed error log.
type Store struct {
	db        *badger.DB
	retention time.Duration
	logger    zerolog.Logger
}

// Open opens the error log in dir. An empty dir selects an in-memory
// database that is discarded on Close.
func Open(dir string, retention time.Duration, logger zerolog.Logger) (*Store, error) {
	if retention <= 0 {
		retention = DefaultRetention
	}

	opts := badger.DefaultOptions(dir)
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts.ValueLogFileSize = 16 << 20 // 16MB, entries are small
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open error log: %w", err)
	}

	return &Store{
		db:        db,
		retention: retention,
		logger:    logger.With().Str("component", "errorlog").Logger(),
	}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func entryKey(e *models.ErrorEntry) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", keyPrefix, e.Time.UnixNano(), e.ID))
}

// Append stores an entry, assigning an ID and time when missing.
func (s *Store) Append(ctx context.Context, e models.ErrorEntry) (models.ErrorEntry, error) {
	if err := ctx.Err(); err != nil {
		return e, err
	}
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	data, err := json.Marshal(&e)
	if err != nil {
		return e, fmt.Errorf("marshal error entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(entryKey(&e), data).WithTTL(s.retention))
	})
	if err != nil {
		return e, fmt.Errorf("store error entry: %w", err)
	}

	metrics.RecordErrorLogEntry(e.Route, e.Status)
	return e, nil
}

// List returns up to limit entries, most recent first.
func (s *Store) List(ctx context.Context, limit int) ([]models.ErrorEntry, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	entries := make([]models.ErrorEntry, 0, limit)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(keyPrefix), 0xff)
		for it.Seek(seek); it.ValidForPrefix(opts.Prefix); it.Next() {
			if len(entries) >= limit {
				break
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			var e models.ErrorEntry
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &e)
			})
			if err != nil {
				s.logger.Warn().Err(err).Str("key", string(it.Item().Key())).Msg("Skipping unreadable error entry")
				continue
			}
			entries = append(entries, e)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list error entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of live entries.
func (s *Store) Count() (int, error) {
	count := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(keyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// RunGC reclaims value log space. It is a no-op for in-memory stores.
func (s *Store) RunGC() error {
	err := s.db.RunValueLogGC(0.5)
	if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrGCInMemoryMode) {
		return nil
	}
	return err
}

// Serve runs value log GC periodically until ctx is cancelled.
// It implements suture.Service.
func (s *Store) Serve(ctx context.Context) error {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := s.RunGC(); err != nil {
				s.logger.Warn().Err(err).Msg("Error log GC failed")
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// String implements fmt.Stringer for logging.
func (s *Store) String() string {
	return "error-log-gc"
}
