// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package usage keeps rolling search and export counters.
//
// Counters are bucketed per UTC day for the admin report and per UTC hour
// for alert evaluation. A capped feed of recent activity is kept alongside.
// The whole store is persisted as one JSON document by the Snapshotter.
package usage

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/loglens/internal/config"
	"github.com/tomtom215/loglens/internal/jsonfile"
	"github.com/tomtom215/loglens/internal/models"
)

const (
	dayLayout  = "2006-01-02"
	hourLayout = "2006-01-02T15"
)

// Store is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	daily    map[string]*models.DayBucket
	hourly   map[string]*models.HourBucket
	activity []models.ActivityEntry // most recent first
	dirty    bool

	dailyRetention  int
	hourlyRetention int
	activityLimit   int
	now             func() time.Time
}

// NewStore creates an empty store. Zero retention values fall back to
// 30 days, 168 hours and 500 activity entries.
func NewStore(cfg config.UsageConfig) *Store {
	s := &Store{
		daily:           make(map[string]*models.DayBucket),
		hourly:          make(map[string]*models.HourBucket),
		dailyRetention:  cfg.DailyRetention,
		hourlyRetention: cfg.HourlyRetention,
		activityLimit:   cfg.ActivityLimit,
		now:             time.Now,
	}
	if s.dailyRetention <= 0 {
		s.dailyRetention = 30
	}
	if s.hourlyRetention <= 0 {
		s.hourlyRetention = 168
	}
	if s.activityLimit <= 0 {
		s.activityLimit = 500
	}
	return s
}

// SetClock replaces the time source. Intended for tests.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

// NormalizeQuery is the form under which query text is counted. Alert rules
// are matched against the same form.
func NormalizeQuery(q string) string {
	q = strings.TrimSpace(q)
	if q == "" {
		return "*"
	}
	return q
}

// RecordSearch counts one search.
func (s *Store) RecordSearch(query, ip string, meta models.ActivityMeta) {
	query = NormalizeQuery(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	day := s.dayBucket(now)
	day.Searches++
	day.Queries[query]++
	countKey(day.IPs, ip)
	countKey(day.Users, meta.User)

	hour := s.hourBucket(now)
	hour.Searches++
	hour.Queries[query]++

	s.pushActivity(models.ActivityEntry{
		Time:         now,
		Kind:         models.ActivitySearch,
		Query:        query,
		IP:           ip,
		ActivityMeta: meta,
	})
	s.pruneLocked(now)
}

// RecordExport counts one completed export. query is the export's query
// text; it is listed in the daily report but not in the hourly counts that
// alert rules read.
func (s *Store) RecordExport(format, query, ip string, meta models.ActivityMeta) {
	query = NormalizeQuery(query)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	day := s.dayBucket(now)
	day.Exports++
	day.Queries[query]++
	countKey(day.IPs, ip)
	countKey(day.Users, meta.User)
	countKey(day.ExportsByFormat, format)

	s.hourBucket(now).Exports++

	s.pushActivity(models.ActivityEntry{
		Time:         now,
		Kind:         models.ActivityExport,
		Query:        query,
		Format:       format,
		IP:           ip,
		ActivityMeta: meta,
	})
	s.pruneLocked(now)
}

// HourlyQueryCount sums the searches for query across the hour bucket
// containing now and the hours-1 buckets before it.
func (s *Store) HourlyQueryCount(query string, hours int, now time.Time) int64 {
	query = NormalizeQuery(query)
	now = now.UTC().Truncate(time.Hour)

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for i := 0; i < hours; i++ {
		if b, ok := s.hourly[now.Add(-time.Duration(i)*time.Hour).Format(hourLayout)]; ok {
			total += b.Queries[query]
		}
	}
	return total
}

// Daily returns up to days of the most recent daily buckets, oldest first.
// Days without activity are omitted.
func (s *Store) Daily(days int) []models.DailyUsage {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := make([]string, 0, len(s.daily))
	for k := range s.daily {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if days > 0 && len(keys) > days {
		keys = keys[len(keys)-days:]
	}

	out := make([]models.DailyUsage, len(keys))
	for i, k := range keys {
		out[i] = models.DailyUsage{Date: k, DayBucket: copyDay(s.daily[k])}
	}
	return out
}

// Activity returns up to limit entries, most recent first.
func (s *Store) Activity(limit int) []models.ActivityEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.activity) {
		limit = len(s.activity)
	}
	out := make([]models.ActivityEntry, limit)
	copy(out, s.activity[:limit])
	return out
}

// Snapshot returns a deep copy of the store contents.
func (s *Store) Snapshot() models.UsageSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() models.UsageSnapshot {
	snap := models.UsageSnapshot{
		Daily:    make(map[string]*models.DayBucket, len(s.daily)),
		Hourly:   make(map[string]*models.HourBucket, len(s.hourly)),
		Activity: make([]models.ActivityEntry, len(s.activity)),
	}
	for k, v := range s.daily {
		d := copyDay(v)
		snap.Daily[k] = &d
	}
	for k, v := range s.hourly {
		h := models.HourBucket{Searches: v.Searches, Exports: v.Exports, Queries: copyCounts(v.Queries)}
		snap.Hourly[k] = &h
	}
	copy(snap.Activity, s.activity)
	return snap
}

// Load replaces the store contents with the snapshot at path. A missing
// file leaves the store empty and is not an error.
func (s *Store) Load(path string) error {
	var snap models.UsageSnapshot
	if err := jsonfile.Load(path, &snap); err != nil {
		if errors.Is(err, jsonfile.ErrNotFound) {
			return nil
		}
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.daily = make(map[string]*models.DayBucket, len(snap.Daily))
	for k, v := range snap.Daily {
		if v == nil {
			continue
		}
		d := copyDay(v)
		s.daily[k] = &d
	}
	s.hourly = make(map[string]*models.HourBucket, len(snap.Hourly))
	for k, v := range snap.Hourly {
		if v == nil {
			continue
		}
		s.hourly[k] = &models.HourBucket{Searches: v.Searches, Exports: v.Exports, Queries: copyCounts(v.Queries)}
	}
	s.activity = snap.Activity
	if len(s.activity) > s.activityLimit {
		s.activity = s.activity[:s.activityLimit]
	}
	s.pruneLocked(s.now().UTC())
	s.dirty = false
	return nil
}

// Save writes the store to path if anything changed since the last save.
func (s *Store) Save(path string) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	snap := s.snapshotLocked()
	s.dirty = false
	s.mu.Unlock()

	if err := jsonfile.Save(path, snap); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) dayBucket(now time.Time) *models.DayBucket {
	key := now.Format(dayLayout)
	b, ok := s.daily[key]
	if !ok {
		b = &models.DayBucket{
			Queries:         make(map[string]int64),
			IPs:             make(map[string]int64),
			Users:           make(map[string]int64),
			ExportsByFormat: make(map[string]int64),
		}
		s.daily[key] = b
	}
	return b
}

func (s *Store) hourBucket(now time.Time) *models.HourBucket {
	key := now.Format(hourLayout)
	b, ok := s.hourly[key]
	if !ok {
		b = &models.HourBucket{Queries: make(map[string]int64)}
		s.hourly[key] = b
	}
	return b
}

func (s *Store) pushActivity(e models.ActivityEntry) {
	e.ID = uuid.NewString()
	s.activity = append(s.activity, models.ActivityEntry{})
	copy(s.activity[1:], s.activity)
	s.activity[0] = e
	if len(s.activity) > s.activityLimit {
		s.activity = s.activity[:s.activityLimit]
	}
	s.dirty = true
}

// pruneLocked drops buckets older than the retention windows. Keys sort
// lexically in time order, so a string comparison against the cutoff key
// is enough.
func (s *Store) pruneLocked(now time.Time) {
	dayCutoff := now.AddDate(0, 0, -(s.dailyRetention - 1)).Format(dayLayout)
	for k := range s.daily {
		if k < dayCutoff {
			delete(s.daily, k)
			s.dirty = true
		}
	}
	hourCutoff := now.Truncate(time.Hour).Add(-time.Duration(s.hourlyRetention-1) * time.Hour).Format(hourLayout)
	for k := range s.hourly {
		if k < hourCutoff {
			delete(s.hourly, k)
			s.dirty = true
		}
	}
}

func countKey(m map[string]int64, key string) {
	if key != "" {
		m[key]++
	}
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func copyDay(b *models.DayBucket) models.DayBucket {
	return models.DayBucket{
		Searches:        b.Searches,
		Exports:         b.Exports,
		Queries:         copyCounts(b.Queries),
		IPs:             copyCounts(b.IPs),
		Users:           copyCounts(b.Users),
		ExportsByFormat: copyCounts(b.ExportsByFormat),
	}
}
