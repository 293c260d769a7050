// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package alerting evaluates query-volume alert rules on a fixed interval
// and notifies by email.
//
// Each cycle, for every rule with a positive threshold:
//  1. Sums the rule's query count over ceil(windowMinutes/60) hour buckets
//  2. Fires when the count exceeds the threshold and the rule has not fired
//     within its window
//  3. Sends the notification and records the fire time only if the send
//     succeeded, so a failed send is retried on the next cycle
//
// Failures are logged per rule and never stop the remaining rules.
package alerting

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/loglens/internal/metrics"
	"github.com/tomtom215/loglens/internal/models"
)

// DefaultInterval is the evaluation period.
const DefaultInterval = 5 * time.Minute

// QueryCounter reports how often a query was searched in trailing hour buckets.
type QueryCounter interface {
	HourlyQueryCount(query string, hours int, now time.Time) int64
}

// Config holds scheduler settings.
type Config struct {
	// Interval between evaluations (default: 5 minutes)
	Interval time.Duration

	// DefaultRecipient receives alerts for rules without an email
	DefaultRecipient string

	// Enabled controls whether the ticker loop runs. Evaluate works either way.
	Enabled bool
}

// Scheduler periodically evaluates alert rules.
type Scheduler struct {
	rules   *RuleStore
	counter QueryCounter
	sender  Sender
	logger  zerolog.Logger
	config  Config
	now     func() time.Time

	// evalMu keeps manual and periodic evaluations from overlapping.
	evalMu sync.Mutex

	// Runtime state
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewScheduler creates a new alert scheduler.
func NewScheduler(rules *RuleStore, counter QueryCounter, sender Sender, logger *zerolog.Logger, config Config) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	return &Scheduler{
		rules:   rules,
		counter: counter,
		sender:  sender,
		logger:  logger.With().Str("component", "alert-scheduler").Logger(),
		config:  config,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *Scheduler) SetClock(now func() time.Time) {
	s.now = now
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}
	s.running = true
	stop, done := make(chan struct{}), make(chan struct{})
	s.stopCh, s.doneCh = stop, done
	s.mu.Unlock()

	if !s.config.Enabled {
		s.logger.Info().Msg("Alert scheduler disabled")
		go func() {
			defer close(done)
			<-stop
		}()
		return nil
	}

	s.logger.Info().Dur("interval", s.config.Interval).Msg("Starting alert scheduler")

	go s.run(ctx, stop, done)
	return nil
}

// Stop stops the scheduler loop and waits for it to complete. Concurrent
// calls are safe; all but the first return once the loop has exited.
func (s *Scheduler) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}

	// The loop never takes mu, so waiting here cannot deadlock.
	close(s.stopCh)
	<-s.doneCh
	s.running = false

	s.logger.Info().Msg("Alert scheduler stopped")
	return nil
}

// IsRunning returns whether the scheduler is currently running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Scheduler) run(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// Run immediately on start
	s.Evaluate(ctx)

	for {
		select {
		case <-ticker.C:
			s.Evaluate(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Evaluate runs one evaluation cycle and returns the IDs of the rules whose
// notification was sent.
func (s *Scheduler) Evaluate(ctx context.Context) []string {
	s.evalMu.Lock()
	defer s.evalMu.Unlock()

	metrics.AlertEvaluations.Inc()
	now := s.now()
	fired := []string{}

	for _, rule := range s.rules.Rules() {
		if ctx.Err() != nil {
			break
		}
		if rule.Threshold <= 0 {
			continue
		}
		if s.evaluateRule(ctx, rule, now) {
			fired = append(fired, rule.ID)
		}
	}
	return fired
}

func (s *Scheduler) evaluateRule(ctx context.Context, rule models.AlertRule, now time.Time) bool {
	logger := s.logger.With().Str("rule_id", rule.ID).Logger()

	count := s.counter.HourlyQueryCount(rule.Query, WindowHours(rule.WindowMinutes), now)
	if count <= int64(rule.Threshold) {
		return false
	}

	window := time.Duration(rule.WindowMinutes) * time.Minute
	if last, ok := s.rules.LastTriggered(rule.ID); ok && now.Sub(last) < window {
		metrics.RecordAlert("suppressed")
		logger.Debug().Time("last_triggered", last).Int64("count", count).Msg("Alert suppressed within window")
		return false
	}

	to := rule.Email
	if to == "" {
		to = s.config.DefaultRecipient
	}

	subject, body := composeMessage(rule, count, now)
	if err := s.sender.SendAlert(ctx, subject, body, to); err != nil {
		metrics.RecordAlert("failed")
		logger.Error().Err(err).Str("recipient", to).Msg("Failed to send alert")
		return false
	}

	metrics.RecordAlert("sent")
	if err := s.rules.MarkTriggered(rule.ID, now); err != nil {
		logger.Error().Err(err).Msg("Failed to persist alert state")
	}

	logger.Info().
		Int64("count", count).
		Int("threshold", rule.Threshold).
		Str("recipient", to).
		Msg("Alert sent")
	return true
}

// WindowHours is the number of hour buckets read for a window.
func WindowHours(windowMinutes int) int {
	if windowMinutes <= 0 {
		return 1
	}
	return (windowMinutes + 59) / 60
}

func composeMessage(rule models.AlertRule, count int64, now time.Time) (subject, body string) {
	name := rule.Name
	if name == "" {
		name = rule.ID
	}
	subject = fmt.Sprintf("[Loglens] Alert: %s", name)

	var b strings.Builder
	fmt.Fprintf(&b, "Alert rule %q (%s) triggered at %s.\n\n", name, rule.ID, now.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "Query:     %s\n", rule.Query)
	fmt.Fprintf(&b, "Threshold: %d\n", rule.Threshold)
	fmt.Fprintf(&b, "Window:    %d minutes\n", rule.WindowMinutes)
	fmt.Fprintf(&b, "Count:     %d\n", count)
	if rule.Team != "" {
		fmt.Fprintf(&b, "Team:      %s\n", rule.Team)
	}
	return subject, b.String()
}
