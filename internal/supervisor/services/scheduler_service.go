// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package services

import (
	"context"
	"fmt"
)

// Scheduler is a component with a Start/Stop lifecycle, such as
// *alerting.Scheduler.
type Scheduler interface {
	Start(ctx context.Context) error
	Stop() error
}

// SchedulerService adapts a Start/Stop scheduler to suture's Serve pattern.
// A failed Start is returned so the supervisor retries with backoff.
type SchedulerService struct {
	scheduler Scheduler
	name      string
}

// NewSchedulerService wraps scheduler under name.
//
//	tree.AddBackgroundService(services.NewSchedulerService(alertScheduler, "alert-scheduler"))
func NewSchedulerService(scheduler Scheduler, name string) *SchedulerService {
	return &SchedulerService{scheduler: scheduler, name: name}
}

// Serve implements suture.Service.
func (s *SchedulerService) Serve(ctx context.Context) error {
	if err := s.scheduler.Start(ctx); err != nil {
		return fmt.Errorf("%s start failed: %w", s.name, err)
	}

	<-ctx.Done()

	if err := s.scheduler.Stop(); err != nil {
		return fmt.Errorf("%s stop failed: %w", s.name, err)
	}
	return ctx.Err()
}

func (s *SchedulerService) String() string {
	return s.name
}
