// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package supervisor

import (
	"context"
	"errors"
	"sync/atomic"
)

// MockService is a suture.Service whose behavior tests control.
type MockService struct {
	name       string
	starts     atomic.Int32
	failures   atomic.Int32
	failBudget atomic.Int32
}

// NewMockService creates a service that runs until canceled.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve fails immediately while the fail budget lasts, then blocks.
func (m *MockService) Serve(ctx context.Context) error {
	m.starts.Add(1)
	if m.failures.Add(1) <= m.failBudget.Load() {
		return errors.New("simulated failure")
	}
	<-ctx.Done()
	return ctx.Err()
}

// SetFailCount makes the next n calls to Serve fail.
func (m *MockService) SetFailCount(n int) {
	m.failures.Store(0)
	m.failBudget.Store(int32(n))
}

// StartCount returns how many times Serve was called.
func (m *MockService) StartCount() int32 {
	return m.starts.Load()
}

func (m *MockService) String() string {
	return m.name
}
