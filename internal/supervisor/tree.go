// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig tunes restart behavior. Zero fields take DefaultTreeConfig
// values.
type TreeConfig struct {
	// FailureThreshold is how many failures (decaying over FailureDecay
	// seconds) put a layer into backoff for FailureBackoff.
	FailureThreshold float64
	FailureDecay     float64
	FailureBackoff   time.Duration

	// ShutdownTimeout bounds how long each service gets to return after
	// its context is canceled.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig mirrors suture's own defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

func (c TreeConfig) withDefaults() TreeConfig {
	d := DefaultTreeConfig()
	if c.FailureThreshold == 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay == 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff == 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c TreeConfig) spec(hook suture.EventHook) suture.Spec {
	return suture.Spec{
		EventHook:        hook,
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// SupervisorTree runs Loglens's long-lived services in three layers, each
// with its own restart budget:
//
//	loglens
//	├── storage-layer     usage snapshotter, error log GC
//	├── background-layer  alert scheduler
//	└── api-layer         HTTP server
//
// A scheduler stuck in a crash loop backs off without taking the HTTP
// server down with it.
type SupervisorTree struct {
	root       *suture.Supervisor
	storage    *suture.Supervisor
	background *suture.Supervisor
	api        *suture.Supervisor
	config     TreeConfig
}

// NewSupervisorTree builds the tree. Supervisor events (restarts,
// backoff, stop timeouts) are logged through logger.
func NewSupervisorTree(logger *slog.Logger, config TreeConfig) (*SupervisorTree, error) {
	config = config.withDefaults()

	// Layers added to root inherit its event hook.
	root := suture.New("loglens", config.spec((&sutureslog.Handler{Logger: logger}).MustHook()))
	t := &SupervisorTree{
		root:       root,
		storage:    suture.New("storage-layer", config.spec(nil)),
		background: suture.New("background-layer", config.spec(nil)),
		api:        suture.New("api-layer", config.spec(nil)),
		config:     config,
	}
	for _, layer := range []*suture.Supervisor{t.storage, t.background, t.api} {
		root.Add(layer)
	}
	return t, nil
}

func (t *SupervisorTree) Root() *suture.Supervisor { return t.root }

// AddStorageService adds a service that persists local state.
func (t *SupervisorTree) AddStorageService(svc suture.Service) suture.ServiceToken {
	return t.storage.Add(svc)
}

// AddBackgroundService adds a periodic job.
func (t *SupervisorTree) AddBackgroundService(svc suture.Service) suture.ServiceToken {
	return t.background.Add(svc)
}

func (t *SupervisorTree) AddAPIService(svc suture.Service) suture.ServiceToken {
	return t.api.Add(svc)
}

// Serve blocks until ctx is canceled and every layer has stopped.
func (t *SupervisorTree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground is Serve on its own goroutine; the result arrives on
// the returned channel.
func (t *SupervisorTree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport names services that outlived ShutdownTimeout.
func (t *SupervisorTree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
