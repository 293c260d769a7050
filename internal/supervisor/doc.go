// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

/*
Package supervisor runs the long-lived Loglens services under suture v4.

The tree has three layers so that a crash loop in one does not take the
others down:

	RootSupervisor ("loglens")
	├── StorageSupervisor ("storage-layer")
	│   ├── usage.Snapshotter
	│   └── errorlog.Store (value log GC)
	├── BackgroundSupervisor ("background-layer")
	│   └── SchedulerService ("alert-scheduler")
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Supervisor events are logged through sutureslog, bridged into zerolog by
logging.NewSlogLogger.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
	    ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
	    return err
	}
	tree.AddStorageService(usage.NewSnapshotter(usageStore, path, interval, logger))
	tree.AddBackgroundService(services.NewSchedulerService(scheduler, "alert-scheduler"))
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
	    return err
	}

Services implement suture.Service: Serve(ctx) blocks until ctx is canceled,
and a returned error makes the supervisor restart the service with backoff.
*/
package supervisor
