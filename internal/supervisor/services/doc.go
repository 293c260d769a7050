// Loglens - Log Search, Export and Policy Proxy
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loglens

// Package services adapts components with other lifecycles to suture.Service.
//
// HTTPServerService turns ListenAndServe/Shutdown into Serve, draining
// connections on cancel. SchedulerService does the same for Start/Stop
// components such as the alert scheduler.
//
// Components that already block in Serve(ctx), like usage.Snapshotter and
// errorlog.Store, are added to the tree directly.
package services
