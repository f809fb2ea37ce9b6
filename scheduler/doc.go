// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package scheduler records result snapshots in the background.

	snapshotter := scheduler.NewSnapshotter(svc, st, log)
	if err := snapshotter.Start("@every 5m"); err != nil {
		return err
	}
	defer snapshotter.Stop(ctx)

Each run tallies the ledger and stores a models.ResultSnapshot, unless
the inputs hash matches the previous snapshot. Admins can also force a
snapshot through POST /admin/snapshots, which calls Take(ctx, true).
*/
package scheduler
