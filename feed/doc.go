// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package feed pushes live collection snapshots to admin dashboards.

Each collection (tokens, candidates, votes, results) has a Loader that
reads its full current state. Writers call Notify after committing; Run
reloads the changed collections and hands the new snapshot to every
subscriber.

	hub := feed.NewHub(log)
	hub.Register(feed.Votes, loadVotes)
	go hub.Run(ctx)

	ch, cancel, err := hub.Subscribe(ctx, feed.Votes)
	defer cancel()
	for snap := range ch {
		// render snap.Data
	}

Subscribers always get a full snapshot, never a diff. A subscriber that
falls behind skips intermediate states and receives only the newest one.
*/
package feed
