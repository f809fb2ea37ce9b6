// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Collection names a data set dashboards can watch
type Collection string

const (
	Tokens     Collection = "tokens"
	Candidates Collection = "candidates"
	Votes      Collection = "votes"
	Results    Collection = "results"
)

var ErrUnknownCollection = errors.New("feed: unknown collection")

// Snapshot is the full current state of one collection
type Snapshot struct {
	Collection Collection `json:"collection"`
	Data       any        `json:"data"`
	At         time.Time  `json:"at"`
}

// Loader reads the current state of a collection
type Loader func(ctx context.Context) (any, error)

// Notifier is told which collections changed after a write commits
type Notifier interface {
	Notify(collections ...Collection)
}

type subscriber struct {
	ch chan Snapshot
}

// send replaces any undelivered snapshot so slow readers only ever see
// the latest state
func (s *subscriber) send(snap Snapshot) {
	for {
		select {
		case s.ch <- snap:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Hub fans collection snapshots out to subscribers. Reloads happen on a
// single goroutine (Run), so subscribers receive snapshots in commit order.
type Hub struct {
	log     *zap.Logger
	timeout time.Duration

	mu      sync.Mutex
	loaders map[Collection]Loader
	subs    map[Collection]map[*subscriber]struct{}
	dirty   map[Collection]bool
	wake    chan struct{}
}

func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	return &Hub{
		log:     log,
		timeout: 5 * time.Second,
		loaders: make(map[Collection]Loader),
		subs:    make(map[Collection]map[*subscriber]struct{}),
		dirty:   make(map[Collection]bool),
		wake:    make(chan struct{}, 1),
	}
}

// Register installs the loader for a collection
func (h *Hub) Register(c Collection, load Loader) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.loaders[c] = load
}

// Subscribe returns a channel that immediately carries the current
// snapshot and then a fresh one after every change. Call cancel to stop;
// the channel is closed afterwards.
func (h *Hub) Subscribe(ctx context.Context, c Collection) (<-chan Snapshot, func(), error) {
	h.mu.Lock()
	load, ok := h.loaders[c]
	h.mu.Unlock()
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnknownCollection, c)
	}

	initial, err := h.load(ctx, c, load)
	if err != nil {
		return nil, nil, err
	}

	sub := &subscriber{ch: make(chan Snapshot, 1)}
	sub.ch <- initial

	h.mu.Lock()
	if h.subs[c] == nil {
		h.subs[c] = make(map[*subscriber]struct{})
	}
	h.subs[c][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[c], sub)
			close(sub.ch)
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel, nil
}

// Notify marks collections as changed. It never blocks on subscribers.
func (h *Hub) Notify(collections ...Collection) {
	h.mu.Lock()
	for _, c := range collections {
		h.dirty[c] = true
	}
	h.mu.Unlock()

	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// Run reloads and broadcasts changed collections until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-h.wake:
			h.flush(ctx)
		}
	}
}

func (h *Hub) flush(ctx context.Context) {
	h.mu.Lock()
	pending := h.dirty
	h.dirty = make(map[Collection]bool)
	h.mu.Unlock()

	for c := range pending {
		h.mu.Lock()
		load, ok := h.loaders[c]
		watched := len(h.subs[c]) > 0
		h.mu.Unlock()
		if !ok || !watched {
			continue
		}

		snap, err := h.load(ctx, c, load)
		if err != nil {
			h.log.Error("failed to load feed snapshot", zap.String("collection", string(c)), zap.Error(err))
			continue
		}

		h.mu.Lock()
		for sub := range h.subs[c] {
			sub.send(snap)
		}
		h.mu.Unlock()
	}
}

func (h *Hub) load(ctx context.Context, c Collection, load Loader) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	data, err := load(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load %s: %w", c, err)
	}
	return Snapshot{Collection: c, Data: data, At: time.Now().UTC()}, nil
}
