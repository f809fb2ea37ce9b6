// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// Subscriber is the read side of feed.Hub
type Subscriber interface {
	Subscribe(ctx context.Context, c feed.Collection) (<-chan feed.Snapshot, func(), error)
}

// FeedHandler streams live collection snapshots to the dashboard
type FeedHandler struct {
	hub      Subscriber
	upgrader websocket.Upgrader
	log      *zap.Logger
}

// NewFeedHandler accepts websocket handshakes from allowedOrigins, or from
// any origin when the list is empty
func NewFeedHandler(hub Subscriber, allowedOrigins []string, log *zap.Logger) *FeedHandler {
	return &FeedHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

// Serve handles GET /admin/feed?collection=tokens|candidates|votes|results
// The current snapshot is sent on connect and again after every change.
func (h *FeedHandler) Serve(w http.ResponseWriter, r *http.Request) {
	collection := feed.Collection(r.URL.Query().Get("collection"))
	if collection == "" {
		collection = feed.Results
	}

	snapshots, unsubscribe, err := h.hub.Subscribe(r.Context(), collection)
	if errors.Is(err, feed.ErrUnknownCollection) {
		middleware.ErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.Error("failed to subscribe to feed", zap.String("collection", string(collection)), zap.Error(err))
		middleware.ErrorResponse(w, http.StatusServiceUnavailable, "Feed unavailable")
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	h.log.Info("feed subscriber connected", zap.String("collection", string(collection)), actor(r))

	// The dashboard never sends anything; reading only tracks pongs and
	// notices the close
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Debug("feed read error", zap.Error(err))
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(snap); err != nil {
				h.log.Debug("feed write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-closed:
			h.log.Info("feed subscriber disconnected", zap.String("collection", string(collection)))
			return
		}
	}
}
