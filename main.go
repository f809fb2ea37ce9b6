// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/danielhkuo/school-vote/cliparse"
	"github.com/danielhkuo/school-vote/db"
	"github.com/danielhkuo/school-vote/feed"
	"github.com/danielhkuo/school-vote/handlers"
	"github.com/danielhkuo/school-vote/logger"
	"github.com/danielhkuo/school-vote/middleware"
	"github.com/danielhkuo/school-vote/router"
	"github.com/danielhkuo/school-vote/scheduler"
	"github.com/danielhkuo/school-vote/store"
	"github.com/danielhkuo/school-vote/voting"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Parse configuration
	cfg, err := cliparse.ParseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	zap.ReplaceGlobals(log)

	if err := run(cfg, log); err != nil {
		log.Error("server stopped with error", zap.Error(err))
		os.Exit(1)
	}
}

func run(cfg cliparse.Config, log *zap.Logger) error {
	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Connect and verify
	dbConn, err := db.Open(cfg.DatabaseType, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer dbConn.Close()

	// Create schema (tables)
	if err := db.CreateSchema(dbConn); err != nil {
		return fmt.Errorf("schema creation failed: %w", err)
	}
	log.Info("database schema ready", zap.String("type", cfg.DatabaseType))

	st := store.New(dbConn, log)

	// Live feed
	hub := feed.NewHub(log)
	svc := voting.NewService(st, hub, log, cfg.VoteTimeout)
	for c, load := range svc.FeedLoaders() {
		hub.Register(c, load)
	}
	go hub.Run(ctx)

	// First super admin
	accounts := handlers.NewAccountHandler(st, cfg, log)
	if err := accounts.Bootstrap(ctx); err != nil {
		return err
	}

	// Result snapshots
	snapshotter := scheduler.NewSnapshotter(svc, st, log)
	if cfg.SnapshotsEnabled() {
		if err := snapshotter.Start(cfg.SnapshotSchedule); err != nil {
			return err
		}
	}

	mux := router.NewRouter(router.Deps{
		Config:    cfg,
		Log:       log,
		DB:        st,
		Voting:    svc,
		Admins:    st,
		Snapshots: snapshotter,
		Feed:      hub,
	})

	server := http.Server{
		Handler:           middleware.CORS(cfg.AllowedOrigins)(mux),
		Addr:              ":" + strconv.Itoa(cfg.Port),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// signal.Notify requires the channel to be buffered
	ctrlc := make(chan os.Signal, 1)
	signal.Notify(ctrlc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ctrlc
		log.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		snapshotter.Stop(shutdownCtx)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Warn("graceful shutdown failed, closing", zap.Error(err))
			server.Close()
		}
		stop()
	}()

	log.Info("listening", zap.Int("port", cfg.Port))
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	log.Info("server closed")
	return nil
}
