// Command boardwatch watches a board server for changes that concern one
// user and turns them into notifications, and optionally serves a
// self-hosted notification store.
//
// Wire-up order:
//  1. config and logger
//  2. repositories (SQLite store, cooldown backend)
//  3. websocket hub
//  4. services (token, auth, store, watcher)
//  5. handlers, middleware and routes
//  6. HTTP server, board feed and pruner
//  7. graceful shutdown: feed, pending remote writes, hub, server, storage
//
// There are no globals: everything is built here and passed down.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/pkg/logger"
	"github.com/akinalp/boardwatch/static"
	"github.com/akinalp/boardwatch/ws"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "boardwatch: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// ─── 1. Config & logging ───
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	rootLog, err := logger.New(cfg.App.Env, cfg.App.LogLevel)
	if err != nil {
		return err
	}
	defer rootLog.Sync() //nolint:errcheck
	log := logger.Component(rootLog, "main")
	log.Info("boardwatch starting",
		zap.String("env", cfg.App.Env),
		zap.Bool("watch", cfg.Watch.Enabled),
		zap.Bool("store", cfg.Store.Enabled))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	clk := clock.New()

	// ─── 2. Repositories ───
	repos, err := initRepositories(ctx, cfg, clk, rootLog)
	if err != nil {
		return err
	}
	defer repos.Close()

	// ─── 3. Hub ───
	hub := ws.NewHub(rootLog)

	// ─── 4. Services ───
	svcs, err := initServices(ctx, cfg, repos, hub, clk, rootLog)
	if err != nil {
		return err
	}
	initHubCallbacks(hub, svcs)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	hubDone := make(chan struct{})
	go func() {
		defer close(hubDone)
		hub.Run(hubCtx)
	}()

	// ─── 5. Handlers & routes ───
	h := initHandlers(cfg, svcs, hub)
	mux := http.NewServeMux()
	initRoutes(mux, h, cfg, svcs.Tokens, clk, rootLog)
	if svcs.Watch != nil {
		mux.Handle("GET /", static.Handler())
	}

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})

	// ─── 6. Server, feed, pruner ───
	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      corsHandler.Handler(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var feedErr chan error
	if svcs.Watch != nil {
		feed := initFeed(cfg, svcs, clk, rootLog)
		feedErr = make(chan error, 1)
		go func() { feedErr <- feed.Run(ctx) }()
	}
	go runPruner(ctx, repos, svcs, clk, logger.Component(rootLog, "pruner"))

	var runErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case err := <-serverErr:
		runErr = fmt.Errorf("server error: %w", err)
	case err := <-feedErr:
		runErr = fmt.Errorf("board feed stopped: %w", err)
		feedErr = nil
	}
	stop()

	// ─── 7. Graceful shutdown ───
	if feedErr != nil {
		if err := <-feedErr; err != nil {
			log.Warn("board feed stopped with error", zap.Error(err))
		}
	}
	if svcs.Emitter != nil {
		svcs.Emitter.Wait()
	}

	stopHub()
	<-hubDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("forced shutdown", zap.Error(err))
	}

	log.Info("stopped")
	return runErr
}
