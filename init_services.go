package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/apiclient"
	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg/email"
	"github.com/akinalp/boardwatch/pkg/i18n"
	"github.com/akinalp/boardwatch/services"
	"github.com/akinalp/boardwatch/ws"
)

// Services holds the business layer. Store is nil when the self-hosted
// store is disabled; Watch, Inbox and Emitter are nil when the watcher is.
type Services struct {
	Tokens services.TokenService
	Auth   services.AuthService
	Store  services.NotificationService

	Watch       services.WatchService
	Inbox       services.InboxService
	Emitter     *services.Emitter
	Memberships *services.MembershipTracker
	Assignments *services.AssignmentTracker
}

func boardClientOptions(cfg *config.Config, log *zap.Logger) []apiclient.Option {
	return []apiclient.Option{
		apiclient.WithHTTPClient(&http.Client{Timeout: cfg.Board.RequestTimeout}),
		apiclient.WithLogger(log),
	}
}

// initServices builds the services. With the watcher enabled it asks the
// board server who the configured token belongs to; that user is the viewer.
func initServices(ctx context.Context, cfg *config.Config, repos *Repositories, hub ws.EventPublisher, clk clock.Clock, log *zap.Logger) (*Services, error) {
	opts := boardClientOptions(cfg, log)

	svcs := &Services{
		Tokens: services.NewTokenService(cfg.JWT.Secret, cfg.JWT.TokenExpiry, clk),
	}
	svcs.Auth = services.NewAuthService(func(boardToken string) services.Identity {
		return apiclient.New(cfg.Board.APIURL, boardToken, opts...)
	}, svcs.Tokens, log)

	if cfg.Store.Enabled {
		svcs.Store = services.NewNotificationService(repos.Notifications, cfg.Store.ListLimit, clk, log)
	}

	if !cfg.Watch.Enabled {
		return svcs, nil
	}

	board := apiclient.New(cfg.Board.APIURL, cfg.Board.Token, opts...)
	viewer, err := board.Me(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve the watched user: %w", err)
	}
	if viewer == nil {
		return nil, fmt.Errorf("board server has no user for BOARD_API_TOKEN")
	}

	catalog, err := i18n.LoadEmbedded()
	if err != nil {
		return nil, err
	}

	var (
		remote        services.RemoteStore
		notifications services.NotificationAPI
	)
	switch cfg.Watch.RemoteStore {
	case config.RemoteStoreBoard:
		remote, notifications = board, board
	case config.RemoteStoreLocal:
		local := services.NewLocalStore(svcs.Store, viewer.ID)
		remote, notifications = local, local
	}

	svcs.Inbox = services.NewInboxService(viewer.ID, cfg.Watch.InboxCapacity, hub)
	svcs.Emitter = services.NewEmitter(svcs.Inbox, remote, catalog.Localizer(cfg.Watch.Language), cfg.Watch.RemoteWriteLimit, log)
	if cfg.Email.Enabled {
		to := cfg.Email.To
		if to == "" {
			to = viewer.Email
		}
		if to == "" {
			return nil, fmt.Errorf("EMAIL_TO is required: the watched user has no email address")
		}
		sender := email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.From)
		svcs.Emitter.SetForwarder(services.NewEmailForwarder(sender, to, cfg.Email.LinkBaseURL, svcs.Emitter.EmailSubject()))
		log.Info("forwarding notifications by email", zap.String("to", to))
	}

	svcs.Memberships = services.NewTracker[models.RoleSet](cfg.Watch.TrackerCapacity, cfg.Watch.TrackerMaxAge, clk)
	svcs.Assignments = services.NewTracker[[]string](cfg.Watch.TrackerCapacity, cfg.Watch.TrackerMaxAge, clk)

	svcs.Watch = services.NewWatchService(services.WatchDeps{
		Viewer:        *viewer,
		Boards:        board,
		Notifications: notifications,
		Memberships:   svcs.Memberships,
		Assignments:   svcs.Assignments,
		Deduper:       services.NewDeduper(repos.Cooldown),
		Emitter:       svcs.Emitter,
		Inbox:         svcs.Inbox,
		Clock:         clk,
		Log:           log,
		ReloadLimit:   cfg.Watch.ReloadLimit,
	})

	log.Info("watching board updates",
		zap.String("viewer_id", viewer.ID),
		zap.String("username", viewer.Username),
		zap.String("remote_store", cfg.Watch.RemoteStore))
	return svcs, nil
}
