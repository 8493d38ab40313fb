package main

import (
	"slices"

	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/handlers"
	"github.com/akinalp/boardwatch/ws"
)

// Handlers holds the HTTP and websocket handlers. Notification is nil
// without the store; Inbox is nil without the watcher.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Notification *handlers.NotificationHandler
	Inbox        *handlers.InboxHandler
	Health       *handlers.HealthHandler
	WS           *ws.Handler
}

func initHandlers(cfg *config.Config, svcs *Services, hub *ws.Hub) *Handlers {
	h := &Handlers{
		Auth: handlers.NewAuthHandler(svcs.Auth),
		WS: ws.NewHandler(hub, svcs.Tokens, func(origin string) bool {
			return slices.Contains(cfg.Server.CORSOrigins, "*") || slices.Contains(cfg.Server.CORSOrigins, origin)
		}),
	}

	viewerID := ""
	if svcs.Store != nil {
		h.Notification = handlers.NewNotificationHandler(svcs.Store)
	}
	if svcs.Watch != nil {
		h.Inbox = handlers.NewInboxHandler(svcs.Watch, svcs.Inbox)
		viewerID = svcs.Watch.Viewer().ID
	}
	h.Health = handlers.NewHealthHandler(svcs.Watch != nil, svcs.Store != nil, viewerID, hub.SessionCount)

	return h
}
