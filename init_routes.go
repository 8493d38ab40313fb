package main

import (
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/config"
	"github.com/akinalp/boardwatch/middleware"
	"github.com/akinalp/boardwatch/pkg/ratelimit"
	"github.com/akinalp/boardwatch/services"
)

// rateLimitCapacity bounds how many users/IPs the write limiter tracks.
const rateLimitCapacity = 10000

// initRoutes registers every endpoint on mux.
//
// Literal paths ("unread_count", "mark_all_as_read", "read_all") are more
// specific than the {id} patterns next to them, so the mux picks them first.
func initRoutes(mux *http.ServeMux, h *Handlers, cfg *config.Config, tokens services.TokenService, clk clock.Clock, log *zap.Logger) {
	authMw := middleware.NewAuthMiddleware(tokens)
	writeLimit := middleware.RateLimit(
		ratelimit.New(cfg.Store.WritesPerMinute, time.Minute, rateLimitCapacity, clk), log)
	exchangeLimit := middleware.RateLimit(
		ratelimit.New(10, time.Minute, rateLimitCapacity, clk), log)

	auth := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(handler)
	}
	authLimited := func(handler http.HandlerFunc) http.Handler {
		return authMw.Require(writeLimit(handler))
	}

	mux.HandleFunc("GET /api/health", h.Health.Health)
	mux.Handle("POST /api/auth/token", exchangeLimit(http.HandlerFunc(h.Auth.Exchange)))

	// Self-hosted store, wire-compatible with the board server.
	if h.Notification != nil {
		n := h.Notification
		mux.Handle("GET /api/v2/notifications", auth(n.List))
		mux.Handle("POST /api/v2/notifications", authLimited(n.Create))
		mux.Handle("DELETE /api/v2/notifications", auth(n.DeleteAll))
		mux.Handle("GET /api/v2/notifications/unread_count", auth(n.UnreadCount))
		mux.Handle("PUT /api/v2/notifications/mark_all_as_read", auth(n.MarkAllRead))
		mux.Handle("GET /api/v2/notifications/{id}", auth(n.Get))
		mux.Handle("PUT /api/v2/notifications/{id}/read", auth(n.MarkRead))
		mux.Handle("DELETE /api/v2/notifications/{id}", auth(n.Delete))
	}

	// Watcher inbox and live push. Browsers cannot set headers on a
	// websocket request, so /ws authenticates with ?token= itself.
	if h.Inbox != nil {
		mux.Handle("GET /api/inbox", auth(h.Inbox.List))
		mux.Handle("PUT /api/inbox/read_all", auth(h.Inbox.MarkAllRead))
		mux.Handle("PUT /api/inbox/{id}/read", auth(h.Inbox.MarkRead))
		mux.Handle("POST /api/inbox/reload", authLimited(h.Inbox.Reload))
		mux.HandleFunc("GET /ws", h.WS.HandleConnection)
	}
}
