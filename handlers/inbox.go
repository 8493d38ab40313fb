package handlers

import (
	"net/http"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/services"
)

// InboxHandler serves the watcher's local inbox. Only the viewer the
// watcher runs for may use it.
type InboxHandler struct {
	watchService services.WatchService
	inboxService services.InboxService
}

// NewInboxHandler creates an InboxHandler.
func NewInboxHandler(watchService services.WatchService, inboxService services.InboxService) *InboxHandler {
	return &InboxHandler{watchService: watchService, inboxService: inboxService}
}

func (h *InboxHandler) viewer(w http.ResponseWriter, r *http.Request) bool {
	user, ok := userFrom(w, r)
	if !ok {
		return false
	}
	if user.ID != h.watchService.Viewer().ID {
		pkg.ErrorWithMessage(w, http.StatusForbidden, "inbox belongs to another user")
		return false
	}
	return true
}

// List godoc
// GET /api/inbox
// Returns the notifications (newest first) and the unread count.
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	if !h.viewer(w, r) {
		return
	}
	pkg.JSON(w, http.StatusOK, h.inboxService.Snapshot())
}

// MarkRead godoc
// PUT /api/inbox/{id}/read
func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	if !h.viewer(w, r) {
		return
	}

	if err := h.watchService.MarkRead(r.Context(), r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, models.UnreadCount{Count: h.inboxService.UnreadCount()})
}

// MarkAllRead godoc
// PUT /api/inbox/read_all
func (h *InboxHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	if !h.viewer(w, r) {
		return
	}

	if err := h.watchService.MarkAllRead(r.Context()); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, models.UnreadCount{Count: h.inboxService.UnreadCount()})
}

// Reload godoc
// POST /api/inbox/reload
// Reconciles the inbox with the remote store and returns the result.
func (h *InboxHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if !h.viewer(w, r) {
		return
	}

	if _, err := h.watchService.LoadNotifications(r.Context()); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadGateway, err.Error())
		return
	}

	pkg.JSON(w, http.StatusOK, h.inboxService.Snapshot())
}
