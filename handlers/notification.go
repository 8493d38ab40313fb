package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/services"
)

// NotificationHandler serves the self-hosted store under
// /api/v2/notifications. Routes and bodies match the board server's
// notification API.
type NotificationHandler struct {
	notificationService services.NotificationService
}

// NewNotificationHandler creates a NotificationHandler.
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List godoc
// GET /api/v2/notifications?limit=&offset=
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid limit")
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid offset")
		return
	}

	list, err := h.notificationService.ListForUser(r.Context(), user.ID, limit, offset)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	if list == nil {
		list = []models.Notification{}
	}

	pkg.JSON(w, http.StatusOK, list)
}

// Create godoc
// POST /api/v2/notifications
// The recipient is the caller.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	var req models.CreateNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	n, err := h.notificationService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusCreated, n)
}

// UnreadCount godoc
// GET /api/v2/notifications/unread_count
func (h *NotificationHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	count, err := h.notificationService.UnreadCount(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, models.UnreadCount{Count: count})
}

// Get godoc
// GET /api/v2/notifications/{id}
func (h *NotificationHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	n, err := h.notificationService.Get(r.Context(), user.ID, r.PathValue("id"))
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, n)
}

// MarkRead godoc
// PUT /api/v2/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.Empty(w, http.StatusOK)
}

// MarkAllRead godoc
// PUT /api/v2/notifications/mark_all_as_read
func (h *NotificationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	if _, err := h.notificationService.MarkAllRead(r.Context(), user.ID); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.Empty(w, http.StatusOK)
}

// Delete godoc
// DELETE /api/v2/notifications/{id}
func (h *NotificationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(r.Context(), user.ID, r.PathValue("id")); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.Empty(w, http.StatusOK)
}

// DeleteAll godoc
// DELETE /api/v2/notifications
func (h *NotificationHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(w, r)
	if !ok {
		return
	}

	deleted, err := h.notificationService.DeleteAllForUser(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// queryInt parses an optional integer query parameter (0 when absent).
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}
