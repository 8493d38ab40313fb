package handlers

import (
	"net/http"

	"github.com/akinalp/boardwatch/pkg"
)

// HealthHandler reports liveness and which components run.
type HealthHandler struct {
	watching bool
	storing  bool
	viewerID string
	sessions func(userID string) int
}

// NewHealthHandler creates a HealthHandler. sessions may be nil.
func NewHealthHandler(watching, storing bool, viewerID string, sessions func(userID string) int) *HealthHandler {
	return &HealthHandler{watching: watching, storing: storing, viewerID: viewerID, sessions: sessions}
}

type healthResponse struct {
	Status   string `json:"status"`
	Watching bool   `json:"watching"`
	Storing  bool   `json:"storing"`
	Sessions int    `json:"sessions"`
}

// Health godoc
// GET /api/health
func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "ok", Watching: h.watching, Storing: h.storing}
	if h.sessions != nil && h.viewerID != "" {
		resp.Sessions = h.sessions(h.viewerID)
	}
	pkg.JSON(w, http.StatusOK, resp)
}
