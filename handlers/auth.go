// Package handlers holds the HTTP endpoints. Handlers decode the request,
// call a service and encode the result; business rules live in services.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
	"github.com/akinalp/boardwatch/services"
)

// contextKey is a private type so context values never collide.
type contextKey string

// UserContextKey carries the authenticated *models.User.
const UserContextKey contextKey = "user"

// userFrom returns the authenticated user, writing a 401 when absent.
func userFrom(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(UserContextKey).(*models.User)
	if !ok || user == nil {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, "user not found in context")
		return nil, false
	}
	return user, true
}

// AuthHandler serves the token exchange.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type exchangeRequest struct {
	Token string `json:"token"`
}

// Exchange godoc
// POST /api/auth/token
// Trades a board server token for an access token of this service.
func (h *AuthHandler) Exchange(w http.ResponseWriter, r *http.Request) {
	var req exchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tokens, err := h.authService.Exchange(r.Context(), req.Token)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, tokens)
}
