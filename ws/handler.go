package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/models"
)

// TokenValidator verifies the ?token= of a session request.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// Handler upgrades GET /ws?token=... into a UI session.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
	upgrader       websocket.Upgrader
}

// NewHandler creates the session handler. allowOrigin decides the Origin
// check; nil accepts every origin.
func NewHandler(hub *Hub, tokenValidator TokenValidator, allowOrigin func(origin string) bool) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if allowOrigin == nil {
					return true
				}
				origin := r.Header.Get("Origin")
				return origin == "" || allowOrigin(origin)
			},
		},
	}
}

// HandleConnection authenticates, upgrades and runs the session pumps.
// Browsers cannot set headers on a websocket request, hence the query token.
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.hub.log.Warn("upgrade failed", zap.String("user_id", claims.UserID), zap.Error(err))
		return
	}

	client := &Client{
		hub:    h.hub,
		conn:   conn,
		userID: claims.UserID,
		send:   make(chan []byte, sendBufferSize),
	}

	if !h.hub.join(client) {
		conn.Close()
		return
	}

	go client.WritePump()
	client.ReadPump()
}
