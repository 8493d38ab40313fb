// Package middleware holds the layers a request passes through before it
// reaches its handler.
//
// A middleware is a function of the form
//
//	func(next http.Handler) http.Handler
//
// It does its own check and then calls next. When the check fails it writes
// the response itself and never calls next, so the request stops there.
// Routes chain them as Auth -> RateLimit -> Handler.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/akinalp/boardwatch/handlers"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
)

// TokenValidator verifies bearer tokens.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthMiddleware validates the JWT bearer token.
type AuthMiddleware struct {
	tokens TokenValidator
}

// NewAuthMiddleware creates an AuthMiddleware.
func NewAuthMiddleware(tokens TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Require rejects requests without a valid "Authorization: Bearer <token>"
// header with 401 and puts the caller into the request context otherwise.
//
// Steps:
//  1. read the Authorization header
//  2. strip the "Bearer " prefix
//  3. validate the token (signature, expiry)
//  4. put a models.User built from the claims into the context, call next
//
// The user is not looked up anywhere: boardwatch keeps no user table and the
// token was issued from the board server's answer at exchange time.
func (m *AuthMiddleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 1. Header
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "authorization header required")
			return
		}

		// 2. Bearer prefix
		tokenString, ok := strings.CutPrefix(authHeader, "Bearer ")
		if !ok {
			pkg.ErrorWithMessage(w, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
			return
		}

		// 3. Token
		claims, err := m.tokens.ValidateAccessToken(tokenString)
		if err != nil {
			pkg.Error(w, err)
			return
		}

		// 4. Caller into the context; handlers read it with userFrom
		user := &models.User{ID: claims.UserID, Username: claims.Username}
		ctx := context.WithValue(r.Context(), handlers.UserContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
