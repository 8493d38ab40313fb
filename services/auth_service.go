// Package services holds the business logic between the HTTP/websocket
// layer and the repositories and remote APIs.
//
// Services never see http.Request or http.ResponseWriter and never run SQL
// themselves: they take domain models and return domain models or
// pkg-level errors.
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/boardwatch/apiclient"
	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
)

// Identity answers "who owns this board server token".
type Identity interface {
	Me(ctx context.Context) (*models.User, error)
}

// IdentityResolver returns an Identity authenticated with boardToken.
type IdentityResolver func(boardToken string) Identity

// AuthService exchanges board server tokens for tokens of this service.
type AuthService interface {
	Exchange(ctx context.Context, boardToken string) (*AuthTokens, error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// AuthTokens is the result of a successful exchange.
type AuthTokens struct {
	AccessToken string      `json:"access_token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        models.User `json:"user"`
}

type authService struct {
	resolve IdentityResolver
	tokens  TokenService
	log     *zap.Logger
}

// NewAuthService creates an AuthService.
func NewAuthService(resolve IdentityResolver, tokens TokenService, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{resolve: resolve, tokens: tokens, log: log.Named("auth")}
}

// Exchange verifies boardToken against the board server and issues an
// access token for its owner.
func (s *authService) Exchange(ctx context.Context, boardToken string) (*AuthTokens, error) {
	if boardToken == "" {
		return nil, fmt.Errorf("%w: token is required", pkg.ErrBadRequest)
	}

	user, err := s.resolve(boardToken).Me(ctx)
	switch {
	case apiclient.IsStatus(err, http.StatusUnauthorized), apiclient.IsStatus(err, http.StatusForbidden):
		return nil, fmt.Errorf("%w: board server rejected the token", pkg.ErrUnauthorized)
	case err != nil:
		return nil, fmt.Errorf("failed to verify token: %w", err)
	case user == nil || user.ID == "":
		return nil, fmt.Errorf("%w: token has no user", pkg.ErrUnauthorized)
	}

	access, expiresAt, err := s.tokens.IssueAccessToken(user.ID, user.Username)
	if err != nil {
		return nil, err
	}

	s.log.Info("token issued", zap.String("user_id", user.ID))
	return &AuthTokens{AccessToken: access, ExpiresAt: expiresAt, User: *user}, nil
}

func (s *authService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	return s.tokens.ValidateAccessToken(tokenString)
}
