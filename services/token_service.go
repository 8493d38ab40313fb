package services

import (
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang-jwt/jwt/v5"

	"github.com/akinalp/boardwatch/models"
	"github.com/akinalp/boardwatch/pkg"
)

const tokenIssuer = "boardwatch"

// TokenService issues and verifies the HS256 bearer tokens of the served
// APIs (store, inbox, UI sessions).
type TokenService interface {
	IssueAccessToken(userID, username string) (token string, expiresAt time.Time, err error)
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

type tokenService struct {
	secret []byte
	expiry time.Duration
	clock  clock.Clock
}

// NewTokenService creates a TokenService signing with secret.
func NewTokenService(secret string, expiry time.Duration, clk clock.Clock) TokenService {
	if clk == nil {
		clk = clock.New()
	}
	return &tokenService{secret: []byte(secret), expiry: expiry, clock: clk}
}

func (s *tokenService) IssueAccessToken(userID, username string) (string, time.Time, error) {
	if userID == "" {
		return "", time.Time{}, fmt.Errorf("%w: user id is required", pkg.ErrBadRequest)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.expiry)
	claims := &models.TokenClaims{
		UserID:   userID,
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

func (s *tokenService) ValidateAccessToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.clock.Now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}
	return claims, nil
}
