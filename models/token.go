package models

import "github.com/golang-jwt/jwt/v5"

// TokenClaims is the payload of the access tokens this service accepts.
//
// Defined here because middleware, ws and services all need it and each may
// depend on models without an import cycle.
type TokenClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}
