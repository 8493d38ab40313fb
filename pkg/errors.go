// Package pkg holds utilities shared across the service.
// This file defines the domain-level errors.
//
// Each error is a fixed value made with errors.New. Code compares them by
// identity, never by message:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
//
// Flow through the layers:
//   - repository returns pkg.ErrNotFound / pkg.ErrAlreadyExists
//   - service adds context: fmt.Errorf("%w: notification %s", pkg.ErrNotFound, id)
//   - handler calls pkg.Error(w, err), which unwraps with errors.Is and picks
//     the status (ErrNotFound -> 404, ErrForbidden -> 403, ...)
//
// Anything that wraps none of these becomes a 500.
package pkg

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrAlreadyExists   = errors.New("already exists")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInternal        = errors.New("internal error")
)
