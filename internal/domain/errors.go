package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
)

// Credential-flow errors. This is the closed set of business failures the
// auth surface reports; anything outside it surfaces as an opaque 500.
var (
	ErrEmailExists     = errors.New("email already exists")
	ErrEmailVerified   = errors.New("email already verified")
	ErrTooManyRequests = errors.New("too many requests")
	ErrInvalidToken    = errors.New("invalid token")
	ErrRefreshNotFound = errors.New("refresh token not found")
	ErrInvalidRefresh  = errors.New("invalid refresh token")
	ErrAccessDenied    = errors.New("access denied")
)
