// Package common defines shared constants and sentinel errors used across
// client and server layers of travelbuddy. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound    = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrValidation     = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Face matching errors.
	ErrNoFaceDetected = errors.New("no face detected")
	ErrFaceService    = errors.New("face service error")

	// Verification flow errors.
	ErrPersistence            = errors.New("persistence error")
	ErrImagesMissing          = errors.New("both id and selfie images are required")
	ErrVerificationInProgress = errors.New("verification already in progress")
)
