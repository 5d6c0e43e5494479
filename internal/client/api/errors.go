package api

import "errors"

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidInput   = errors.New("invalid input")
	ErrNotFound       = errors.New("not found")
	ErrAlreadyExists  = errors.New("already exists")
	ErrNotReady       = errors.New("not ready")
	ErrBusy           = errors.New("verification already in progress")
	ErrSessionExpired = errors.New("session expired, please log in again")
)
