package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrQuotaExceeded   = errors.New("quota exceeded")
	ErrToolNotAllowed  = errors.New("tool not allowed for plan")
	ErrUnknownPlan     = errors.New("unknown plan")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrProviderFailure = errors.New("provider failure")
)
