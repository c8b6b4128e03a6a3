package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest       = errors.New("bad request")
	ErrLimitExceeded    = errors.New("limit exceeds maximum")
	ErrBackpressure     = errors.New("backpressure")
	ErrTemplateNotFound = errors.New("template not found")
)
