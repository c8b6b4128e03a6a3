package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound      = errors.New("audit not found")
	ErrMillNotFound  = errors.New("mill not found")
	ErrInvalidLimit  = errors.New("invalid leaderboard limit")
	ErrInvalidRecord = errors.New("invalid audit record")
	ErrUnknownDriver = errors.New("unknown store driver")
)
