package repositories

import "errors"

// Sentinel errors shared by every repository implementation so callers can
// classify failures with errors.Is.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrProductNotFound = errors.New("product not found")
)
