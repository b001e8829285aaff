package domain

import "errors"

// Sentinel errors surfaced by the repository and mapped to response codes by
// the HTTP layer.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrProductNotFound = errors.New("product not found")
)
