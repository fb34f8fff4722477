package domain

import "errors"

// Business errors surfaced through the service layer. Cache failures are
// never represented here; they are absorbed at the cache boundary.
var (
	// ErrNotFound indicates the requested entity does not exist in the
	// source of truth.
	ErrNotFound = errors.New("not found")

	// ErrStrategyMissing indicates no product strategy is registered for a
	// category. This is a wiring error, distinct from ErrNotFound.
	ErrStrategyMissing = errors.New("no strategy registered for category")

	// ErrInsufficientStock indicates a stock decrement would drop the
	// available quantity below zero.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrInvalid indicates a command failed validation. Wrapped with the
	// offending field so callers can surface it as a client error.
	ErrInvalid = errors.New("invalid input")
)
