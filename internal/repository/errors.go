package repository

import "errors"

var (
	// ErrNotFound is returned when a lookup by id matches no active row.
	ErrNotFound = errors.New("record not found")
	// ErrInsufficientStock is returned by AdjustStock when the delta would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
)
