package errors

import "errors"

var (
	ErrNotFound = errors.New("location list not found")

	ErrInvalidID = errors.New("invalid list ID format")
)
