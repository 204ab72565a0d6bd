package search

import "errors"

var (
	// ErrInvalidArgument is returned for unusable parameters such as a
	// non-positive sweep step count or an empty feature set.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrEmptyInput is returned when a computation needs at least one
	// element (e.g. a scale over an empty hint series).
	ErrEmptyInput = errors.New("empty input")
)
