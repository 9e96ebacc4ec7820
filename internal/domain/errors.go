package domain

import "errors"

var (
	// ErrInvalidScenario is returned for unknown modes or out-of-range parameters.
	ErrInvalidScenario = errors.New("invalid scenario")

	// ErrNotFound is returned when a requested district is not in the view.
	ErrNotFound = errors.New("not found")
)
