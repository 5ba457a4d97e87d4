package mapping

import "errors"

// Sentinel kinds for mapping validation errors.
var (
	ErrJoinKey      = errors.New("join key column missing")
	ErrIncomparable = errors.New("values cannot be compared")
)
