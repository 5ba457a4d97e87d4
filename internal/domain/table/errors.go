package table

import "errors"

// Sentinel kinds for table errors.
var (
	ErrMissingColumn = errors.New("column not found")
	ErrRowWidth      = errors.New("row width does not match columns")
)
