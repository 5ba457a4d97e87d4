package stats

import "errors"

// ErrDecode reports a statistics body that is not the expected JSON.
var ErrDecode = errors.New("decode statistics response")
