package airrapi

import "errors"

// Sentinel kinds for query errors.
var (
	ErrEncode      = errors.New("encode query")
	ErrRequest     = errors.New("build request")
	ErrUnreachable = errors.New("repository unreachable")
	ErrStatus      = errors.New("unexpected status")
	ErrDecode      = errors.New("decode response")
	ErrQueryFile   = errors.New("read query file")
	ErrFacet       = errors.New("malformed facet response")
)
