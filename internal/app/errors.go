package app

import "errors"

// Sentinel kinds for run failures.
var (
	ErrMetadata = errors.New("metadata unusable")
	ErrMapping  = errors.New("mapping table unusable")
	ErrQuery    = errors.New("repertoire query failed")
	ErrJoin     = errors.New("cannot join metadata and repository")
	ErrReport   = errors.New("report not written")
	ErrHardStop = errors.New("annotation counting stopped the run")
)
