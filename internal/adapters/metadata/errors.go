package metadata

import "errors"

// Sentinel kinds for metadata loading errors.
var (
	ErrUnsupported   = errors.New("unsupported metadata source")
	ErrRead          = errors.New("read metadata")
	ErrSheetMissing  = errors.New("metadata sheet not found")
	ErrHeaderMissing = errors.New("metadata header row missing")
	ErrStudyNotFound = errors.New("study not found in metadata")
)
