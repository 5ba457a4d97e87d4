package annotation

import "errors"

// Sentinel kinds for annotation counting errors.
var (
	// ErrNoDeclaredFiles stops processing for tools that require a file
	// list (MiXCR) when the repertoire declares none.
	ErrNoDeclaredFiles = errors.New("no data processing files declared")
	ErrUnknownTool     = errors.New("unknown annotation tool")
	ErrListDirectory   = errors.New("annotation directory unreadable")
	ErrCountFailed     = errors.New("annotation count failed")
	ErrEmptyAnnotation = errors.New("annotation file is empty")
	ErrSummaryMissing  = errors.New("summary file missing from archive")
	ErrUnsafeArchive   = errors.New("archive entry escapes extraction directory")
)

// IsHardStop reports whether err must stop processing rather than be
// recorded against the repertoire.
func IsHardStop(err error) bool {
	return errors.Is(err, ErrNoDeclaredFiles)
}
