package reconcile

// Verdict is the outcome of a three-way count comparison.
type Verdict bool

const (
	Pass Verdict = true
	Fail Verdict = false
)

func (v Verdict) String() string {
	if v {
		return "PASS"
	}
	return "FAIL"
}

// Reconcile returns Pass iff the canonical forms of the three counts are
// identical. There is no tolerance and no majority: one disagreeing source
// fails the record. Two sentinels are compared by their tokens, so equal
// tokens agree even though nothing was measured.
func Reconcile(annotation, facet, curator Count) Verdict {
	a := annotation.Canonical()
	return Verdict(a == facet.Canonical() && a == curator.Canonical())
}

// Files is the per-file breakdown produced while counting annotations.
type Files struct {
	Declared []string
	Found    []string
	NotFound []string
}

// Result is the immutable outcome for one repertoire.
type Result struct {
	RepertoireID    string
	APIRepertoireID string
	Files           Files
	Annotation      Count
	Facet           Count
	Curator         Count
	// Message carries curator-side notes, e.g. a missing count column.
	Message string
	// CountErr is set when the annotation files could not be counted.
	CountErr error
	Verdict  Verdict
}

// NewResult reconciles the counts and freezes them into a Result. A
// counting failure always fails the record.
func NewResult(repertoireID, apiRepertoireID string, files Files, annotation, facet, curator Count, message string, countErr error) Result {
	verdict := Reconcile(annotation, facet, curator)
	if countErr != nil {
		verdict = Fail
	}
	return Result{
		RepertoireID:    repertoireID,
		APIRepertoireID: apiRepertoireID,
		Files:           cloneFiles(files),
		Annotation:      annotation,
		Facet:           facet,
		Curator:         curator,
		Message:         message,
		CountErr:        countErr,
		Verdict:         verdict,
	}
}

func cloneFiles(f Files) Files {
	return Files{
		Declared: append([]string(nil), f.Declared...),
		Found:    append([]string(nil), f.Found...),
		NotFound: append([]string(nil), f.NotFound...),
	}
}
