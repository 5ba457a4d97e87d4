package app

import (
	"time"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	"github.com/okian/airrsanity/internal/domain/mapping"
	"github.com/okian/airrsanity/internal/domain/reconcile"
	"github.com/okian/airrsanity/internal/domain/stats"
	"github.com/okian/airrsanity/internal/domain/table"
)

// Summary is what one run found.
type Summary struct {
	RunID string
	Study string
	// Repertoires is the number of repertoires present on both sides.
	Repertoires int
	Duplicates  []table.Duplicate
	// RepertoireProblems are AIRR schema violations in the repository
	// response. They are reported but do not fail the run.
	RepertoireProblems []airrapi.RepertoireProblem
	Presence mapping.Presence
	Content  *mapping.ContentReport
	Types    *mapping.TypeReport
	Counts   []reconcile.Result
	// SkippedRepertoires lists repertoires the count pass could not
	// process, with the reason.
	SkippedRepertoires map[string]string
	Stats              []stats.Check
	// RemoteFailures counts facet and stats queries that returned nothing.
	RemoteFailures int
	// Reports maps report names to the files written.
	Reports  map[string]string
	Duration time.Duration
}

// Passed reports whether every check that ran came out clean.
func (s *Summary) Passed() bool {
	if len(s.Duplicates) > 0 || len(s.Presence.MissingFromAPI) > 0 || len(s.Presence.MissingFromMetadata) > 0 {
		return false
	}
	if s.Content != nil && (len(s.Content.Mismatches) > 0 || len(s.Content.Skipped) > 0) {
		return false
	}
	if s.Types != nil && len(s.Types.Mismatches) > 0 {
		return false
	}
	for _, c := range s.Counts {
		if c.Verdict == reconcile.Fail {
			return false
		}
	}
	for _, c := range s.Stats {
		if !c.SumMatchesTotal || (c.FacetApplicable && !c.FacetMatchesStatsTotal) {
			return false
		}
	}
	return len(s.SkippedRepertoires) == 0 && s.RemoteFailures == 0
}
