package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/domain/mapping"
	"github.com/okian/airrsanity/internal/domain/table"
	"github.com/okian/airrsanity/pkg/logger"
	"github.com/okian/airrsanity/pkg/metrics"
)

// Report names.
const (
	reportPresence = "mapping_fields_missing"
	reportContent  = "reported_fields"
	reportCounts   = "Facet_Count_curator_count_Annotation_count"
	reportTypes    = "airr_types"
	reportStats    = "stats_bucket_check"
	reportRepo     = "airr_repertoire_validation"
)

// checkPresence reports mapped fields missing on either side. It never
// fails the run.
func (r *run) checkPresence(ctx context.Context) {
	p := mapping.Classify(r.entries, r.api, r.md)
	r.summary.Presence = p
	metrics.RecordMappingFieldsMissing("api", len(p.MissingFromAPI))
	metrics.RecordMappingFieldsMissing("metadata", len(p.MissingFromMetadata))

	for _, e := range p.MissingFromAPI {
		r.log.Warn(ctx, "mapped field not in repository response", logger.String("api_field", e.APIField))
	}
	for _, e := range p.MissingFromMetadata {
		r.log.Warn(ctx, "mapped field not in metadata", logger.String("curator_field", e.CuratorField))
	}
	r.log.Info(ctx, "field presence checked",
		logger.Int("present", len(p.PresentInBoth)),
		logger.Int("missing_api", len(p.MissingFromAPI)),
		logger.Int("missing_metadata", len(p.MissingFromMetadata)))

	if len(p.MissingFromAPI)+len(p.MissingFromMetadata) == 0 {
		return
	}
	sheet := report.Sheet{Header: []string{"side", "api_field", "curator_field"}}
	for _, e := range p.MissingFromAPI {
		sheet.Append(table.String("api"), table.String(e.APIField), table.String(e.CuratorField))
	}
	for _, e := range p.MissingFromMetadata {
		sheet.Append(table.String("metadata"), table.String(e.APIField), table.String(e.CuratorField))
	}
	if err := r.write(ctx, reportPresence, sheet); err != nil {
		r.log.Warn(ctx, "presence report not written", logger.Error(err))
	}
}

// checkContent compares mapped values repertoire by repertoire.
func (r *run) checkContent(ctx context.Context) error {
	keys := mapping.JoinKeys{Metadata: r.cfg.JoinKey, API: apiJoinKey}
	rep, err := mapping.CompareContent(r.entries, r.md, r.api, keys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoin, err)
	}
	r.summary.Content = &rep
	metrics.RecordFieldMismatches(len(rep.Mismatches))

	for _, s := range rep.Skipped {
		r.log.Warn(ctx, "values cannot be compared",
			logger.String("repertoire_id", s.RepertoireID),
			logger.String("api_field", s.Entry.APIField),
			logger.String("curator_field", s.Entry.CuratorField),
			logger.Error(s.Err))
	}
	if len(rep.Mismatches) == 0 {
		r.log.Info(ctx, "no differing content between metadata and repository",
			logger.Int("pairs", rep.PairsChecked))
		return nil
	}

	apiFields, mdFields := distinctFields(rep.Mismatches)
	r.log.Warn(ctx, "content differs between metadata and repository",
		logger.Int("mismatches", len(rep.Mismatches)),
		logger.Strings("api_fields", apiFields),
		logger.Strings("curator_fields", mdFields))

	sheet := report.Sheet{Header: []string{"repertoire_id", "api_field", "curator_field", "api_value", "curator_value"}}
	for _, m := range rep.Mismatches {
		sheet.Append(table.String(m.RepertoireID), table.String(m.APIField), table.String(m.CuratorField), m.APIValue, m.CuratorValue)
	}
	return r.write(ctx, reportContent, sheet)
}

func distinctFields(ms []mapping.Comparison) (api, md []string) {
	seenAPI := map[string]struct{}{}
	seenMD := map[string]struct{}{}
	for _, m := range ms {
		if _, ok := seenAPI[m.APIField]; !ok {
			seenAPI[m.APIField] = struct{}{}
			api = append(api, m.APIField)
		}
		if _, ok := seenMD[m.CuratorField]; !ok {
			seenMD[m.CuratorField] = struct{}{}
			md = append(md, m.CuratorField)
		}
	}
	return api, md
}

// checkTypes compares declared AIRR types with the repository's values.
func (r *run) checkTypes(ctx context.Context) error {
	rep := mapping.CheckTypes(r.entries, r.api, r.md)
	r.summary.Types = &rep
	metrics.RecordTypeMismatches(len(rep.Mismatches))

	for _, e := range rep.UnknownTypes {
		r.log.Warn(ctx, "unknown AIRR type in mapping",
			logger.String("api_field", e.APIField), logger.String("airr_type", e.RawType))
	}
	for _, d := range rep.Mixed {
		r.log.Warn(ctx, "repository column holds several kinds; first kind decides",
			logger.String("api_field", d.Entry.APIField),
			logger.String("observed", d.Observed.String()),
			logger.Strings("kinds", kindNames(d.ObservedKinds)))
	}
	for _, d := range rep.Mismatches {
		r.log.Warn(ctx, "repository type differs from AIRR type",
			logger.String("api_field", d.Entry.APIField),
			logger.String("curator_field", d.Entry.CuratorField),
			logger.String("declared", d.Declared.String()),
			logger.String("observed", d.Observed.String()))
	}
	r.log.Info(ctx, "types checked", logger.Int("columns", rep.Checked), logger.Int("mismatches", len(rep.Mismatches)))

	if len(rep.Mismatches)+len(rep.Mixed) == 0 {
		return nil
	}
	sheet := report.Sheet{Header: []string{
		"api_field", "curator_field", "declared", "observed", "observed_kinds", "mismatch", "api_values", "curator_values",
	}}
	add := func(d mapping.TypeDiagnostic) {
		sheet.Append(
			table.String(d.Entry.APIField),
			table.String(d.Entry.CuratorField),
			table.String(d.Declared.String()),
			table.String(d.Observed.String()),
			table.String(strings.Join(kindNames(d.ObservedKinds), "|")),
			table.Bool(d.Observed != d.Declared),
			table.List(d.APIValues...),
			table.List(d.CuratorValues...),
		)
	}
	for _, d := range rep.Mismatches {
		add(d)
	}
	for _, d := range rep.Mixed {
		if d.Observed == d.Declared {
			add(d)
		}
	}
	return r.write(ctx, reportTypes, sheet)
}

func kindNames(kinds []table.Kind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = k.String()
	}
	return out
}
