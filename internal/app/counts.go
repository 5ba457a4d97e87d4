package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/domain/annotation"
	"github.com/okian/airrsanity/internal/domain/reconcile"
	"github.com/okian/airrsanity/internal/domain/table"
	"github.com/okian/airrsanity/pkg/logger"
	"github.com/okian/airrsanity/pkg/metrics"
)

// facetOutcome is a facet count together with the repository's id for it.
type facetOutcome struct {
	count reconcile.Count
	apiID string
}

// reconcileCounts runs the three-way count check for every matched
// repertoire, one at a time.
func (r *run) reconcileCounts(ctx context.Context) error {
	r.summary.SkippedRepertoires = map[string]string{}
	facets := make(map[string]facetOutcome, len(r.matched))

	for _, id := range r.matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := r.mdRows[id][0]
		log := r.log.With(logger.String("repertoire_id", id))

		tool, err := r.resolveTool(row)
		if err != nil {
			log.Warn(ctx, "no usable annotation tool; repertoire skipped", logger.Error(err))
			r.summary.SkippedRepertoires[id] = err.Error()
			continue
		}

		cell, _ := r.md.Get(row, filesColumn)
		files := annotation.ParseFileList(cell)
		ann, countErr := r.counter.Count(ctx, tool, files, r.cfg.AnnotationDir)
		if countErr != nil {
			if annotation.IsHardStop(countErr) {
				stop := fmt.Errorf("%w: repertoire %s: %w", ErrHardStop, id, countErr)
				if err := r.write(ctx, reportCounts, countSheet(r.summary.Counts)); err != nil {
					return errors.Join(stop, err)
				}
				return stop
			}
			if errors.Is(countErr, context.Canceled) || errors.Is(countErr, context.DeadlineExceeded) {
				return countErr
			}
			metrics.RecordAnnotationCountError()
			log.Error(ctx, "annotation files could not be counted", logger.Error(countErr))
		}

		facet, err := r.facet(ctx, id)
		if err != nil {
			return err
		}
		facets[id] = facet

		curator, message := r.curatorCount(row)
		res := reconcile.NewResult(id, facet.apiID, ann.Files, ann.Count, facet.count, curator, message, countErr)
		r.summary.Counts = append(r.summary.Counts, res)

		metrics.RecordReconciliation(res.Verdict.String())
		metrics.RecordAnnotationFilesMissing(len(res.Files.NotFound))
		level := log.Info
		if res.Verdict == reconcile.Fail {
			level = log.Warn
		}
		level(ctx, "counts reconciled",
			logger.String("tool", tool.Name()),
			logger.String("annotation", res.Annotation.Canonical()),
			logger.String("facet", res.Facet.Canonical()),
			logger.String("curator", res.Curator.Canonical()),
			logger.Strings("files_not_found", res.Files.NotFound),
			logger.String("verdict", res.Verdict.String()))
	}
	r.facets = facets
	return r.write(ctx, reportCounts, countSheet(r.summary.Counts))
}

// resolveTool prefers the configured tool and falls back to the metadata
// column naming the rearrangement tool.
func (r *run) resolveTool(row int) (annotation.Tool, error) {
	if r.cfg.AnnotationTool != "" {
		return annotation.ParseTool(r.cfg.AnnotationTool)
	}
	v, ok := r.md.Get(row, toolColumn)
	if !ok || v.IsNullLike() {
		return nil, fmt.Errorf("%w: no annotation_tool configured and no %s value", annotation.ErrUnknownTool, toolColumn)
	}
	return annotation.ParseTool(v.String())
}

func (r *run) curatorCount(row int) (reconcile.Count, string) {
	if !r.md.HasColumn(curatorColumn) {
		return reconcile.NullCount(), curatorMissedMsg
	}
	v, ok := r.md.Get(row, curatorColumn)
	return reconcile.CuratorCount(v, ok), ""
}

// facet queries the sequence count the repository reports for one
// repertoire. Remote failures give the no-API-result sentinel; only a
// cancelled context is returned as an error.
func (r *run) facet(ctx context.Context, id string) (facetOutcome, error) {
	none := facetOutcome{count: reconcile.NoAPIResult()}
	log := r.log.With(logger.String("repertoire_id", id))

	query, err := r.facetQuery(id)
	if err != nil {
		log.Warn(ctx, "facet query file unusable", logger.Error(err))
		r.summary.RemoteFailures++
		return none, nil
	}
	if err := r.pace(ctx); err != nil {
		return none, err
	}
	resp, err := r.executor.Execute(ctx, airrapi.Endpoint(r.cfg.BaseURL, "rearrangement"), query,
		airrapi.ExecOptions{ExpectPass: true, Endpoint: "facet"})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return none, ctxErr
		}
		log.Warn(ctx, "facet query failed", logger.Error(err))
		r.summary.RemoteFailures++
		return none, nil
	}
	f, err := airrapi.ParseFacet(resp)
	if err != nil {
		log.Warn(ctx, "facet response unusable", logger.Error(err))
		r.summary.RemoteFailures++
		return none, nil
	}
	if !f.Found {
		log.Warn(ctx, "facet query returned no bucket")
		return none, nil
	}
	return facetOutcome{count: reconcile.Known(f.Count), apiID: f.RepertoireID}, nil
}

// facetQuery reads <facet_dir>/<study>/facet_repertoire_id_<id>.json when it
// exists and builds the standard facet query otherwise.
func (r *run) facetQuery(id string) (any, error) {
	if r.cfg.FacetDir != "" {
		path := filepath.Join(r.cfg.FacetDir, r.study, "facet_repertoire_id_"+id+".json")
		if _, err := os.Stat(path); err == nil {
			return airrapi.LoadQuery(path, r.cfg.ForceJSON)
		}
	}
	return airrapi.FacetQuery(id), nil
}

func countSheet(results []reconcile.Result) report.Sheet {
	sheet := report.Sheet{Header: []string{
		"repertoire_id", "api_repertoire_id", "data_processing_files", "files_found", "files_not_found",
		"annotation_count", "facet_count", "curator_count", "message", "count_error", "verdict",
	}}
	for _, res := range results {
		countErr := ""
		if res.CountErr != nil {
			countErr = res.CountErr.Error()
		}
		sheet.Append(
			table.String(res.RepertoireID),
			table.String(res.APIRepertoireID),
			stringList(res.Files.Declared),
			stringList(res.Files.Found),
			stringList(res.Files.NotFound),
			table.String(res.Annotation.Canonical()),
			table.String(res.Facet.Canonical()),
			table.String(res.Curator.Canonical()),
			table.String(res.Message),
			table.String(countErr),
			table.String(res.Verdict.String()),
		)
	}
	return sheet
}

func stringList(ss []string) table.Value {
	vs := make([]table.Value, len(ss))
	for i, s := range ss {
		vs[i] = table.String(s)
	}
	return table.List(vs...)
}
