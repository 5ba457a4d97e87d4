// Package app drives an audit run: it loads the curator metadata and the
// mapping table, queries the repository and runs the selected checks.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	"github.com/okian/airrsanity/internal/adapters/mappingfile"
	"github.com/okian/airrsanity/internal/adapters/metadata"
	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/config"
	"github.com/okian/airrsanity/internal/domain/annotation"
	"github.com/okian/airrsanity/internal/domain/mapping"
	"github.com/okian/airrsanity/internal/domain/table"
	"github.com/okian/airrsanity/pkg/logger"
	"github.com/okian/airrsanity/pkg/metrics"
)

// Metadata and API columns the run relies on.
const (
	apiJoinKey       = "repertoire_id"
	apiStudyColumn   = "study.study_id"
	filesColumn      = "data_processing_files"
	toolColumn       = "ir_rearrangement_tool"
	curatorColumn    = "ir_curator_count"
	curatorMissedMsg = "ir_curator_count not found in metadata"
)

// Auditor runs audits. It is not safe for concurrent Run calls.
type Auditor struct {
	logger   logger.Logger
	executor QueryExecutor
	counter  AnnotationCounter
	writer   ReportWriter
	limiter  Limiter
	now      func() time.Time
}

// New constructs an Auditor. Collaborators not given as options are built
// from the config at Run time.
func New(opts ...Option) *Auditor {
	a := &Auditor{now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// run carries the state of one Run call.
type run struct {
	*Auditor
	cfg     *config.Config
	log     logger.Logger
	study   string
	md      *table.Table
	api     *table.Table
	entries []mapping.Entry
	matched []string
	mdRows  map[string][]int
	facets  map[string]facetOutcome
	summary *Summary
}

// Run executes the checks selected by cfg. Input that makes the checks
// meaningless (unreadable metadata or mapping, a failed repertoire query, a
// missing join key) and annotation hard stops return an error. Per
// repertoire failures are logged, recorded in the summary and do not stop
// the run.
func (a *Auditor) Run(ctx context.Context, cfg *config.Config) (*Summary, error) {
	r, err := a.prepare(cfg)
	if err != nil {
		return nil, err
	}
	start := a.now()
	r.log.Info(ctx, "audit started",
		logger.String("study", r.study),
		logger.Strings("coverage", cfg.Coverage),
		logger.String("base_url", cfg.BaseURL))

	if err := r.load(ctx); err != nil {
		return r.summary, err
	}

	r.checkPresence(ctx)
	if err := r.join(ctx); err != nil {
		return r.summary, err
	}

	if cfg.Has(config.CoverageContent) {
		if err := r.checkContent(ctx); err != nil {
			return r.summary, err
		}
	}
	if cfg.Has(config.CoverageFacet) {
		if err := r.reconcileCounts(ctx); err != nil {
			return r.summary, err
		}
	}
	if cfg.Has(config.CoverageTypes) {
		if err := r.checkTypes(ctx); err != nil {
			return r.summary, err
		}
	}
	if cfg.Has(config.CoverageStats) {
		if err := r.checkStats(ctx); err != nil {
			return r.summary, err
		}
	}

	r.summary.Duration = a.now().Sub(start)
	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			r.log.Warn(ctx, "metrics textfile not written", logger.Error(err))
		}
	}
	r.log.Info(ctx, "audit finished",
		logger.Int("repertoires", len(r.matched)),
		logger.Bool("passed", r.summary.Passed()),
		logger.Int("remote_failures", r.summary.RemoteFailures),
		logger.String("duration", r.summary.Duration.String()))
	return r.summary, nil
}

func (a *Auditor) prepare(cfg *config.Config) (*run, error) {
	log := a.logger
	if log == nil {
		log = logger.Named("auditor")
	}
	study := metadata.StudyID(cfg.StudyID)
	runID := uuid.NewString()

	r := &run{
		Auditor: &Auditor{
			logger:   log,
			executor: a.executor,
			counter:  a.counter,
			writer:   a.writer,
			limiter:  a.limiter,
			now:      a.now,
		},
		cfg:     cfg,
		log:     log.With(logger.String("run_id", runID)),
		study:   study,
		summary: &Summary{RunID: runID, Study: study, Reports: map[string]string{}},
	}
	if r.executor == nil {
		r.executor = airrapi.NewClient(
			airrapi.WithTimeout(cfg.RequestTimeout),
			airrapi.WithInsecureSkipVerify(cfg.InsecureSkipVerify),
			airrapi.WithHeaders(cfg.RequestHeaders),
		)
	}
	if r.counter == nil {
		r.counter = annotation.NewCounter(annotation.WithSummaryName(cfg.VQuestSummary))
	}
	if r.limiter == nil {
		limit := rate.Inf
		if cfg.Pacing > 0 {
			limit = rate.Every(cfg.Pacing)
		}
		r.limiter = rate.NewLimiter(limit, 1)
	}
	if r.writer == nil {
		w, err := report.NewWriter(cfg.ReportDir, study,
			report.WithFormat(report.Format(cfg.ReportFormat)),
			report.WithClock(a.now))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReport, err)
		}
		r.writer = w
	}
	return r, nil
}

// load reads the metadata and mapping tables and queries the repository.
func (r *run) load(ctx context.Context) error {
	md, err := metadata.Load(ctx, r.cfg.Metadata,
		metadata.WithSheet(r.cfg.MetadataSheet),
		metadata.WithHeaderRow(r.cfg.HeaderRow))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetadata, err)
	}
	md, err = metadata.SelectStudy(md, r.study)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMetadata, r.study, err)
	}
	r.md = md
	r.log.Info(ctx, "metadata loaded", logger.Int("rows", md.Len()), logger.Int("columns", len(md.Columns())))

	dups, err := table.CheckUnique(md, r.cfg.JoinKey)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoin, err)
	}
	r.summary.Duplicates = dups
	for _, d := range dups {
		r.log.Warn(ctx, "duplicate join key in metadata",
			logger.String("key", r.cfg.JoinKey), logger.String("value", d.Key), logger.Int("rows", len(d.Rows)))
	}

	mf, err := mappingfile.Load(r.cfg.MappingFile)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMapping, err)
	}
	if mf.Skipped > 0 {
		r.log.Warn(ctx, "mapping lines skipped", logger.Int("lines", mf.Skipped))
	}
	r.entries = mf.Entries
	if rows := r.cfg.MappingRows; rows > 0 && len(r.entries) > rows {
		r.log.Info(ctx, "mapping table capped to its leading rows",
			logger.Int("rows", rows), logger.Int("dropped", len(r.entries)-rows))
		r.entries = r.entries[:rows]
	}

	return r.queryRepertoires(ctx)
}

func (r *run) queryRepertoires(ctx context.Context) error {
	query, err := airrapi.LoadQuery(r.cfg.QueryFile, r.cfg.ForceJSON)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if err := r.pace(ctx); err != nil {
		return err
	}
	url := airrapi.Endpoint(r.cfg.BaseURL, r.cfg.EntryPoint)
	resp, err := r.executor.Execute(ctx, url, query, airrapi.ExecOptions{
		ExpectPass: true,
		Force:      r.cfg.ForceJSON,
		Endpoint:   r.cfg.EntryPoint,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}

	name := strings.TrimSuffix(filepath.Base(r.cfg.QueryFile), filepath.Ext(r.cfg.QueryFile)) + "_response"
	if path, err := r.writer.WriteRaw(ctx, name, "json", resp.Raw); err != nil {
		r.log.Warn(ctx, "repository response not saved", logger.Error(err))
	} else {
		r.summary.Reports[name] = path
	}

	recs, err := airrapi.Records(resp, recordKey(r.cfg.EntryPoint))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrQuery, err)
	}
	if r.cfg.EntryPoint == "repertoire" {
		r.validateRepertoires(ctx, recs)
	}
	r.api = metadata.Flatten(recs)
	r.api.Map(apiStudyColumn, func(v table.Value) table.Value {
		if s, ok := v.AsString(); ok {
			return table.String(strings.ReplaceAll(s, " ", ""))
		}
		return v
	})
	r.log.Info(ctx, "repository queried", logger.String("url", url), logger.Int("records", r.api.Len()))
	return nil
}

// recordKey names the response array of an entry point: repertoire gives
// "Repertoire".
func recordKey(entry string) string {
	if entry == "" {
		return metadata.RepertoireKey
	}
	return strings.ToUpper(entry[:1]) + entry[1:]
}

// join finds the repertoires present on both sides.
func (r *run) join(ctx context.Context) error {
	keys := mapping.JoinKeys{Metadata: r.cfg.JoinKey, API: apiJoinKey}
	matched, err := mapping.MatchedIDs(r.md, r.api, keys)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrJoin, err)
	}
	r.matched = matched
	r.mdRows, _ = r.md.Index(r.cfg.JoinKey)
	r.summary.Repertoires = len(matched)
	if len(matched) == 0 {
		r.log.Warn(ctx, "no repertoire ids match between metadata and repository; nothing to compare")
	}
	return nil
}

// pace waits for the limiter before a remote call.
func (r *run) pace(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

func (r *run) write(ctx context.Context, name string, sheet report.Sheet) error {
	path, err := r.writer.Write(ctx, name, sheet)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrReport, name, err)
	}
	r.summary.Reports[name] = path
	r.log.Info(ctx, "report written", logger.String("report", name), logger.String("path", path))
	return nil
}

// validateRepertoires checks the repository records against the AIRR
// Repertoire schema. Violations are findings; they never stop the run.
func (r *run) validateRepertoires(ctx context.Context, recs []any) {
	problems := airrapi.ValidateRepertoires(recs)
	r.summary.RepertoireProblems = problems
	if len(problems) == 0 {
		r.log.Info(ctx, "AIRR repertoire validation passed", logger.Int("records", len(recs)))
		return
	}
	sheet := report.Sheet{Header: []string{"index", "repertoire_id", "field", "problem"}}
	for _, p := range problems {
		r.log.Warn(ctx, "AIRR repertoire validation failed",
			logger.Int("index", p.Index),
			logger.String("repertoire_id", p.RepertoireID),
			logger.String("field", p.Field),
			logger.String("problem", p.Rule))
		sheet.Append(table.Int(int64(p.Index)), table.String(p.RepertoireID), table.String(p.Field), table.String(p.Rule))
	}
	if err := r.write(ctx, reportRepo, sheet); err != nil {
		r.log.Warn(ctx, "repertoire validation report not written", logger.Error(err))
	}
}
