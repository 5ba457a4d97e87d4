package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/airrsanity/internal/app"
	"github.com/okian/airrsanity/internal/config"
	"github.com/okian/airrsanity/internal/domain/reconcile"
	"github.com/okian/airrsanity/pkg/logger"
)

// errFindings is returned in strict mode when the audit completed but found
// problems.
var errFindings = errors.New("audit found problems")

func newRootCmd() *cobra.Command {
	var (
		configPath string
		strict     bool
	)
	cmd := &cobra.Command{
		Use:   "airrsanity",
		Short: "Cross-check an AIRR repository study against its curator metadata",
		Long: `airrsanity loads a study's curator metadata and field mapping, queries an
AIRR Data Commons repository for the study's repertoires and runs the selected
checks: field content (CC), three-way sequence counts (FC), AIRR types (AT) and
statistics buckets (ST). Findings are logged and written as reports.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context(), configPath)
			if err != nil {
				return err
			}
			if err := applyFlags(cmd, cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if err := setupLogging(cfg); err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			summary, err := app.New(app.WithLogger(logger.Named("auditor"))).Run(cmd.Context(), cfg)
			if summary != nil {
				printSummary(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return err
			}
			if strict && !summary.Passed() {
				return errFindings
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&configPath, "config", "c", "", "YAML config file (default $AIRRSANITY_CONFIG)")
	f.BoolVar(&strict, "strict", false, "exit with status 2 when any check finds a problem")

	f.String("base-url", "", "repository base URL")
	f.String("entry-point", "", "repository entry point: repertoire or rearrangement")
	f.String("query-file", "", "JSON query selecting the study's repertoires")
	f.Bool("force-json", false, "send undecodable query files verbatim and keep raw responses")
	f.String("metadata", "", "curator metadata workbook, CSV/TSV, JSON file or URL")
	f.String("metadata-sheet", "", "workbook sheet holding the metadata")
	f.Int("header-row", 0, "zero-based header row of the metadata sheet")
	f.String("study-id", "", "study to audit")
	f.String("join-key", "", "metadata column joined with the repository repertoire_id")
	f.String("mapping-file", "", "tab-separated field mapping table")
	f.String("facet-dir", "", "directory of per-repertoire facet queries")
	f.String("annotation-dir", "", "directory holding the annotation files")
	f.String("annotation-tool", "", "annotation tool: vquest, igblast or mixcr")
	f.String("vquest-summary", "", "archive member counted for VQuest output (default 1_Summary.txt)")
	f.Int("mapping-rows", 0, "leading mapping rows to check, 0 for all (default 89)")
	f.String("report-dir", "", "directory reports are written to")
	f.String("report-format", "", "report format: csv or xlsx")
	f.String("metrics-file", "", "write run metrics in text exposition format to this file")
	f.StringSlice("coverage", nil, "checks to run: CC, FC, AT, ST")
	f.String("stats-path", "", "statistics endpoint path")
	f.StringSlice("statistics", nil, "statistics to request from the statistics endpoint")
	f.Bool("insecure-skip-verify", false, "skip TLS certificate verification")
	f.StringToString("header", nil, "extra request header as Name=value (repeatable)")
	f.Duration("request-timeout", 0, "timeout of one repository request")
	f.Duration("pacing", 0, "pause before each repository request")
	f.String("log-level", "", "debug, info, warn or error")
	f.Bool("log-to-file", false, "also write log records to a file")
	f.String("log-file", "", "log file (default airrsanity_<timestamp>.log)")
	f.Bool("log-json", false, "write JSON log records")
	return cmd
}

// applyFlags overrides cfg with every flag set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	f := cmd.Flags()
	var errs []error
	str := func(name string, dst *string) {
		if f.Changed(name) {
			v, err := f.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool) {
		if f.Changed(name) {
			v, err := f.GetBool(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	duration := func(name string, dst *time.Duration) {
		if f.Changed(name) {
			v, err := f.GetDuration(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	list := func(name string, dst *[]string) {
		if f.Changed(name) {
			v, err := f.GetStringSlice(name)
			errs = append(errs, err)
			*dst = v
		}
	}

	str("base-url", &cfg.BaseURL)
	str("entry-point", &cfg.EntryPoint)
	str("query-file", &cfg.QueryFile)
	boolean("force-json", &cfg.ForceJSON)
	str("metadata", &cfg.Metadata)
	str("metadata-sheet", &cfg.MetadataSheet)
	if f.Changed("header-row") {
		v, err := f.GetInt("header-row")
		errs = append(errs, err)
		cfg.HeaderRow = v
	}
	str("study-id", &cfg.StudyID)
	str("join-key", &cfg.JoinKey)
	str("mapping-file", &cfg.MappingFile)
	str("facet-dir", &cfg.FacetDir)
	str("annotation-dir", &cfg.AnnotationDir)
	str("annotation-tool", &cfg.AnnotationTool)
	str("vquest-summary", &cfg.VQuestSummary)
	if f.Changed("mapping-rows") {
		v, err := f.GetInt("mapping-rows")
		errs = append(errs, err)
		cfg.MappingRows = v
	}
	str("report-dir", &cfg.ReportDir)
	str("report-format", &cfg.ReportFormat)
	str("metrics-file", &cfg.MetricsFile)
	list("coverage", &cfg.Coverage)
	str("stats-path", &cfg.StatsPath)
	list("statistics", &cfg.Statistics)
	boolean("insecure-skip-verify", &cfg.InsecureSkipVerify)
	if f.Changed("header") {
		v, err := f.GetStringToString("header")
		errs = append(errs, err)
		if cfg.RequestHeaders == nil {
			cfg.RequestHeaders = map[string]string{}
		}
		for k, val := range v {
			cfg.RequestHeaders[k] = val
		}
	}
	duration("request-timeout", &cfg.RequestTimeout)
	duration("pacing", &cfg.Pacing)
	str("log-level", &cfg.LogLevel)
	boolean("log-to-file", &cfg.LogToFile)
	str("log-file", &cfg.LogFile)
	boolean("log-json", &cfg.LogJSON)
	return errors.Join(errs...)
}

func setupLogging(cfg *config.Config) error {
	if err := logger.Init(logger.WithJSON(cfg.LogJSON)); err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}
	if !cfg.LogToFile && cfg.LogFile == "" {
		return nil
	}
	if _, err := logger.SetupFile(cfg.LogFile, time.Now().Format("20060102_150405"), cfg.LogJSON); err != nil {
		return fmt.Errorf("set up log file: %w", err)
	}
	return nil
}

func printSummary(w io.Writer, s *app.Summary) {
	status := "PASS"
	if !s.Passed() {
		status = "FAIL"
	}
	fmt.Fprintf(w, "study %s: %d repertoires compared, run %s\n", s.Study, s.Repertoires, s.RunID)
	fmt.Fprintf(w, "  duplicate join keys:      %d\n", len(s.Duplicates))
	fmt.Fprintf(w, "  fields missing (api/md):  %d/%d\n", len(s.Presence.MissingFromAPI), len(s.Presence.MissingFromMetadata))
	if s.Content != nil {
		fmt.Fprintf(w, "  content mismatches:       %d of %d pairs\n", len(s.Content.Mismatches), s.Content.PairsChecked)
	}
	if s.Types != nil {
		fmt.Fprintf(w, "  type mismatches:          %d of %d columns\n", len(s.Types.Mismatches), s.Types.Checked)
	}
	if s.Counts != nil {
		failed := 0
		for _, c := range s.Counts {
			if c.Verdict == reconcile.Fail {
				failed++
			}
		}
		fmt.Fprintf(w, "  count reconciliations:    %d failed of %d, %d skipped\n", failed, len(s.Counts), len(s.SkippedRepertoires))
	}
	if s.Stats != nil {
		failed := 0
		for _, c := range s.Stats {
			if !c.SumMatchesTotal || (c.FacetApplicable && !c.FacetMatchesStatsTotal) {
				failed++
			}
		}
		fmt.Fprintf(w, "  statistics checks:        %d failed of %d\n", failed, len(s.Stats))
	}
	fmt.Fprintf(w, "  remote failures:          %d\n", s.RemoteFailures)

	names := make([]string, 0, len(s.Reports))
	for name := range s.Reports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  report %s: %s\n", name, s.Reports[name])
	}
	fmt.Fprintf(w, "%s\n", status)
}
