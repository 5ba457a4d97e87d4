// Package config defines the audit run configuration and its loading hooks.
//
// Conventions:
// - New returns a Config filled with defaults.
// - Load layers a YAML file and environment variables on top of New.
// - Validate is called once every override, including CLI flags, is applied.
package config

import (
	"slices"
	"time"
)

// Coverage selects which checks a run performs.
const (
	CoverageContent = "CC"
	CoverageFacet   = "FC"
	CoverageTypes   = "AT"
	CoverageStats   = "ST"
)

// DefaultMappingRows is the number of repertoire-level rows at the head of
// the standard mapping table; the rows after them map rearrangement fields.
const DefaultMappingRows = 89

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn error"`
	// LogToFile tees records into LogFile, or a timestamped file when
	// LogFile is empty.
	LogToFile bool   `koanf:"log_to_file"`
	LogFile   string `koanf:"log_file"`
	LogJSON   bool   `koanf:"log_json"`

	// MappingFile is the tab-separated field mapping table.
	MappingFile string `koanf:"mapping_file" validate:"required"`
	// BaseURL is the repository root, e.g. https://covid19-1.ireceptor.org.
	BaseURL    string `koanf:"base_url" validate:"required,url"`
	EntryPoint string `koanf:"entry_point" validate:"oneof=repertoire rearrangement"`
	// QueryFile holds the JSON query selecting the study's repertoires.
	QueryFile string `koanf:"query_file" validate:"required"`
	ForceJSON bool   `koanf:"force_json"`

	// Metadata is the curator metadata path or URL.
	Metadata      string `koanf:"metadata" validate:"required"`
	MetadataSheet string `koanf:"metadata_sheet"`
	HeaderRow     int    `koanf:"header_row" validate:"gte=0"`
	StudyID       string `koanf:"study_id" validate:"required"`
	JoinKey       string `koanf:"join_key" validate:"required"`

	// FacetDir holds per-repertoire facet queries laid out as
	// <facet_dir>/<study>/facet_repertoire_id_<id>.json. Repertoires without
	// a file get a generated facet query.
	FacetDir       string `koanf:"facet_dir"`
	AnnotationDir  string `koanf:"annotation_dir"`
	AnnotationTool string `koanf:"annotation_tool" validate:"omitempty,annotation_tool"`
	// VQuestSummary names the archive member counted for VQuest output;
	// empty keeps 1_Summary.txt.
	VQuestSummary string `koanf:"vquest_summary"`

	ReportDir    string `koanf:"report_dir" validate:"required"`
	ReportFormat string `koanf:"report_format" validate:"oneof=csv xlsx"`
	MetricsFile  string `koanf:"metrics_file"`

	Coverage []string `koanf:"coverage" validate:"min=1,dive,oneof=CC FC AT ST"`

	// MappingRows caps the mapping table to its leading repertoire-level
	// rows. 0 keeps every row.
	MappingRows int `koanf:"mapping_rows" validate:"gte=0"`

	InsecureSkipVerify bool              `koanf:"insecure_skip_verify"`
	RequestHeaders     map[string]string `koanf:"request_headers"`
	RequestTimeout     time.Duration     `koanf:"request_timeout" validate:"gt=0"`
	// Pacing is the pause before each remote call.
	Pacing time.Duration `koanf:"pacing" validate:"gte=0"`

	StatsPath  string   `koanf:"stats_path"`
	Statistics []string `koanf:"statistics" validate:"dive,required"`
}

// New creates a Config holding the defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		EntryPoint:     "repertoire",
		MetadataSheet:  "Metadata",
		HeaderRow:      1,
		JoinKey:        "repertoire_id",
		MappingRows:    DefaultMappingRows,
		ReportFormat:   "csv",
		RequestTimeout: 5 * time.Minute,
		Pacing:         time.Second,
		StatsPath:      "/irplus/v1/stats/rearrangement/count",
	}
}

// Default list values are applied after unmarshalling so that a configured
// list replaces them instead of merging into them.
var (
	defaultCoverage   = []string{CoverageContent, CoverageFacet, CoverageTypes}
	defaultStatistics = []string{"count"}
)

func (c *Config) applyListDefaults() {
	if len(c.Coverage) == 0 {
		c.Coverage = slices.Clone(defaultCoverage)
	}
	if len(c.Statistics) == 0 {
		c.Statistics = slices.Clone(defaultStatistics)
	}
}

// Has reports whether the coverage list selects check.
func (c *Config) Has(check string) bool {
	return slices.Contains(c.Coverage, check)
}
