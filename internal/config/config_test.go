package config_test

import (
	"errors"
	"testing"
	"time"

	"github.com/okian/airrsanity/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func validConfig() *config.Config {
	cfg := config.New()
	cfg.MappingFile = "mapping.tsv"
	cfg.BaseURL = "https://airr.example.org"
	cfg.QueryFile = "query.json"
	cfg.Metadata = "metadata.xlsx"
	cfg.StudyID = "PRJNA1"
	cfg.ReportDir = "reports"
	cfg.AnnotationDir = "annotations"
	return cfg
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.EntryPoint, convey.ShouldEqual, "repertoire")
			convey.So(cfg.JoinKey, convey.ShouldEqual, "repertoire_id")
			convey.So(cfg.HeaderRow, convey.ShouldEqual, 1)
			convey.So(cfg.MetadataSheet, convey.ShouldEqual, "Metadata")
			convey.So(cfg.Pacing, convey.ShouldEqual, time.Second)
			convey.So(cfg.ReportFormat, convey.ShouldEqual, "csv")
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given a complete config", t, func() {
		cfg := validConfig()

		convey.Convey("When validating", func() {
			err := cfg.Validate()

			convey.Convey("Then it passes and list defaults are filled in", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"CC", "FC", "AT"})
				convey.So(cfg.Statistics, convey.ShouldResemble, []string{"count"})
				convey.So(cfg.Has(config.CoverageFacet), convey.ShouldBeTrue)
				convey.So(cfg.Has(config.CoverageStats), convey.ShouldBeFalse)
			})
		})

		convey.Convey("When coverage is given in lower case", func() {
			cfg.Coverage = []string{"st", " cc"}

			convey.Convey("Then it is normalised", func() {
				convey.So(cfg.Validate(), convey.ShouldBeNil)
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"ST", "CC"})
			})
		})

		convey.Convey("When required keys are missing or malformed", func() {
			cfg.BaseURL = "not a url"
			cfg.StudyID = ""
			cfg.Coverage = []string{"XX"}
			err := cfg.Validate()

			convey.Convey("Then every problem is named", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "base_url")
				convey.So(err.Error(), convey.ShouldContainSubstring, "study_id")
				convey.So(err.Error(), convey.ShouldContainSubstring, "coverage")
			})
		})

		convey.Convey("When facet coverage lacks an annotation directory", func() {
			cfg.AnnotationDir = ""
			err := cfg.Validate()

			convey.Convey("Then validation fails", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "annotation_dir")
			})
		})

		convey.Convey("When the annotation tool is set", func() {
			convey.Convey("Then known spellings pass", func() {
				cfg.AnnotationTool = "IMGT high-Vquest"
				convey.So(cfg.Validate(), convey.ShouldBeNil)
			})

			convey.Convey("Then unknown tools fail", func() {
				cfg.AnnotationTool = "blastn"
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "annotation_tool")
			})
		})

		convey.Convey("When the report format is unknown", func() {
			cfg.ReportFormat = "ods"

			convey.Convey("Then validation fails", func() {
				convey.So(cfg.Validate(), convey.ShouldNotBeNil)
			})
		})
	})
}
