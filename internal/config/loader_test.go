package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/okian/airrsanity/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.JoinKey, convey.ShouldEqual, "repertoire_id")
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"CC", "FC", "AT"})
				convey.So(cfg.StatsPath, convey.ShouldEqual, "/irplus/v1/stats/rearrangement/count")
				convey.So(cfg.MappingRows, convey.ShouldEqual, config.DefaultMappingRows)
				convey.So(cfg.VQuestSummary, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			clearConfigEnvVars(t)
			t.Setenv("AIRRSANITY_BASE_URL", "https://airr.example.org")
			t.Setenv("AIRRSANITY_PACING", "250ms")
			t.Setenv("AIRRSANITY_COVERAGE", "FC, ST")
			t.Setenv("AIRRSANITY_HEADER_ROW", "0")
			t.Setenv("AIRRSANITY_FORCE_JSON", "true")
			t.Setenv("AIRRSANITY_MAPPING_ROWS", "0")
			t.Setenv("AIRRSANITY_REQUEST_HEADERS", "Authorization=Bearer abc, X-Trace=1, junk")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://airr.example.org")
				convey.So(cfg.Pacing, convey.ShouldEqual, 250*time.Millisecond)
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"FC", "ST"})
				convey.So(cfg.HeaderRow, convey.ShouldEqual, 0)
				convey.So(cfg.ForceJSON, convey.ShouldBeTrue)
				convey.So(cfg.MappingRows, convey.ShouldEqual, 0)
				convey.So(cfg.RequestHeaders, convey.ShouldResemble, map[string]string{
					"Authorization": "Bearer abc",
					"X-Trace":       "1",
				})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			clearConfigEnvVars(t)
			path := writeConfigFile(t, `
study_id: PRJNA1
metadata: md.xlsx
coverage: [AT]
statistics: [count, junction_length]
request_timeout: 30s
vquest_summary: 2_Summary.txt
request_headers:
  Authorization: Bearer abc
`)

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should load from YAML file and replace list defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StudyID, convey.ShouldEqual, "PRJNA1")
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"AT"})
				convey.So(cfg.Statistics, convey.ShouldResemble, []string{"count", "junction_length"})
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 30*time.Second)
				convey.So(cfg.JoinKey, convey.ShouldEqual, "repertoire_id")
				convey.So(cfg.VQuestSummary, convey.ShouldEqual, "2_Summary.txt")
				convey.So(cfg.RequestHeaders, convey.ShouldResemble, map[string]string{"Authorization": "Bearer abc"})
			})
		})

		convey.Convey("When the file comes from AIRRSANITY_CONFIG and env overrides it", func() {
			clearConfigEnvVars(t)
			path := writeConfigFile(t, "study_id: PRJNA1\nreport_dir: out\n")
			t.Setenv("AIRRSANITY_CONFIG", path)
			t.Setenv("AIRRSANITY_STUDY_ID", "PRJNA2")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.StudyID, convey.ShouldEqual, "PRJNA2")
				convey.So(cfg.ReportDir, convey.ShouldEqual, "out")
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			clearConfigEnvVars(t)
			path := writeConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, path)

			convey.Convey("Then it should return an error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			clearConfigEnvVars(t)

			cfg, err := config.Load(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "airrsanity.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func clearConfigEnvVars(t *testing.T) {
	t.Helper()
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "AIRRSANITY_") {
			t.Setenv(key, "")
			_ = os.Unsetenv(key)
		}
	}
}
