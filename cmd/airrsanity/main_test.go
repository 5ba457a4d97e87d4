package main

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/airrsanity/internal/config"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestApplyFlags(t *testing.T) {
	convey.Convey("Given a command line overriding some settings", t, func() {
		cmd := newRootCmd()
		err := cmd.ParseFlags([]string{
			"--base-url", "https://repo.example.org",
			"--coverage", "cc,st",
			"--pacing", "0s",
			"--header-row", "0",
			"--insecure-skip-verify",
			"--header", "Authorization=Bearer abc",
			"--mapping-rows", "0",
		})
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("When the flags are applied to a config", func() {
			cfg := config.New()
			cfg.StudyID = "PRJNA1"
			convey.So(applyFlags(cmd, cfg), convey.ShouldBeNil)

			convey.Convey("Then only the flags that were set override it", func() {
				convey.So(cfg.BaseURL, convey.ShouldEqual, "https://repo.example.org")
				convey.So(cfg.Coverage, convey.ShouldResemble, []string{"cc", "st"})
				convey.So(cfg.Pacing, convey.ShouldEqual, time.Duration(0))
				convey.So(cfg.HeaderRow, convey.ShouldEqual, 0)
				convey.So(cfg.InsecureSkipVerify, convey.ShouldBeTrue)
				convey.So(cfg.StudyID, convey.ShouldEqual, "PRJNA1")
				convey.So(cfg.RequestTimeout, convey.ShouldEqual, 5*time.Minute)
				convey.So(cfg.RequestHeaders, convey.ShouldResemble, map[string]string{"Authorization": "Bearer abc"})
				convey.So(cfg.MappingRows, convey.ShouldEqual, 0)
			})
		})
	})
}

func TestRootCommand(t *testing.T) {
	convey.Convey("Given a study on disk and a repository", t, func() {
		t.Setenv("AIRRSANITY_CONFIG", "")
		dir := t.TempDir()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"Repertoire":[{"repertoire_id":"R1","subject":{"subject_id":"S1"}}]}`))
		}))
		defer srv.Close()

		writeFile(t, filepath.Join(dir, "metadata.csv"), "repertoire_id,study_id,subject_id\nR1,PRJNA1,S9\n")
		writeFile(t, filepath.Join(dir, "mapping.tsv"), "ir_adc_api_response\tir_curator\tairr_type\nsubject.subject_id\tsubject_id\tstring\n")
		writeFile(t, filepath.Join(dir, "query.json"), `{"filters":{}}`)
		writeFile(t, filepath.Join(dir, "config.yaml"), "study_id: PRJNA1\ncoverage: [CC]\npacing: 0s\n")

		args := []string{
			"--config", filepath.Join(dir, "config.yaml"),
			"--base-url", srv.URL,
			"--metadata", filepath.Join(dir, "metadata.csv"),
			"--mapping-file", filepath.Join(dir, "mapping.tsv"),
			"--query-file", filepath.Join(dir, "query.json"),
			"--report-dir", filepath.Join(dir, "reports"),
		}

		convey.Convey("When the audit runs", func() {
			var out bytes.Buffer
			cmd := newRootCmd()
			cmd.SetOut(&out)
			cmd.SetArgs(args)
			err := cmd.Execute()

			convey.Convey("Then it succeeds and prints the findings", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(out.String(), convey.ShouldContainSubstring, "study PRJNA1: 1 repertoires compared")
				convey.So(out.String(), convey.ShouldContainSubstring, "content mismatches:       1 of 1 pairs")
				convey.So(out.String(), convey.ShouldContainSubstring, "FAIL")
			})
		})

		convey.Convey("When the audit runs in strict mode", func() {
			cmd := newRootCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetArgs(append(args, "--strict"))

			convey.Convey("Then the findings become an error", func() {
				convey.So(errors.Is(cmd.Execute(), errFindings), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a required setting is missing", func() {
			cmd := newRootCmd()
			cmd.SetArgs([]string{"--config", filepath.Join(dir, "config.yaml")})

			convey.Convey("Then the config is rejected", func() {
				convey.So(errors.Is(cmd.Execute(), config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}
