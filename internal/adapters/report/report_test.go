package report_test

import (
	"context"
	"encoding/csv"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/xuri/excelize/v2"

	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/domain/table"
)

func fixedClock() time.Time { return time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC) }

func sampleSheet() report.Sheet {
	s := report.Sheet{Header: []string{"repertoire_id", "facet_count", "files", "ratio"}}
	s.Append(table.String("R1"), table.Int(10), table.List(table.String("a.fmt19")), table.Float(math.NaN()))
	s.Append(table.String("R2"), table.String("NINAPI"), table.List(), table.Float(0.5))
	return s
}

func TestWriteCSV(t *testing.T) {
	Convey("Given a csv writer", t, func() {
		dir := filepath.Join(t.TempDir(), "reports")
		w, err := report.NewWriter(dir, "PRJNA1", report.WithClock(fixedClock))
		So(err, ShouldBeNil)

		Convey("When writing a sheet", func() {
			path, err := w.Write(context.Background(), "reported_fields", sampleSheet())

			Convey("Then the file is named after study, report and date", func() {
				So(err, ShouldBeNil)
				So(filepath.Base(path), ShouldEqual, "PRJNA1_reported_fields_2024-03-05.csv")
			})

			Convey("Then the cells hold canonical text", func() {
				f, err := os.Open(path)
				So(err, ShouldBeNil)
				defer f.Close()
				recs, err := csv.NewReader(f).ReadAll()
				So(err, ShouldBeNil)
				So(recs, ShouldHaveLength, 3)
				So(recs[1], ShouldResemble, []string{"R1", "10", "[a.fmt19]", "NaN"})
				So(recs[2][1], ShouldEqual, "NINAPI")
			})
		})

		Convey("When the context is already cancelled", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			_, err := w.Write(ctx, "x", sampleSheet())

			Convey("Then nothing is written", func() {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			})
		})

		Convey("When writing a raw document", func() {
			path, err := w.WriteRaw(context.Background(), "repertoire_response", "json", []byte(`{"Repertoire":[]}`))

			Convey("Then it is stored verbatim", func() {
				So(err, ShouldBeNil)
				data, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(data), ShouldEqual, `{"Repertoire":[]}`)
			})
		})
	})
}

func TestWriteXLSX(t *testing.T) {
	Convey("Given an xlsx writer", t, func() {
		w, err := report.NewWriter(t.TempDir(), "PRJNA1", report.WithFormat(report.FormatXLSX), report.WithClock(fixedClock))
		So(err, ShouldBeNil)

		Convey("When writing a sheet", func() {
			path, err := w.Write(context.Background(), "stats", sampleSheet())
			So(err, ShouldBeNil)

			Convey("Then the workbook holds the header and rows", func() {
				f, err := excelize.OpenFile(path)
				So(err, ShouldBeNil)
				defer f.Close()
				rows, err := f.GetRows("Report")
				So(err, ShouldBeNil)
				So(rows, ShouldHaveLength, 3)
				So(rows[0][0], ShouldEqual, "repertoire_id")
				So(rows[1][1], ShouldEqual, "10")
				So(rows[1][2], ShouldEqual, "[a.fmt19]")
			})
		})
	})

	Convey("Given an unknown format", t, func() {
		_, err := report.NewWriter(t.TempDir(), "S", report.WithFormat("ods"))

		Convey("Then the writer is refused", func() {
			So(errors.Is(err, report.ErrFormat), ShouldBeTrue)
		})
	})
}
