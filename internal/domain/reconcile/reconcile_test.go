package reconcile_test

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/okian/airrsanity/internal/domain/reconcile"
	"github.com/okian/airrsanity/internal/domain/table"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonical(t *testing.T) {
	Convey("Given counts of every kind", t, func() {
		So(reconcile.Known(10).Canonical(), ShouldEqual, "10")
		So(reconcile.Known(0).Canonical(), ShouldEqual, "0")
		So(reconcile.NoFormatMatch().Canonical(), ShouldEqual, "NFMD")
		So(reconcile.NoAPIResult().Canonical(), ShouldEqual, "NINAPI")
		So(reconcile.NullCount().Canonical(), ShouldEqual, "Null")
		So(reconcile.NoFormatMatch().Add(5).Canonical(), ShouldEqual, "NFMD")
		So(reconcile.Known(5).Add(5).Canonical(), ShouldEqual, "10")
	})
}

func TestReconcile(t *testing.T) {
	Convey("Given three counts", t, func() {
		Convey("Then the verdict follows decimal string equality", func() {
			values := []int64{0, 1, 9, 10, 11, 123456}
			for _, a := range values {
				for _, b := range values {
					for _, c := range values {
						want := strconv.FormatInt(a, 10) == strconv.FormatInt(b, 10) &&
							strconv.FormatInt(b, 10) == strconv.FormatInt(c, 10)
						got := reconcile.Reconcile(reconcile.Known(a), reconcile.Known(b), reconcile.Known(c))
						So(bool(got), ShouldEqual, want)
					}
				}
			}
		})

		Convey("When any source is a sentinel and the others are numbers", func() {
			Convey("Then the record fails", func() {
				So(reconcile.Reconcile(reconcile.NoFormatMatch(), reconcile.Known(10), reconcile.Known(10)), ShouldEqual, reconcile.Fail)
				So(reconcile.Reconcile(reconcile.Known(10), reconcile.NoAPIResult(), reconcile.Known(10)), ShouldEqual, reconcile.Fail)
				So(reconcile.Reconcile(reconcile.Known(10), reconcile.Known(10), reconcile.NullCount()), ShouldEqual, reconcile.Fail)
			})
		})

		Convey("When a curator count is NaN and both other sources say 10", func() {
			curator := reconcile.CuratorCount(table.Float(math.NaN()), true)

			Convey("Then it canonicalizes to the null token and fails", func() {
				So(curator.Canonical(), ShouldEqual, reconcile.TokenNullCount)
				So(reconcile.Reconcile(reconcile.Known(10), reconcile.Known(10), curator), ShouldEqual, reconcile.Fail)
			})
		})

		Convey("When two sentinels share a token", func() {
			Convey("Then they agree with each other but not with different tokens", func() {
				So(reconcile.Reconcile(reconcile.NullCount(), reconcile.NullCount(), reconcile.NullCount()), ShouldEqual, reconcile.Pass)
				So(reconcile.Reconcile(reconcile.NoFormatMatch(), reconcile.NoAPIResult(), reconcile.NullCount()), ShouldEqual, reconcile.Fail)
			})
		})
	})
}

func TestCuratorCount(t *testing.T) {
	Convey("Given curator cells", t, func() {
		So(reconcile.CuratorCount(table.Int(10), true).Canonical(), ShouldEqual, "10")
		So(reconcile.CuratorCount(table.Float(10), true).Canonical(), ShouldEqual, "10")
		So(reconcile.CuratorCount(table.Float(10.7), true).Canonical(), ShouldEqual, "10")
		So(reconcile.CuratorCount(table.String(" 1,234 "), true).Canonical(), ShouldEqual, "1234")
		So(reconcile.CuratorCount(table.String("1.0E1"), true).Canonical(), ShouldEqual, "10")
		So(reconcile.CuratorCount(table.String("unknown"), true).Canonical(), ShouldEqual, "Null")
		So(reconcile.CuratorCount(table.Null(), true).Canonical(), ShouldEqual, "Null")
		So(reconcile.CuratorCount(table.Int(10), false).Canonical(), ShouldEqual, "Null")
		So(reconcile.CuratorCount(table.Bool(true), true).Canonical(), ShouldEqual, "Null")
	})
}

func TestNewResult(t *testing.T) {
	Convey("Given matching counts", t, func() {
		files := reconcile.Files{Declared: []string{"a.txz"}, Found: []string{"a.txz"}}

		Convey("When the annotation count succeeded", func() {
			res := reconcile.NewResult("R1", "R1", files, reconcile.Known(10), reconcile.Known(10), reconcile.Known(10), "", nil)

			Convey("Then the record passes and keeps its own copy of the files", func() {
				So(res.Verdict, ShouldEqual, reconcile.Pass)
				files.Found[0] = "changed"
				So(res.Files.Found[0], ShouldEqual, "a.txz")
				So(res.Files.NotFound, ShouldBeEmpty)
			})
		})

		Convey("When counting failed", func() {
			res := reconcile.NewResult("R1", "R1", files, reconcile.Known(10), reconcile.Known(10), reconcile.Known(10), "", errors.New("corrupt"))

			Convey("Then the record fails", func() {
				So(res.Verdict, ShouldEqual, reconcile.Fail)
				So(res.Verdict.String(), ShouldEqual, "FAIL")
			})
		})
	})
}
