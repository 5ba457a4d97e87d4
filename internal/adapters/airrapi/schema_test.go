package airrapi_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	. "github.com/smartystreets/goconvey/convey"
)

const validRepertoire = `{
	"repertoire_id": "R1",
	"study": {
		"study_id": "PRJNA1", "study_title": "t", "study_type": null,
		"inclusion_exclusion_criteria": null, "grants": null, "collected_by": null,
		"lab_name": "lab", "lab_address": null, "submitted_by": null,
		"pub_ids": null, "keywords_study": ["contains_ig"]
	},
	"subject": {"subject_id": "S1", "synthetic": false, "species": null, "sex": "female"},
	"sample": [{"sample_id": "SA1"}],
	"data_processing": [{"data_processing_id": "D1"}]
}`

func decodeRecords(t *testing.T, docs ...string) []any {
	t.Helper()
	recs := make([]any, 0, len(docs))
	for _, d := range docs {
		dec := json.NewDecoder(bytes.NewReader([]byte(d)))
		dec.UseNumber()
		var rec any
		if err := dec.Decode(&rec); err != nil {
			t.Fatal(err)
		}
		recs = append(recs, rec)
	}
	return recs
}

func TestValidateRepertoires(t *testing.T) {
	Convey("Given repertoire records", t, func() {
		Convey("When every required key is present, nulls included", func() {
			problems := airrapi.ValidateRepertoires(decodeRecords(t, validRepertoire))

			Convey("Then nothing is reported", func() {
				So(problems, ShouldBeEmpty)
			})
		})

		Convey("When keys are missing", func() {
			broken := `{"repertoire_id": 7, "study": {"study_title": "t"}, "subject": {"subject_id": "S1", "synthetic": false, "species": null, "sex": null}, "sample": []}`
			problems := airrapi.ValidateRepertoires(decodeRecords(t, validRepertoire, broken))

			Convey("Then each missing key of the broken record is named", func() {
				fields := map[string]bool{}
				for _, p := range problems {
					So(p.Index, ShouldEqual, 1)
					So(p.RepertoireID, ShouldEqual, "7")
					fields[p.Field] = true
				}
				So(fields["study.study_id"], ShouldBeTrue)
				So(fields["study.keywords_study"], ShouldBeTrue)
				So(fields["sample"], ShouldBeTrue)
				So(fields["data_processing"], ShouldBeTrue)
				So(fields["subject.subject_id"], ShouldBeFalse)
				So(problems[0].String(), ShouldStartWith, "Repertoire[1] (7): ")
			})
		})

		Convey("When an object field holds a scalar", func() {
			problems := airrapi.ValidateRepertoires(decodeRecords(t, `{"repertoire_id": "R2", "study": "PRJNA1"}`))

			Convey("Then the record is reported as malformed at that field", func() {
				So(problems, ShouldHaveLength, 1)
				So(problems[0].Field, ShouldEqual, "study")
			})
		})
	})
}
