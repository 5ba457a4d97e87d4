package airrapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RepertoireProblem is one AIRR schema violation in a repertoire record.
type RepertoireProblem struct {
	// Index is the record's position in the response array.
	Index        int
	RepertoireID string
	// Field is the dotted path of the offending field, empty for the whole
	// record.
	Field string
	Rule  string
}

func (p RepertoireProblem) String() string {
	field := p.Field
	if field == "" {
		field = "record"
	}
	return fmt.Sprintf("Repertoire[%d] (%s): %s %s", p.Index, p.RepertoireID, field, p.Rule)
}

// The AIRR Repertoire schema requires these keys to be present; a present
// null is allowed, so scalar fields are kept raw and only checked for
// presence.
type repertoireDoc struct {
	RepertoireID   json.RawMessage   `json:"repertoire_id"`
	Study          *studyDoc         `json:"study" validate:"required"`
	Subject        *subjectDoc       `json:"subject" validate:"required"`
	Sample         []json.RawMessage `json:"sample" validate:"required,min=1"`
	DataProcessing []json.RawMessage `json:"data_processing" validate:"required,min=1"`
}

type studyDoc struct {
	StudyID                    json.RawMessage `json:"study_id" validate:"required"`
	StudyTitle                 json.RawMessage `json:"study_title" validate:"required"`
	StudyType                  json.RawMessage `json:"study_type" validate:"required"`
	InclusionExclusionCriteria json.RawMessage `json:"inclusion_exclusion_criteria" validate:"required"`
	Grants                     json.RawMessage `json:"grants" validate:"required"`
	CollectedBy                json.RawMessage `json:"collected_by" validate:"required"`
	LabName                    json.RawMessage `json:"lab_name" validate:"required"`
	LabAddress                 json.RawMessage `json:"lab_address" validate:"required"`
	SubmittedBy                json.RawMessage `json:"submitted_by" validate:"required"`
	PubIDs                     json.RawMessage `json:"pub_ids" validate:"required"`
	KeywordsStudy              json.RawMessage `json:"keywords_study" validate:"required"`
}

type subjectDoc struct {
	SubjectID json.RawMessage `json:"subject_id" validate:"required"`
	Synthetic json.RawMessage `json:"synthetic" validate:"required"`
	Species   json.RawMessage `json:"species" validate:"required"`
	Sex       json.RawMessage `json:"sex" validate:"required"`
}

var schemaValidator = newSchemaValidator()

func newSchemaValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateRepertoires checks decoded repertoire records against the
// required keys of the AIRR Repertoire schema. Problems are returned in
// record order; an empty result means every record passed.
func ValidateRepertoires(records []any) []RepertoireProblem {
	var out []RepertoireProblem
	for i, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			out = append(out, RepertoireProblem{Index: i, Rule: "is not encodable: " + err.Error()})
			continue
		}
		var doc repertoireDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			p := RepertoireProblem{Index: i, Rule: "is malformed: " + err.Error()}
			var terr *json.UnmarshalTypeError
			if errors.As(err, &terr) {
				p.Field, p.Rule = terr.Field, "has type "+terr.Value+", want "+terr.Type.Kind().String()
			}
			out = append(out, p)
			continue
		}

		id := scalarText(doc.RepertoireID)
		err = schemaValidator.Struct(doc)
		var verrs validator.ValidationErrors
		switch {
		case errors.As(err, &verrs):
			for _, fe := range verrs {
				field := fe.Namespace()
				if j := strings.IndexByte(field, '.'); j >= 0 {
					field = field[j+1:]
				}
				out = append(out, RepertoireProblem{Index: i, RepertoireID: id, Field: field, Rule: "failed " + fe.Tag()})
			}
		case err != nil:
			out = append(out, RepertoireProblem{Index: i, RepertoireID: id, Rule: err.Error()})
		}
	}
	return out
}
