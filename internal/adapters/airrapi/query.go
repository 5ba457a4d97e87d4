package airrapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"
)

// Endpoint joins a repository base URL and an ADC entry point such as
// "repertoire" or "rearrangement".
func Endpoint(base, entry string) string {
	return strings.TrimRight(base, "/") + "/airr/v1/" + strings.Trim(entry, "/")
}

// StatsEndpoint joins a repository base URL and a statistics path.
func StatsEndpoint(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// LoadQuery reads a JSON query file. In force mode a file that does not
// decode is returned verbatim as a string with newlines removed, and the
// server gets to judge it.
func LoadQuery(path string, force bool) (any, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQueryFile, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var q any
	if err := dec.Decode(&q); err != nil {
		if force {
			return strings.ReplaceAll(string(raw), "\n", ""), nil
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrQueryFile, path, err)
	}
	return q, nil
}

// FacetQuery builds the rearrangement facet query counting the sequences of
// one repertoire.
func FacetQuery(repertoireID string) map[string]any {
	return map[string]any{
		"filters": map[string]any{
			"op": "=",
			"content": map[string]any{
				"field": "repertoire_id",
				"value": repertoireID,
			},
		},
		"facets": "repertoire_id",
	}
}

// StatsQuery builds a statistics request for one repertoire.
func StatsQuery(repertoireID string, statistics []string) map[string]any {
	return map[string]any{
		"repertoires": []any{
			map[string]any{"repertoire": map[string]any{"repertoire_id": repertoireID}},
		},
		"statistics": statistics,
	}
}

// Facet is the first bucket of a facet response.
type Facet struct {
	RepertoireID string
	Count        int64
	// Found is false when the response held no bucket.
	Found bool
}

// ParseFacet reads the "Facet" array of a rearrangement response. Responses
// that are not StatusOK, or hold no bucket, give Found=false.
func ParseFacet(resp Response) (Facet, error) {
	if resp.Status != StatusOK || len(resp.Raw) == 0 {
		return Facet{}, nil
	}
	var body struct {
		Facet []map[string]json.RawMessage `json:"Facet"`
	}
	dec := json.NewDecoder(bytes.NewReader(resp.Raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return Facet{}, fmt.Errorf("%w: %w", ErrFacet, err)
	}
	if len(body.Facet) == 0 {
		return Facet{}, nil
	}
	first := body.Facet[0]
	rawCount, ok := first["count"]
	if !ok {
		return Facet{}, fmt.Errorf("%w: bucket has no count", ErrFacet)
	}
	n, err := decimal.NewFromString(strings.Trim(string(rawCount), `"`))
	if err != nil {
		return Facet{}, fmt.Errorf("%w: count %s: %w", ErrFacet, rawCount, err)
	}
	return Facet{RepertoireID: scalarText(first["repertoire_id"]), Count: n.IntPart(), Found: true}, nil
}

// Records returns the named top-level array of a response, such as
// "Repertoire". Bodies fetched in force mode are decoded here.
func Records(resp Response, key string) ([]any, error) {
	doc := resp.JSON
	if doc == nil && len(resp.Raw) > 0 {
		dec := json.NewDecoder(bytes.NewReader(resp.Raw))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: response is not an object", ErrDecode)
	}
	recs, ok := obj[key].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: response has no %s array", ErrDecode, key)
	}
	return recs, nil
}

func scalarText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
