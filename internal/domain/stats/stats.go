// Package stats checks repository statistics buckets against their reported
// totals and against the facet count of the primary query endpoint.
package stats

import (
	"encoding/json"
	"fmt"
)

// CountStatistic is the only statistic that also has a facet count.
const CountStatistic = "count"

// NoData is the sum reported for a statistic without a data section.
const NoData int64 = -1

// Bucket is one (value, count) pair of a statistic.
type Bucket struct {
	Key   string
	Count int64
}

// StatBucket is one statistic for one repertoire.
type StatBucket struct {
	Name          string
	RepertoireID  string
	Buckets       []Bucket
	ReportedTotal int64
	// HasData is false when the response carried no data section.
	HasData bool
}

// Sum adds up the bucket counts, or returns NoData.
func (sb StatBucket) Sum() int64 {
	if !sb.HasData {
		return NoData
	}
	var sum int64
	for _, b := range sb.Buckets {
		sum += b.Count
	}
	return sum
}

// Check is the outcome for one statistic.
type Check struct {
	Name            string
	RepertoireID    string
	Sum             int64
	ReportedTotal   int64
	Facet           int64
	SumMatchesTotal bool
	// FacetApplicable is true only for the count statistic.
	FacetApplicable        bool
	FacetMatchesStatsTotal bool
}

// Evaluate checks the bucket sum and, for the count statistic, the facet
// count against the reported total.
func Evaluate(sb StatBucket, facet int64) Check {
	c := Check{
		Name:          sb.Name,
		RepertoireID:  sb.RepertoireID,
		Sum:           sb.Sum(),
		ReportedTotal: sb.ReportedTotal,
		Facet:         facet,
	}
	c.SumMatchesTotal = c.Sum == sb.ReportedTotal
	if sb.Name == CountStatistic {
		c.FacetApplicable = true
		c.FacetMatchesStatsTotal = facet == sb.ReportedTotal
	}
	return c
}

type response struct {
	Result []struct {
		Repertoire struct {
			RepertoireID json.RawMessage `json:"repertoire_id"`
		} `json:"repertoire"`
		Statistics []struct {
			Name  string          `json:"statistic_name"`
			Total int64           `json:"total"`
			Data  *[]bucketRecord `json:"data"`
		} `json:"statistics"`
	} `json:"Result"`
}

type bucketRecord struct {
	Key   json.RawMessage `json:"key"`
	Count int64           `json:"count"`
}

// ParseResponse decodes a statistics endpoint body into one StatBucket per
// repertoire and statistic, in response order.
func ParseResponse(body []byte) ([]StatBucket, error) {
	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	var out []StatBucket
	for _, res := range r.Result {
		id := rawText(res.Repertoire.RepertoireID)
		for _, st := range res.Statistics {
			sb := StatBucket{Name: st.Name, RepertoireID: id, ReportedTotal: st.Total}
			if st.Data != nil {
				sb.HasData = true
				for _, b := range *st.Data {
					sb.Buckets = append(sb.Buckets, Bucket{Key: rawText(b.Key), Count: b.Count})
				}
			}
			out = append(out, sb)
		}
	}
	return out, nil
}

// rawText renders a JSON scalar without string quotes.
func rawText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
