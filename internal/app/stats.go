package app

import (
	"context"

	"github.com/okian/airrsanity/internal/adapters/airrapi"
	"github.com/okian/airrsanity/internal/adapters/report"
	"github.com/okian/airrsanity/internal/domain/stats"
	"github.com/okian/airrsanity/internal/domain/table"
	"github.com/okian/airrsanity/pkg/logger"
	"github.com/okian/airrsanity/pkg/metrics"
)

// checkStats compares the statistics endpoint's totals with their buckets
// and, for the count statistic, with the facet count.
func (r *run) checkStats(ctx context.Context) error {
	url := airrapi.StatsEndpoint(r.cfg.BaseURL, r.cfg.StatsPath)
	for _, id := range r.matched {
		if err := ctx.Err(); err != nil {
			return err
		}
		log := r.log.With(logger.String("repertoire_id", id))

		if err := r.pace(ctx); err != nil {
			return err
		}
		resp, err := r.executor.Execute(ctx, url, airrapi.StatsQuery(id, r.cfg.Statistics),
			airrapi.ExecOptions{ExpectPass: true, Endpoint: "stats"})
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			log.Warn(ctx, "stats query failed", logger.Error(err))
			r.summary.RemoteFailures++
			continue
		}
		buckets, err := stats.ParseResponse(resp.Raw)
		if err != nil {
			log.Warn(ctx, "stats response unusable", logger.Error(err))
			r.summary.RemoteFailures++
			continue
		}

		for _, sb := range buckets {
			if sb.RepertoireID == "" {
				sb.RepertoireID = id
			}
			facet := stats.NoData
			if sb.Name == stats.CountStatistic {
				n, err := r.facetValue(ctx, id)
				if err != nil {
					return err
				}
				facet = n
			}
			c := stats.Evaluate(sb, facet)
			r.summary.Stats = append(r.summary.Stats, c)

			metrics.RecordStatsCheck("sum", c.SumMatchesTotal)
			if c.FacetApplicable {
				metrics.RecordStatsCheck("facet", c.FacetMatchesStatsTotal)
			}
			log.Info(ctx, "statistic checked",
				logger.String("statistic", c.Name),
				logger.Int64("sum", c.Sum),
				logger.Int64("total", c.ReportedTotal),
				logger.Bool("sum_matches_total", c.SumMatchesTotal),
				logger.Bool("facet_matches_stats_total", c.FacetMatchesStatsTotal))
		}
	}
	return r.write(ctx, reportStats, statsSheet(r.summary.Stats))
}

// facetValue reuses the facet count of the count pass when it ran and
// queries it otherwise. A missing facet is NoData.
func (r *run) facetValue(ctx context.Context, id string) (int64, error) {
	f, ok := r.facets[id]
	if !ok {
		var err error
		if f, err = r.facet(ctx, id); err != nil {
			return stats.NoData, err
		}
		if r.facets == nil {
			r.facets = map[string]facetOutcome{}
		}
		r.facets[id] = f
	}
	if n, known := f.count.Value(); known {
		return n, nil
	}
	return stats.NoData, nil
}

func statsSheet(checks []stats.Check) report.Sheet {
	sheet := report.Sheet{Header: []string{
		"repertoire_id", "statistic", "sum", "reported_total", "facet_count",
		"sum_matches_total", "facet_matches_stats_total",
	}}
	for _, c := range checks {
		facet, facetMatch := table.Null(), table.Null()
		if c.FacetApplicable {
			facet, facetMatch = table.Int(c.Facet), table.Bool(c.FacetMatchesStatsTotal)
		}
		sheet.Append(
			table.String(c.RepertoireID),
			table.String(c.Name),
			table.Int(c.Sum),
			table.Int(c.ReportedTotal),
			facet,
			table.Bool(c.SumMatchesTotal),
			facetMatch,
		)
	}
	return sheet
}
