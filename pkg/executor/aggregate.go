package executor

import (
	"sort"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/stats"
)

// aggregateGroups reduces outcomes into one AggregatedStats per target_ref,
// per §3 and the testable properties in §8 (min<=p50<=p95<=p99<=max,
// total_cost_usd = sum of per-outcome costs).
func aggregateGroups(outcomes []evalmodel.CallOutcome) map[string]evalmodel.AggregatedStats {
	byTarget := make(map[string][]evalmodel.CallOutcome)
	for _, o := range outcomes {
		byTarget[o.TargetRef] = append(byTarget[o.TargetRef], o)
	}

	groups := make(map[string]evalmodel.AggregatedStats, len(byTarget))
	for ref, group := range byTarget {
		groups[ref] = aggregateOne(group)
	}
	return groups
}

func aggregateOne(group []evalmodel.CallOutcome) evalmodel.AggregatedStats {
	var succeeded, failed int
	var latencies []float64
	var totalTokens int64
	var totalCost float64
	var tpsValues []float64

	for _, o := range group {
		if o.Success {
			succeeded++
			latencies = append(latencies, float64(o.LatencyMs))
			totalTokens += int64(o.PromptTokens + o.CompletionTokens)
			if o.TokensPerSecond != nil {
				tpsValues = append(tpsValues, *o.TokensPerSecond)
			}
		} else {
			failed++
		}
		totalCost += o.TotalCostUSD()
	}

	total := succeeded + failed
	agg := evalmodel.AggregatedStats{
		Total:        total,
		Succeeded:    succeeded,
		Failed:       failed,
		TotalTokens:  totalTokens,
		TotalCostUSD: totalCost,
	}
	if total > 0 {
		agg.SuccessRate = float64(succeeded) / float64(total)
	}
	if succeeded > 0 {
		agg.P50Ms = stats.Percentile(latencies, 50)
		agg.P95Ms = stats.Percentile(latencies, 95)
		agg.P99Ms = stats.Percentile(latencies, 99)
		agg.MeanMs = stats.Mean(latencies)
		agg.MinMs = stats.Min(latencies)
		agg.MaxMs = stats.Max(latencies)
		agg.StddevMs = stats.Stddev(latencies)
		agg.AvgTokensPerRequest = float64(totalTokens) / float64(succeeded)
		agg.AvgCostPerRequestUSD = totalCost / float64(succeeded)
		agg.AvgTokensPerSecond = stats.Mean(tpsValues)
	}
	return agg
}

// sortOutcomes orders outcomes by (target, test, iteration) — the
// canonical ordering required for the idempotence property in §8.
func sortOutcomes(outcomes []evalmodel.CallOutcome) {
	sort.Slice(outcomes, func(i, j int) bool {
		a, b := outcomes[i], outcomes[j]
		if a.TargetRef != b.TargetRef {
			return a.TargetRef < b.TargetRef
		}
		if a.TestRef != b.TestRef {
			return a.TestRef < b.TestRef
		}
		return a.Iteration < b.Iteration
	})
}
