package evalagents

import (
	"context"
	"time"

	"github.com/evalforge/evalharness/pkg/evalmodel"
	"github.com/evalforge/evalharness/pkg/stats"
)

// RegressionInput is the regression-detection agent's contract (§4.F):
// two prior JobReports from the same target group, compared metric by
// metric.
type RegressionInput struct {
	Baseline        evalmodel.JobReport
	Candidate       evalmodel.JobReport
	ConfidenceLevel float64 // default 0.95
	ExecutionRef    evalmodel.ExecutionRef
}

// MetricComparison is one metric's statistical comparison between the
// baseline and candidate job.
type MetricComparison struct {
	TargetRef   string
	Metric      string
	WelchT      stats.WelchTTestResult
	CohensD     float64
	CILower     float64
	CIUpper     float64
	Regressed   bool
}

// RegressionOutput is the full per-group, per-metric comparison.
type RegressionOutput struct {
	Comparisons []MetricComparison
}

// RegressionAgent flags statistically significant regressions between
// two benchmark runs of the same target group.
type RegressionAgent struct{}

func (a *RegressionAgent) Execute(ctx context.Context, in RegressionInput) (RegressionOutput, evalmodel.DecisionRecord, error) {
	startedAt := time.Now()
	level := in.ConfidenceLevel
	if level == 0 {
		level = 0.95
	}

	var comparisons []MetricComparison
	for ref, baselineGroup := range in.Baseline.Groups {
		candidateGroup, ok := in.Candidate.Groups[ref]
		if !ok {
			continue
		}
		baselineLatencies := latenciesFor(in.Baseline.Outcomes, ref)
		candidateLatencies := latenciesFor(in.Candidate.Outcomes, ref)

		comparisons = append(comparisons, compareMetric(ref, "latency_ms", baselineLatencies, candidateLatencies, level))
		comparisons = append(comparisons, compareMetric(ref, "success_rate",
			[]float64{baselineGroup.SuccessRate}, []float64{candidateGroup.SuccessRate}, level))
	}

	regressedCount := 0
	for _, c := range comparisons {
		if c.Regressed {
			regressedCount++
		}
	}
	confidence := 1.0
	if len(comparisons) > 0 {
		confidence = 1 - float64(regressedCount)/float64(len(comparisons))
	}

	out := RegressionOutput{Comparisons: comparisons}
	record, err := buildRecord(
		"regression-detection", "regression_result",
		in, out,
		confidence,
		[]evalmodel.ConfidenceFactor{{Factor: "non_regressed_metric_ratio", Weight: 1.0, Value: confidence}},
		nil, in.ExecutionRef, startedAt,
	)
	return out, record, err
}

func latenciesFor(outcomes []evalmodel.CallOutcome, ref string) []float64 {
	var latencies []float64
	for _, o := range outcomes {
		if o.TargetRef == ref && o.Success {
			latencies = append(latencies, float64(o.LatencyMs))
		}
	}
	return latencies
}

// compareMetric runs Welch's t-test and Cohen's d on a single metric's
// two samples, per §4.F's "per-metric Welch's t + Cohen's d + CI"
// contract. A metric is flagged regressed when the candidate's mean is
// worse (higher latency, lower success rate) and the difference is
// significant at the configured level.
func compareMetric(targetRef, metric string, baseline, candidate []float64, level float64) MetricComparison {
	t := stats.WelchTTest(baseline, candidate)
	d := stats.CohensD(baseline, candidate)
	lower, upper := stats.ConfidenceInterval(candidate, level)

	significant := len(baseline) >= 2 && len(candidate) >= 2 && t.PValue < (1-level)
	worseDirection := stats.Mean(candidate) > stats.Mean(baseline)
	if metric == "success_rate" {
		worseDirection = stats.Mean(candidate) < stats.Mean(baseline)
	}

	return MetricComparison{
		TargetRef: targetRef,
		Metric:    metric,
		WelchT:    t,
		CohensD:   d,
		CILower:   lower,
		CIUpper:   upper,
		Regressed: significant && worseDirection,
	}
}
