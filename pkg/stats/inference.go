package stats

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// WelchTTestResult is the output of Welch's t-test for two independent
// samples with possibly unequal variance.
type WelchTTestResult struct {
	T          float64
	DF         float64
	PValue     float64
	MeanDiff   float64
}

// WelchTTest computes Welch's t-statistic, Welch-Satterthwaite degrees of
// freedom, and the two-sided p-value via the Student's-t CDF (gonum
// distuv.StudentsT). Returns the zero value when either sample has fewer
// than 2 observations.
func WelchTTest(a, b []float64) WelchTTestResult {
	n1, n2 := len(a), len(b)
	if n1 < 2 || n2 < 2 {
		return WelchTTestResult{}
	}

	m1, m2 := Mean(a), Mean(b)
	v1, v2 := sampleVariance(a), sampleVariance(b)

	se2 := v1/float64(n1) + v2/float64(n2)
	if se2 <= 0 {
		return WelchTTestResult{MeanDiff: m1 - m2}
	}
	se := math.Sqrt(se2)

	t := (m1 - m2) / se

	df := se2 * se2 / (
		(v1*v1)/(float64(n1)*float64(n1)*float64(n1-1)) +
			(v2*v2)/(float64(n2)*float64(n2)*float64(n2-1)))

	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	// Two-sided p-value: 2 * P(T > |t|) = 2 * (1 - CDF(|t|)).
	p := 2 * (1 - dist.CDF(math.Abs(t)))

	return WelchTTestResult{T: t, DF: df, PValue: p, MeanDiff: m1 - m2}
}

// sampleVariance is the unbiased (n-1 denominator) variance, needed for
// Welch's formula; Variance() in descriptive.go is the population (n
// denominator) variance used for AggregatedStats.
func sampleVariance(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mu := Mean(values)
	var sum float64
	for _, v := range values {
		d := v - mu
		sum += d * d
	}
	return sum / float64(n-1)
}

// CohensD returns Cohen's d effect size using the pooled standard
// deviation of two independent samples.
func CohensD(a, b []float64) float64 {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return 0
	}
	v1, v2 := sampleVariance(a), sampleVariance(b)
	pooledN := float64(n1 + n2 - 2)
	if pooledN <= 0 {
		return 0
	}
	pooledVar := (float64(n1-1)*v1 + float64(n2-1)*v2) / pooledN
	if pooledVar <= 0 {
		return 0
	}
	pooledSD := math.Sqrt(pooledVar)
	return (Mean(a) - Mean(b)) / pooledSD
}

// ConfidenceInterval returns the symmetric CI around the mean using the t
// quantile at the given confidence level (default 0.95 when level <= 0).
func ConfidenceInterval(values []float64, level float64) (lower, upper float64) {
	n := len(values)
	if n < 2 {
		m := Mean(values)
		return m, m
	}
	if level <= 0 {
		level = 0.95
	}
	mean := Mean(values)
	sd := math.Sqrt(sampleVariance(values))
	se := sd / math.Sqrt(float64(n))

	df := float64(n - 1)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	alpha := 1 - level
	tCrit := dist.Quantile(1 - alpha/2)

	margin := tCrit * se
	return mean - margin, mean + margin
}

// MannWhitneyResult is the output of the Mann-Whitney U test.
type MannWhitneyResult struct {
	U      float64
	PValue float64
}

// MannWhitneyU computes the Mann-Whitney U statistic for two independent
// samples. Uses the normal approximation when min(n1,n2) >= 8, and an
// exact small-sample table otherwise (spec §4.C).
func MannWhitneyU(a, b []float64) MannWhitneyResult {
	n1, n2 := len(a), len(b)
	if n1 == 0 || n2 == 0 {
		return MannWhitneyResult{}
	}

	ranks, tieCorrection := rankAll(a, b)
	r1 := 0.0
	for i := 0; i < n1; i++ {
		r1 += ranks[i]
	}

	u1 := r1 - float64(n1*(n1+1))/2
	u2 := float64(n1*n2) - u1
	u := math.Min(u1, u2)

	if n1 >= 8 && n2 >= 8 {
		return MannWhitneyResult{U: u, PValue: mannWhitneyNormalP(u, n1, n2, tieCorrection)}
	}
	return MannWhitneyResult{U: u, PValue: mannWhitneyExactP(u, n1, n2)}
}

// rankAll assigns average ranks across the pooled, sorted samples and
// returns per-observation ranks in original a-then-b order, plus the tie
// correction term Σ(t³-t) used by the normal approximation's variance.
func rankAll(a, b []float64) ([]float64, float64) {
	type obs struct {
		val float64
		idx int
	}
	n1, n2 := len(a), len(b)
	pool := make([]obs, 0, n1+n2)
	for i, v := range a {
		pool = append(pool, obs{v, i})
	}
	for i, v := range b {
		pool = append(pool, obs{v, n1 + i})
	}

	sortedIdx := make([]int, len(pool))
	for i := range sortedIdx {
		sortedIdx[i] = i
	}
	// simple stable sort by value
	for i := 1; i < len(sortedIdx); i++ {
		j := i
		for j > 0 && pool[sortedIdx[j-1]].val > pool[sortedIdx[j]].val {
			sortedIdx[j-1], sortedIdx[j] = sortedIdx[j], sortedIdx[j-1]
			j--
		}
	}

	ranks := make([]float64, n1+n2)
	var tieCorrection float64
	i := 0
	for i < len(sortedIdx) {
		j := i
		for j < len(sortedIdx) && pool[sortedIdx[j]].val == pool[sortedIdx[i]].val {
			j++
		}
		avgRank := float64(i+j+1) / 2 // ranks are 1-based
		tieCount := j - i
		if tieCount > 1 {
			tc := float64(tieCount)
			tieCorrection += tc*tc*tc - tc
		}
		for k := i; k < j; k++ {
			ranks[pool[sortedIdx[k]].idx] = avgRank
		}
		i = j
	}
	return ranks, tieCorrection
}

func mannWhitneyNormalP(u float64, n1, n2 int, tieCorrection float64) float64 {
	nf1, nf2 := float64(n1), float64(n2)
	meanU := nf1 * nf2 / 2
	nTotal := nf1 + nf2
	varU := nf1 * nf2 / 12 * (nTotal + 1 - tieCorrection/(nTotal*(nTotal-1)))
	if varU <= 0 {
		return 1
	}
	z := (u - meanU) / math.Sqrt(varU)
	dist := distuv.Normal{Mu: 0, Sigma: 1}
	return 2 * (1 - dist.CDF(math.Abs(z)))
}

// mannWhitneyExactP enumerates all C(n1+n2, n1) rank assignments to find
// the exact two-sided p-value for small samples. MannWhitneyU invokes it
// whenever at least one of n1, n2 is below 8; the other side may be
// larger.
func mannWhitneyExactP(u float64, n1, n2 int) float64 {
	total := countRankAssignments(n1, n2)
	if total == 0 {
		return 1
	}
	uInt := int(math.Round(u))
	countAtOrBeyond := 0
	dist := exactUDistribution(n1, n2)
	maxU := n1 * n2
	for uVal, count := range dist {
		dLower := uVal
		dUpper := maxU - uVal
		extreme := dLower
		if dUpper < extreme {
			extreme = dUpper
		}
		observedExtreme := uInt
		if maxU-uInt < observedExtreme {
			observedExtreme = maxU - uInt
		}
		if extreme <= observedExtreme {
			countAtOrBeyond += count
		}
	}
	p := float64(countAtOrBeyond) / float64(total)
	if p > 1 {
		p = 1
	}
	return p
}

// exactUDistribution builds the frequency table of U values over all
// distinct rank-subset assignments of n1 items out of n1+n2, via the
// standard recurrence for the Mann-Whitney null distribution.
func exactUDistribution(n1, n2 int) map[int]int {
	// f(u, n1, n2) = f(u-n2, n1-1, n2) + f(u, n1, n2-1), f(0,0,0)=1.
	memo := map[[3]int]map[int]int{}
	var build func(n1, n2 int) map[int]int
	build = func(n1, n2 int) map[int]int {
		key := [3]int{0, n1, n2}
		if v, ok := memo[key]; ok {
			return v
		}
		if n1 == 0 || n2 == 0 {
			result := map[int]int{0: 1}
			memo[key] = result
			return result
		}
		result := map[int]int{}
		left := build(n1-1, n2)
		for u, c := range left {
			result[u+n2] += c
		}
		right := build(n1, n2-1)
		for u, c := range right {
			result[u] += c
		}
		memo[key] = result
		return result
	}
	return build(n1, n2)
}

func countRankAssignments(n1, n2 int) int {
	dist := exactUDistribution(n1, n2)
	total := 0
	for _, c := range dist {
		total += c
	}
	return total
}
