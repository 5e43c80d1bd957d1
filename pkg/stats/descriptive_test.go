package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentileNearestRank(t *testing.T) {
	values := []float64{100, 110, 120}
	assert.Equal(t, 110.0, Percentile(values, 50))
	assert.Equal(t, 120.0, Percentile(values, 95))
	assert.Equal(t, 120.0, Percentile(values, 99))
}

func TestPercentileEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Percentile(nil, 50))
}

func TestMeanStddevEmpty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.Equal(t, 0.0, Stddev(nil))
}

func TestMeanStddev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	assert.InDelta(t, 5.0, Mean(values), 1e-9)
	assert.InDelta(t, 2.0, Stddev(values), 1e-9)
}

func TestMinMax(t *testing.T) {
	values := []float64{3, 1, 4, 1, 5}
	assert.Equal(t, 1.0, Min(values))
	assert.Equal(t, 5.0, Max(values))
	assert.Equal(t, 0.0, Min(nil))
	assert.Equal(t, 0.0, Max(nil))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 2)
	if assert.Len(t, bins, 2) {
		total := bins[0].Count + bins[1].Count
		assert.Equal(t, 10, total)
	}
}

func TestHistogramEmpty(t *testing.T) {
	assert.Nil(t, Histogram(nil, 5))
	assert.Nil(t, Histogram([]float64{1, 2}, 0))
}
