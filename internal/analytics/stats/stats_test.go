package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	tests := []struct {
		p    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{75, 3.25},
		{100, 4},
		{-5, 1},
		{120, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(values, tt.p), 1e-9, "p=%v", tt.p)
	}
	assert.Equal(t, []float64{4, 1, 3, 2}, values, "input must not be reordered")
	assert.Zero(t, Percentile(nil, 50))
}

func TestMeanStd(t *testing.T) {
	mean, std := MeanStd([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 5, mean, 1e-9)
	assert.InDelta(t, 2.138, std, 1e-3)

	mean, std = MeanStd([]float64{7})
	assert.Equal(t, 7.0, mean)
	assert.Zero(t, std)

	mean, std = MeanStd(nil)
	assert.Zero(t, mean)
	assert.Zero(t, std)
}

func TestVariance(t *testing.T) {
	assert.InDelta(t, 32.0/7, Variance([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
	assert.Zero(t, Variance([]float64{3}))
	assert.Zero(t, Variance([]float64{5, 5, 5}))
}

func TestZScore(t *testing.T) {
	assert.Equal(t, 2.0, ZScore(14, 10, 2))
	assert.Zero(t, ZScore(14, 10, 0))
}

func TestDescribe(t *testing.T) {
	d := Describe([]float64{5, 1, 4, 2, 3})
	assert.Equal(t, 5, d.Count)
	assert.InDelta(t, 3, d.Mean, 1e-9)
	assert.InDelta(t, 3, d.Median, 1e-9)
	assert.InDelta(t, 2, d.Q1, 1e-9)
	assert.InDelta(t, 4, d.Q3, 1e-9)
	assert.InDelta(t, 2, d.IQR, 1e-9)

	assert.Equal(t, Distribution{}, Describe(nil))
}
