package transform

import (
	"math"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/mathutil"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
)

// Percentage divides data by baseline elementwise. Missing data counts as 0
// and a missing baseline as 1, so one absent baseline point does not blank
// the display. A zero baseline yields +Inf (or -Inf, or NaN for 0/0), which
// renderers draw as a gap.
func Percentage(data, baseline []float64) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		if math.IsNaN(v) {
			v = 0
		}
		b := mathutil.At(baseline, i)
		if math.IsNaN(b) {
			b = 1
		}
		out[i] = v / b
	}
	return out
}

// Cumulative returns the running sum of data.
func Cumulative(data []float64) []float64 {
	return mathutil.CumulativeSum(data)
}

// Total returns the grand total of data. When the input is already
// cumulative its last valid value is the total; summing it again would
// double count.
func Total(data []float64, inputCumulative bool) float64 {
	if inputCumulative {
		return mathutil.LastValidValue(data)
	}
	return mathutil.Total(data)
}

// ZScore returns a copy of the pre-computed z-score series of key.
func ZScore(data Series, key string, isASMR bool) ([]float64, error) {
	zKey, err := metrickey.GetZScoreKey(isASMR, key)
	if err != nil {
		return nil, err
	}
	src := data.Get(zKey)
	out := make([]float64, len(src))
	copy(out, src)
	return out, nil
}
