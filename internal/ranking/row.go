// Package ranking turns per-jurisdiction mortality series into ranking table
// rows: one column per period with lower/upper bound columns and a total.
package ranking

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/mathutil"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
	"go.uber.org/zap"
)

// DisplayMode selects raw metric values or excess relative to baseline.
type DisplayMode string

const (
	DisplayAbsolute DisplayMode = "absolute"
	DisplayRelative DisplayMode = "relative"
)

// TableRow is one jurisdiction's row. Values holds the period, bound and
// total columns; constants.MissingValue marks an absent cell.
type TableRow struct {
	Country string
	ISO2C   string
	Href    string
	Values  map[string]float64
}

// Value returns the cell stored under column, or constants.MissingValue.
func (r TableRow) Value(column string) float64 {
	if v, ok := r.Values[column]; ok {
		return v
	}
	return constants.MissingValue
}

// MarshalJSON flattens the row into a single object.
func (r TableRow) MarshalJSON() ([]byte, error) {
	flat := make(map[string]interface{}, len(r.Values)+3)
	for k, v := range r.Values {
		flat[k] = v
	}
	flat["country"] = r.Country
	flat["iso2c"] = r.ISO2C
	flat["href"] = r.Href
	return json.Marshal(flat)
}

// RowInput is everything needed to build one jurisdiction's row.
type RowInput struct {
	ISO3    string           `json:"iso3c" yaml:"iso3c"`
	Country string           `json:"country" yaml:"country"`
	Series  transform.Series `json:"series" yaml:"series"`
	// MetricKey is the observed series key, e.g. "deaths" or "asmr_who".
	MetricKey string   `json:"metricKey" yaml:"metricKey"`
	Labels    []string `json:"labels" yaml:"labels"`
	// StartIndex and EndIndex select the half-open period window [Start, End).
	// A zero EndIndex runs to the last label.
	StartIndex     int         `json:"startIndex" yaml:"startIndex"`
	EndIndex       int         `json:"endIndex" yaml:"endIndex"`
	DisplayMode    DisplayMode `json:"displayMode" yaml:"displayMode"`
	ShowPercentage bool        `json:"showPercentage" yaml:"showPercentage"`
	Cumulative     bool        `json:"cumulative" yaml:"cumulative"`
	HideIncomplete bool        `json:"hideIncomplete" yaml:"hideIncomplete"`
	TotalKey       string      `json:"totalKey,omitempty" yaml:"totalKey,omitempty"`
}

// RowProcessor builds ranking rows.
type RowProcessor struct {
	logger *zap.Logger
}

// NewRowProcessor creates a row processor with the given logger.
// If logger is nil, it will use a no-op logger.
func NewRowProcessor(logger *zap.Logger) *RowProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RowProcessor{logger: logger}
}

// window holds the sliced center, bound and baseline series of one row.
type window struct {
	center, lower, upper, baseline []float64
}

// ProcessRow builds the row for one jurisdiction and reports whether it
// belongs in the table. A row is kept when at least one period has data and,
// with HideIncomplete, when the most recent period has data.
func (rp *RowProcessor) ProcessRow(in RowInput) (TableRow, bool, error) {
	key, err := metrickey.Parse(in.MetricKey)
	if err != nil {
		return TableRow{}, false, fmt.Errorf("ranking row %s: %w", in.ISO3, err)
	}
	key = key.WithVariant(metrickey.Observed).WithBound(metrickey.Center)

	totalKey := in.TotalKey
	if totalKey == "" {
		totalKey = constants.TotalColumnKey
	}

	start, end := clampWindow(in.StartIndex, in.EndIndex, len(in.Labels))
	w, err := rp.slice(in, key, start, end)
	if err != nil {
		return TableRow{}, false, err
	}

	relative := in.DisplayMode == DisplayRelative
	cumCenter := mathutil.CumulativeSum(mathutil.SanitizeArray(w.center))
	cumLower := mathutil.CumulativeSum(mathutil.SanitizeArray(w.lower))
	cumUpper := mathutil.CumulativeSum(mathutil.SanitizeArray(w.upper))
	cumBaseline := mathutil.CumulativeSum(mathutil.SanitizeArray(w.baseline))

	row := TableRow{
		Country: in.Country,
		ISO2C:   ISO2(in.ISO3),
		Href:    ExplorerHref(in.ISO3),
		Values:  make(map[string]float64, 3*(end-start+1)),
	}

	n := end - start
	present := make([]bool, n)
	anyData := false
	for j := 0; j < n; j++ {
		raw := mathutil.At(w.center, j)
		present[j] = mathutil.IsValid(raw) &&
			(relative || !mathutil.IsZero(raw, constants.AbsoluteZeroTolerance))
		anyData = anyData || present[j]

		var v, l, u float64
		switch {
		case !relative:
			v, l, u = raw, mathutil.At(w.lower, j), mathutil.At(w.upper, j)
		case in.ShowPercentage && in.Cumulative:
			b := mathutil.At(cumBaseline, j)
			v = mathutil.RelativeExcess(mathutil.At(cumCenter, j), b)
			l = mathutil.RelativeExcess(mathutil.At(cumLower, j), b)
			u = mathutil.RelativeExcess(mathutil.At(cumUpper, j), b)
		case in.ShowPercentage:
			b := mathutil.At(w.baseline, j)
			v = mathutil.RelativeExcess(raw, b)
			l = mathutil.RelativeExcess(mathutil.At(w.lower, j), b)
			u = mathutil.RelativeExcess(mathutil.At(w.upper, j), b)
		case in.Cumulative:
			v, l, u = mathutil.At(cumCenter, j), mathutil.At(cumLower, j), mathutil.At(cumUpper, j)
		default:
			v, l, u = raw, mathutil.At(w.lower, j), mathutil.At(w.upper, j)
		}

		label := in.Labels[start+j]
		row.Values[label] = cell(v, !relative)
		row.Values[label+constants.LowerSuffix] = cell(l, !relative)
		row.Values[label+constants.UpperSuffix] = cell(u, !relative)
	}

	var total [3]float64
	switch {
	case !relative:
		total = averageValid(w, present)
	case in.ShowPercentage:
		total = lastPresent(present, func(j int) [3]float64 {
			b := mathutil.At(cumBaseline, j)
			return [3]float64{
				mathutil.RelativeExcess(mathutil.At(cumCenter, j), b),
				mathutil.RelativeExcess(mathutil.At(cumLower, j), b),
				mathutil.RelativeExcess(mathutil.At(cumUpper, j), b),
			}
		})
	default:
		total = lastPresent(present, func(j int) [3]float64 {
			return [3]float64{mathutil.At(cumCenter, j), mathutil.At(cumLower, j), mathutil.At(cumUpper, j)}
		})
	}
	row.Values[totalKey] = cell(total[0], !relative)
	row.Values[totalKey+constants.LowerSuffix] = cell(total[1], !relative)
	row.Values[totalKey+constants.UpperSuffix] = cell(total[2], !relative)

	include := anyData && (!in.HideIncomplete || (n > 0 && present[n-1]))
	if !include {
		rp.logger.Debug("ranking row excluded",
			zap.String("op", "ranking.ProcessRow"),
			zap.String("iso3c", in.ISO3),
			zap.Bool("anyData", anyData),
			zap.Bool("hideIncomplete", in.HideIncomplete),
		)
	}
	return row, include, nil
}

// slice reads the series a row is built from and cuts them to the window.
// Absolute mode reads the metric itself and uses the center as its own bound
// when no interval exists. Relative mode reads the excess and baseline.
func (rp *RowProcessor) slice(in RowInput, key metrickey.Key, start, end int) (window, error) {
	get := func(k metrickey.Key) ([]float64, bool) {
		v, ok := in.Series[k.String()]
		return mathutil.Slice(v, start, end), ok
	}

	if in.DisplayMode != DisplayRelative {
		center, ok := get(key)
		if !ok {
			rp.logger.Debug("metric series missing",
				zap.String("op", "ranking.ProcessRow"),
				zap.String("iso3c", in.ISO3),
				zap.String("key", key.String()),
			)
		}
		lower, okLower := get(key.WithBound(metrickey.Lower))
		upper, okUpper := get(key.WithBound(metrickey.Upper))
		if !okLower || !okUpper {
			lower, upper = center, center
		}
		return window{center: center, lower: lower, upper: upper}, nil
	}

	excess := key.WithVariant(metrickey.Excess)
	baselineKey, err := metrickey.GetBaselineKey(key.StandardPopulation != "", excess.String())
	if err != nil {
		return window{}, err
	}
	center, _ := get(excess)
	lower, _ := get(excess.WithBound(metrickey.Lower))
	upper, _ := get(excess.WithBound(metrickey.Upper))
	baseline := mathutil.Slice(in.Series[baselineKey], start, end)
	return window{center: center, lower: lower, upper: upper, baseline: baseline}, nil
}

// cell rounds a value for display. Invalid values, and near-zero absolute
// readings, become constants.MissingValue.
func cell(v float64, absolute bool) float64 {
	if !mathutil.IsValid(v) {
		return constants.MissingValue
	}
	if absolute && mathutil.IsZero(v, constants.AbsoluteZeroTolerance) {
		return constants.MissingValue
	}
	return mathutil.Round(v, constants.DisplayDecimals)
}

// averageValid averages the periods with data. Rates and life expectancies
// do not sum to anything meaningful.
func averageValid(w window, present []bool) [3]float64 {
	var c, l, u []float64
	for j, ok := range present {
		if !ok {
			continue
		}
		c = append(c, mathutil.At(w.center, j))
		l = append(l, mathutil.At(w.lower, j))
		u = append(u, mathutil.At(w.upper, j))
	}
	mc, _ := mathutil.Mean(c)
	ml, _ := mathutil.Mean(l)
	mu, _ := mathutil.Mean(u)
	return [3]float64{mc, ml, mu}
}

// lastPresent evaluates at on the most recent period with data.
func lastPresent(present []bool, at func(j int) [3]float64) [3]float64 {
	for j := len(present) - 1; j >= 0; j-- {
		if present[j] {
			return at(j)
		}
	}
	return [3]float64{math.NaN(), math.NaN(), math.NaN()}
}

// Periods returns the labels inside the row's window.
func (in RowInput) Periods() []string {
	start, end := clampWindow(in.StartIndex, in.EndIndex, len(in.Labels))
	return in.Labels[start:end]
}

func clampWindow(start, end, n int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end <= 0 || end > n {
		end = n
	}
	if start > end {
		start = end
	}
	return start, end
}
