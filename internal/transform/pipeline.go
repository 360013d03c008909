package transform

import (
	"math"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
	"go.uber.org/zap"
)

// ErrorDataPoint is one point of an error-bar series. A nil value draws no
// mark, which is different from a zero.
type ErrorDataPoint struct {
	X    int      `json:"x"`
	Y    *float64 `json:"y"`
	YMin *float64 `json:"yMin"`
	YMax *float64 `json:"yMax"`
}

// Pipeline applies the transform strategies selected by a Config.
type Pipeline struct {
	logger *zap.Logger
}

// NewPipeline creates a pipeline. If logger is nil a no-op logger is used.
func NewPipeline(logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{logger: logger}
}

// TransformData returns the flat series displayed for key under cfg.
//
// A z-score view of a primary series takes priority over every other option.
// Otherwise the series is optionally divided by its baseline and then shown
// per period, cumulated, or reduced to a single total. Missing keys produce an
// empty series; the only error is a key outside the metric grammar.
func (p *Pipeline) TransformData(cfg Config, data Series, key string) ([]float64, error) {
	if cfg.View == ViewZScore && metrickey.IsPrimary(key) {
		return ZScore(data, key, cfg.IsASMRType)
	}
	if _, err := metrickey.Parse(key); err != nil {
		return nil, err
	}

	values := p.lookup(data, key, "transform.TransformData")
	if len(values) == 0 {
		return []float64{}, nil
	}

	if !cfg.ShowPercentage {
		return p.reshape(cfg, values), nil
	}

	baselineKey, err := metrickey.GetBaselineKey(cfg.IsASMRType, key)
	if err != nil {
		return nil, err
	}
	baseline := p.lookup(data, baselineKey, "transform.TransformData")

	switch {
	case cfg.ShowTotal:
		// total and cumulative total
		return Percentage(
			[]float64{Total(values, cfg.InputCumulative())},
			[]float64{Total(baseline, cfg.InputCumulative())},
		), nil
	case cfg.Cumulative:
		return Percentage(p.cumulate(cfg, values), p.cumulate(cfg, baseline)), nil
	default:
		return Percentage(values, baseline), nil
	}
}

// TransformErrorBarData returns the error-bar series displayed for key under
// cfg. Center, lower and upper bounds go through the same transform.
//
// In percentage mode every bound is divided by the baseline center: the
// prediction interval of the excess and the uncertainty of the baseline are
// independent and are not combined. When intervals are hidden in a
// cumulative or total view, bounds are nil for every point.
func (p *Pipeline) TransformErrorBarData(cfg Config, data Series, key string) ([]ErrorDataPoint, error) {
	if cfg.View == ViewZScore && metrickey.IsPrimary(key) {
		z, err := ZScore(data, key, cfg.IsASMRType)
		if err != nil {
			return nil, err
		}
		return toPoints(z, nil, nil), nil
	}

	lowerKey, upperKey, err := metrickey.BoundKeys(key)
	if err != nil {
		return nil, err
	}

	const op = "transform.TransformErrorBarData"
	center := p.lookup(data, key, op)
	if len(center) == 0 {
		return []ErrorDataPoint{}, nil
	}
	lower := data.Get(lowerKey)
	upper := data.Get(upperKey)

	var baseline []float64
	if cfg.ShowPercentage {
		baselineKey, err := metrickey.GetBaselineKey(cfg.IsASMRType, key)
		if err != nil {
			return nil, err
		}
		baseline = p.lookup(data, baselineKey, op)
	}

	aggregated := cfg.Cumulative || cfg.ShowTotal
	bands := !aggregated || cfg.ShowIntervals()

	var y, yMin, yMax []float64
	switch {
	case cfg.ShowTotal:
		y = []float64{Total(center, cfg.InputCumulative())}
		if bands {
			yMin = []float64{Total(lower, cfg.InputCumulative())}
			yMax = []float64{Total(upper, cfg.InputCumulative())}
		}
		if cfg.ShowPercentage {
			baseline = []float64{Total(baseline, cfg.InputCumulative())}
		}
	case cfg.Cumulative:
		y = p.cumulate(cfg, center)
		if bands {
			yMin = p.cumulate(cfg, lower)
			yMax = p.cumulate(cfg, upper)
		}
		if cfg.ShowPercentage {
			baseline = p.cumulate(cfg, baseline)
		}
	default:
		y, yMin, yMax = center, lower, upper
	}

	if cfg.ShowPercentage {
		y = Percentage(y, baseline)
		if bands {
			yMin = Percentage(yMin, baseline)
			yMax = Percentage(yMax, baseline)
		}
	}

	// an absent bound series stays absent after aggregation
	if !bands || len(lower) == 0 {
		yMin = nullBand(len(y))
	}
	if !bands || len(upper) == 0 {
		yMax = nullBand(len(y))
	}

	return toPoints(y, yMin, yMax), nil
}

// reshape applies the cumulative and total options to a plain series.
func (p *Pipeline) reshape(cfg Config, values []float64) []float64 {
	switch {
	case cfg.ShowTotal:
		return []float64{Total(values, cfg.InputCumulative())}
	case cfg.Cumulative:
		return p.cumulate(cfg, values)
	default:
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
}

func (p *Pipeline) cumulate(cfg Config, values []float64) []float64 {
	if cfg.InputCumulative() {
		out := make([]float64, len(values))
		copy(out, values)
		return out
	}
	return Cumulative(values)
}

func (p *Pipeline) lookup(data Series, key, op string) []float64 {
	values, ok := data[key]
	if !ok {
		p.logger.Debug("series key missing",
			zap.String("op", op),
			zap.String("key", key),
		)
		return []float64{}
	}
	return values
}

func nullBand(n int) []float64 {
	band := make([]float64, n)
	for i := range band {
		band[i] = math.NaN()
	}
	return band
}

func toPoints(y, yMin, yMax []float64) []ErrorDataPoint {
	points := make([]ErrorDataPoint, len(y))
	for i := range y {
		points[i] = ErrorDataPoint{
			X:    i,
			Y:    valueAt(y, i),
			YMin: valueAt(yMin, i),
			YMax: valueAt(yMax, i),
		}
	}
	return points
}

// valueAt returns a pointer to xs[i], or nil when the entry is missing or
// not finite.
func valueAt(xs []float64, i int) *float64 {
	if i >= len(xs) {
		return nil
	}
	v := xs[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
