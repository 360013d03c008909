// Package transform reshapes raw mortality series into the derived views a
// chart displays: absolute, percentage of baseline, cumulative, total,
// z-score and error-bar series.
package transform

// View selects the chart view a series is transformed for.
type View string

const (
	ViewDefault View = ""
	ViewZScore  View = "zscore"
)

// Config describes how a series should be reshaped. It is passed by value and
// never retained between calls.
type Config struct {
	ShowPercentage bool `json:"showPercentage" yaml:"showPercentage"`
	Cumulative     bool `json:"cumulative" yaml:"cumulative"`
	ShowTotal      bool `json:"showTotal" yaml:"showTotal"`
	// ShowCumPI is set when cumulative prediction intervals are shown. The
	// upstream data is then already cumulated.
	ShowCumPI  bool `json:"showCumPi" yaml:"showCumPi"`
	IsASMRType bool `json:"isAsmrType" yaml:"isAsmrType"`
	View       View `json:"view,omitempty" yaml:"view,omitempty"`
}

// InputCumulative reports whether the incoming series are already cumulative
// and must not be summed again.
func (c Config) InputCumulative() bool {
	return c.ShowCumPI && c.Cumulative
}

// ShowIntervals reports whether interval bounds are drawn in cumulative and
// total views.
func (c Config) ShowIntervals() bool {
	return c.ShowCumPI
}

// Series maps a field key to one value per reporting period. NaN marks a
// missing reading.
type Series map[string][]float64

// Get returns the values stored under key, or an empty slice.
func (s Series) Get(key string) []float64 {
	if v, ok := s[key]; ok && v != nil {
		return v
	}
	return []float64{}
}
