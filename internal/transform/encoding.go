package transform

import (
	"encoding/json"
	"math"

	"gopkg.in/yaml.v3"
)

// Nullable converts values for encoding. Non-finite values become nil.
func Nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}

func fromNullable(values []*float64) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	return out
}

// MarshalJSON writes missing and non-finite readings as null.
func (s Series) MarshalJSON() ([]byte, error) {
	raw := make(map[string][]*float64, len(s))
	for k, v := range s {
		raw[k] = Nullable(v)
	}
	return json.Marshal(raw)
}

// UnmarshalJSON reads null entries as missing readings.
func (s *Series) UnmarshalJSON(data []byte) error {
	var raw map[string][]*float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = fromRaw(raw)
	return nil
}

// UnmarshalYAML reads null or ~ entries as missing readings.
func (s *Series) UnmarshalYAML(value *yaml.Node) error {
	var raw map[string][]*float64
	if err := value.Decode(&raw); err != nil {
		return err
	}
	*s = fromRaw(raw)
	return nil
}

func fromRaw(raw map[string][]*float64) Series {
	if raw == nil {
		return nil
	}
	series := make(Series, len(raw))
	for k, v := range raw {
		series[k] = fromNullable(v)
	}
	return series
}
