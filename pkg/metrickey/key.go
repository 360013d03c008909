// Package metrickey models the field keys of a mortality series record.
//
// Keys follow a closed grammar:
//
//	<metric>[_<stdpop>][_baseline|_excess][_lower|_upper]
//	<metric>[_<stdpop>]_zscore
//
// Parsing a key into a Key and rendering it back is the only way companion
// keys (baseline, bounds, z-score) are derived, so a derived key always
// belongs to the grammar.
package metrickey

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownMetric is returned when a key does not start with a known metric.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrInvalidKey is returned when the suffixes of a key do not follow the grammar.
	ErrInvalidKey = errors.New("invalid metric key")
)

// Metric is a base mortality measure.
type Metric string

const (
	Deaths     Metric = "deaths"
	CMR        Metric = "cmr"
	ASMR       Metric = "asmr"
	LE         Metric = "le"
	LEAdj      Metric = "le_adj"
	ASD        Metric = "asd"
	Population Metric = "population"
)

// Metrics lists every metric. Compound names come before their prefixes so
// that prefix matching picks the longest name.
var Metrics = []Metric{LEAdj, Population, Deaths, ASMR, CMR, ASD, LE}

// StandardPopulations lists the populations an age-standardized metric can be
// standardized to.
var StandardPopulations = []string{"who", "esp", "usa", "country"}

// AgeStandardized reports whether m carries a standard population.
func (m Metric) AgeStandardized() bool {
	return m == ASMR || m == ASD
}

// Variant selects the observed series or one of its baseline companions.
type Variant int

const (
	Observed Variant = iota
	Baseline
	Excess
)

func (v Variant) String() string {
	switch v {
	case Baseline:
		return "baseline"
	case Excess:
		return "excess"
	default:
		return ""
	}
}

// Bound selects the center of a series or one end of its prediction interval.
type Bound int

const (
	Center Bound = iota
	Lower
	Upper
)

func (b Bound) String() string {
	switch b {
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	default:
		return ""
	}
}

// Key is a parsed series field key.
type Key struct {
	Metric             Metric
	StandardPopulation string
	Variant            Variant
	Bound              Bound
	ZScore             bool
}

// String renders the key in its field-name form.
func (k Key) String() string {
	parts := []string{string(k.Metric)}
	if k.StandardPopulation != "" {
		parts = append(parts, k.StandardPopulation)
	}
	if k.ZScore {
		return strings.Join(append(parts, "zscore"), "_")
	}
	if k.Variant != Observed {
		parts = append(parts, k.Variant.String())
	}
	if k.Bound != Center {
		parts = append(parts, k.Bound.String())
	}
	return strings.Join(parts, "_")
}

// Primary reports whether k names an observed center series.
func (k Key) Primary() bool {
	return k.Variant == Observed && k.Bound == Center && !k.ZScore
}

// WithBound returns a copy of k pointing at the given interval end.
func (k Key) WithBound(b Bound) Key {
	k.Bound = b
	k.ZScore = false
	return k
}

// WithVariant returns a copy of k with the given variant, keeping its bound.
func (k Key) WithVariant(v Variant) Key {
	k.Variant = v
	k.ZScore = false
	return k
}

// Parse splits a field key into its grammar parts.
func Parse(key string) (Key, error) {
	var k Key
	rest := ""
	found := false
	for _, m := range Metrics {
		name := string(m)
		if key == name {
			k.Metric = m
			found = true
			break
		}
		if strings.HasPrefix(key, name+"_") {
			k.Metric = m
			rest = strings.TrimPrefix(key, name+"_")
			found = true
			break
		}
	}
	if !found {
		return Key{}, fmt.Errorf("%w: %q", ErrUnknownMetric, key)
	}
	if rest == "" {
		return k, nil
	}

	segs := strings.Split(rest, "_")
	i := 0
	if k.Metric.AgeStandardized() && isStandardPopulation(segs[0]) {
		k.StandardPopulation = segs[0]
		i++
	}
	if i < len(segs) && segs[i] == "zscore" {
		if i != len(segs)-1 {
			return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
		k.ZScore = true
		return k, nil
	}
	if i < len(segs) {
		switch segs[i] {
		case "baseline":
			k.Variant = Baseline
			i++
		case "excess":
			k.Variant = Excess
			i++
		}
	}
	if i < len(segs) {
		switch segs[i] {
		case "lower":
			k.Bound = Lower
			i++
		case "upper":
			k.Bound = Upper
			i++
		}
	}
	if i != len(segs) {
		return Key{}, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// package-level literals.
func MustParse(key string) Key {
	k, err := Parse(key)
	if err != nil {
		panic(err)
	}
	return k
}

func isStandardPopulation(s string) bool {
	for _, p := range StandardPopulations {
		if p == s {
			return true
		}
	}
	return false
}
