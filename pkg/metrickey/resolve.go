package metrickey

// GetBaselineKey returns the baseline companion of key. The interval bound of
// key is kept and an excess variant is replaced. The standard population is
// only kept for age-standardized displays.
//
//	GetBaselineKey(false, "deaths_excess")         == "deaths_baseline"
//	GetBaselineKey(true, "asmr_who_excess_upper")  == "asmr_who_baseline_upper"
func GetBaselineKey(isASMR bool, key string) (string, error) {
	k, err := Parse(key)
	if err != nil {
		return "", err
	}
	k = k.WithVariant(Baseline)
	if !isASMR {
		k.StandardPopulation = ""
	}
	return k.String(), nil
}

// GetZScoreKey returns the pre-computed z-score series key for key.
// le_adj keeps its full name: the seasonal adjustment is part of the metric.
func GetZScoreKey(isASMR bool, key string) (string, error) {
	k, err := Parse(key)
	if err != nil {
		return "", err
	}
	z := Key{Metric: k.Metric, ZScore: true}
	if isASMR {
		z.StandardPopulation = k.StandardPopulation
	}
	return z.String(), nil
}

// BoundKeys returns the lower and upper interval keys of key.
func BoundKeys(key string) (lower, upper string, err error) {
	k, err := Parse(key)
	if err != nil {
		return "", "", err
	}
	return k.WithBound(Lower).String(), k.WithBound(Upper).String(), nil
}

// IsPrimary reports whether key names an observed center series. Unknown or
// malformed keys are not primary.
func IsPrimary(key string) bool {
	k, err := Parse(key)
	if err != nil {
		return false
	}
	return k.Primary()
}
