package datetime

import (
	"fmt"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
)

// BaselineMethods maps each baseline method to its default length in years.
var BaselineMethods = map[string]int{
	"naive":   1,
	"mean":    3,
	"median":  3,
	"lin_reg": 5,
	"exp":     5,
}

// DefaultBaselineRange returns the default baseline period for a chart type
// and baseline method. The period ends with the last full period before 2020
// and spans the method's default number of years. When labels are given the
// range is clamped to them.
func DefaultBaselineRange(chartType, method string, labels []string) (from, to string, err error) {
	g, err := GranularityOf(chartType)
	if err != nil {
		return "", "", err
	}
	years, ok := BaselineMethods[method]
	if !ok {
		return "", "", fmt.Errorf("%w: %q", ErrUnknownBaselineMethod, method)
	}

	endYear := constants.DefaultBaselineEndYear
	startYear := endYear - years + 1
	switch g {
	case Quarterly:
		from, to = FormatPeriod(g, startYear, 1), FormatPeriod(g, endYear, 4)
	case Monthly:
		from, to = FormatPeriod(g, startYear, 1), FormatPeriod(g, endYear, 12)
	case Weekly:
		from, to = FormatPeriod(g, startYear, 1), FormatPeriod(g, endYear, 52)
	default:
		from, to = FormatPeriod(g, startYear, 0), FormatPeriod(g, endYear, 0)
	}

	if len(labels) == 0 {
		return from, to, nil
	}
	return clamp(from, to, labels)
}

// clamp narrows [from, to] to the labels. Labels of one granularity sort
// chronologically as strings.
func clamp(from, to string, labels []string) (string, string, error) {
	first, last := -1, -1
	for i, label := range labels {
		if label < from || label > to {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	if first < 0 {
		return "", "", fmt.Errorf("%w: %s to %s", ErrNoBaselinePeriod, from, to)
	}
	return labels[first], labels[last], nil
}
