// Package datetime provides period label formats per chart type and the
// default baseline period calculation.
package datetime

import (
	"errors"
	"fmt"
	"regexp"
)

var (
	// ErrUnknownChartType is returned for chart types without a period format.
	ErrUnknownChartType = errors.New("unknown chart type")
	// ErrUnknownBaselineMethod is returned for unsupported baseline methods.
	ErrUnknownBaselineMethod = errors.New("unknown baseline method")
	// ErrNoBaselinePeriod is returned when the baseline range does not
	// overlap the available labels.
	ErrNoBaselinePeriod = errors.New("no baseline period within available labels")
)

// Granularity is the reporting period length of a chart type.
type Granularity int

const (
	Yearly Granularity = iota
	Season
	Quarterly
	Monthly
	Weekly
)

// ChartTypes lists the supported chart types.
var ChartTypes = []string{
	"yearly", "midyear", "fluseason", "quarterly", "monthly",
	"weekly", "weekly_13w_sma", "weekly_26w_sma", "weekly_52w_sma", "weekly_104w_sma",
}

var chartGranularity = map[string]Granularity{
	"yearly":          Yearly,
	"midyear":         Season,
	"fluseason":       Season,
	"quarterly":       Quarterly,
	"monthly":         Monthly,
	"weekly":          Weekly,
	"weekly_13w_sma":  Weekly,
	"weekly_26w_sma":  Weekly,
	"weekly_52w_sma":  Weekly,
	"weekly_104w_sma": Weekly,
}

var patterns = map[Granularity]*regexp.Regexp{
	Yearly:    regexp.MustCompile(`^\d{4}$`),
	Season:    regexp.MustCompile(`^\d{4}/\d{2}$`),
	Quarterly: regexp.MustCompile(`^\d{4} Q[1-4]$`),
	Monthly:   regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`),
	Weekly:    regexp.MustCompile(`^\d{4}-W(0[1-9]|[1-4]\d|5[0-3])$`),
}

// GranularityOf returns the period granularity of chartType.
func GranularityOf(chartType string) (Granularity, error) {
	g, ok := chartGranularity[chartType]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownChartType, chartType)
	}
	return g, nil
}

// DateFormatPattern returns the regular expression period labels of
// chartType must match.
func DateFormatPattern(chartType string) (*regexp.Regexp, error) {
	g, err := GranularityOf(chartType)
	if err != nil {
		return nil, err
	}
	return patterns[g], nil
}

// FormatPeriod renders a period label. sub is the month, quarter or ISO week
// and is ignored for yearly periods. Seasons are named by the year they end in.
func FormatPeriod(g Granularity, year, sub int) string {
	switch g {
	case Season:
		return fmt.Sprintf("%d/%02d", year-1, year%100)
	case Quarterly:
		return fmt.Sprintf("%d Q%d", year, sub)
	case Monthly:
		return fmt.Sprintf("%d-%02d", year, sub)
	case Weekly:
		return fmt.Sprintf("%d-W%02d", year, sub)
	default:
		return fmt.Sprintf("%d", year)
	}
}
