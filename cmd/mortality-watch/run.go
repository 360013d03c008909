package main

import (
	"context"
	"fmt"
	"io"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/config"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/ranking"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/datetime"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/output"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/validation"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const (
	modeTransform        = "transform"
	modeErrorBar         = "errorbar"
	modeRanking          = "ranking"
	modeValidateExplorer = "validate-explorer"
	modeValidateRanking  = "validate-ranking"
	modeBaselineDates    = "baseline-dates"
	modeServe            = "serve"
)

type runOptions struct {
	Mode         string
	Key          string
	ChartType    string
	Method       string
	OutputFormat string
	Defaults     config.DefaultsConfig
}

// transformInput is the input document of the transform and errorbar modes.
type transformInput struct {
	Config transform.Config `yaml:"config"`
	Series transform.Series `yaml:"series"`
	Labels []string         `yaml:"labels"`
	Key    string           `yaml:"key"`
}

// rankingInput is the input document of the ranking mode.
type rankingInput struct {
	Rows           []ranking.RowInput `yaml:"rows"`
	SortBy         string             `yaml:"sortBy"`
	Descending     bool               `yaml:"descending"`
	ShowTotals     bool               `yaml:"showTotals"`
	ShowTotalsOnly bool               `yaml:"showTotalsOnly"`
	ShowIntervals  bool               `yaml:"showIntervals"`
}

// baselineInput optionally supplies the labels the baseline range is
// clamped to.
type baselineInput struct {
	Labels []string `yaml:"labels"`
}

// violationsError reports an invalid state after its violations were printed.
type violationsError struct {
	count int
	err   error
}

func (e *violationsError) Error() string {
	return fmt.Sprintf("%d violations: %v", e.count, e.err)
}

func (e *violationsError) Unwrap() error {
	return e.err
}

// run executes one mode against the input document and writes the result to out.
func run(ctx context.Context, logger *zap.Logger, opts runOptions, in io.Reader, out io.Writer) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	precision := opts.Defaults.DecimalPrecision
	if precision < 0 || precision > constants.DisplayDecimals {
		precision = constants.DisplayDecimals
	}

	switch opts.Mode {
	case modeTransform, modeErrorBar:
		var doc transformInput
		if err := decodeInput(in, &doc); err != nil {
			return err
		}
		key := doc.Key
		if opts.Key != "" {
			key = opts.Key
		}
		return runTransform(logger, opts, doc, key, precision, out)

	case modeRanking:
		var doc rankingInput
		if err := decodeInput(in, &doc); err != nil {
			return err
		}
		return runRanking(ctx, logger, opts, doc, precision, out)

	case modeValidateExplorer:
		var state validation.ExplorerState
		if err := decodeInput(in, &state); err != nil {
			return err
		}
		return reportViolations(opts, validation.NewStateValidator().ValidateExplorerState(state), out)

	case modeValidateRanking:
		var state validation.RankingState
		if err := decodeInput(in, &state); err != nil {
			return err
		}
		return reportViolations(opts, validation.NewStateValidator().ValidateRankingState(state), out)

	case modeBaselineDates:
		var doc baselineInput
		if in != nil {
			if err := decodeInput(in, &doc); err != nil {
				return err
			}
		}
		return runBaselineDates(logger, opts, doc.Labels, out)

	default:
		return fmt.Errorf("unknown mode %q", opts.Mode)
	}
}

func decodeInput(in io.Reader, v interface{}) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	return nil
}

func runTransform(logger *zap.Logger, opts runOptions, doc transformInput, key string, precision int, out io.Writer) error {
	pipeline := transform.NewPipeline(logger)

	if opts.Mode == modeErrorBar {
		points, err := pipeline.TransformErrorBarData(doc.Config, doc.Series, key)
		if err != nil {
			return err
		}
		if opts.OutputFormat == constants.OutputFormatCSV {
			return output.CsvPoints(out, doc.Labels, points)
		}
		output.PrettyPoints(out, key, doc.Labels, points, precision)
		return nil
	}

	values, err := pipeline.TransformData(doc.Config, doc.Series, key)
	if err != nil {
		return err
	}
	labels := doc.Labels
	if doc.Config.ShowTotal && len(values) == 1 {
		labels = []string{constants.TotalColumnKey}
	}
	if opts.OutputFormat == constants.OutputFormatCSV {
		return output.CsvSeries(out, labels, values)
	}
	output.PrettySeries(out, key, labels, values, precision)
	return nil
}

func runRanking(ctx context.Context, logger *zap.Logger, opts runOptions, doc rankingInput, precision int, out io.Writer) error {
	rows, err := ranking.NewRowProcessor(logger).BuildTable(ctx, doc.Rows, opts.Defaults.RankingWorkers)
	if err != nil {
		return err
	}
	if doc.SortBy != "" {
		ranking.SortRows(rows, doc.SortBy, doc.Descending)
	}

	var periods []string
	totalKey := ""
	if len(doc.Rows) > 0 {
		periods = doc.Rows[0].Periods()
		totalKey = doc.Rows[0].TotalKey
	}
	columns := ranking.Columns(periods, totalKey, doc.ShowTotals, doc.ShowTotalsOnly, doc.ShowIntervals)

	if opts.OutputFormat == constants.OutputFormatCSV {
		return output.CsvTable(out, rows, columns)
	}
	output.PrettyTable(out, rows, columns, precision)
	return nil
}

func runBaselineDates(logger *zap.Logger, opts runOptions, labels []string, out io.Writer) error {
	chartType := opts.ChartType
	if chartType == "" {
		chartType = opts.Defaults.ChartType
	}
	method := opts.Method
	if method == "" {
		method = opts.Defaults.BaselineMethod
	}

	from, to, err := datetime.DefaultBaselineRange(chartType, method, labels)
	if err != nil {
		return err
	}
	logger.Debug("baseline range",
		zap.String("op", "main.runBaselineDates"),
		zap.String("chartType", chartType),
		zap.String("method", method),
	)

	if opts.OutputFormat == constants.OutputFormatCSV {
		_, err = fmt.Fprintf(out, "from,to\n%s,%s\n", from, to)
		return err
	}
	_, err = fmt.Fprintf(out, "Baseline (%s, %s): %s to %s\n", chartType, method, from, to)
	return err
}

func reportViolations(opts runOptions, violations []validation.Violation, out io.Writer) error {
	if opts.OutputFormat == constants.OutputFormatCSV {
		if _, err := fmt.Fprintln(out, "field,rule,message"); err != nil {
			return err
		}
		for _, v := range violations {
			if _, err := fmt.Fprintf(out, "%s,%s,%q\n", v.Field, v.Rule, v.Message); err != nil {
				return err
			}
		}
	} else {
		if len(violations) == 0 {
			if _, err := fmt.Fprintln(out, "State is valid"); err != nil {
				return err
			}
		}
		for _, v := range violations {
			if _, err := fmt.Fprintf(out, "%s: %s [%s]\n", v.Field, v.Message, v.Rule); err != nil {
				return err
			}
		}
	}

	if err := validation.ErrorOrNil(violations); err != nil {
		return &violationsError{count: len(violations), err: err}
	}
	return nil
}
