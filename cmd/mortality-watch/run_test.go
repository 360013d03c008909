package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/config"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
	"go.uber.org/zap"
)

func testOptions(mode, format string) runOptions {
	return runOptions{
		Mode:         mode,
		OutputFormat: format,
		Defaults: config.DefaultsConfig{
			ChartType:        "yearly",
			BaselineMethod:   "mean",
			DecimalPrecision: 3,
			RankingWorkers:   2,
		},
	}
}

func TestRunTransform(t *testing.T) {
	input := `
config:
  cumulative: true
series:
  deaths_excess: [1, ~, 3]
labels: ["2020", "2021", "2022"]
key: deaths_excess
`
	var out bytes.Buffer
	if err := run(context.Background(), zap.NewNop(), testOptions(modeTransform, constants.OutputFormatCSV), strings.NewReader(input), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	expected := "date,value\n2020,1\n2021,1\n2022,4\n"
	if out.String() != expected {
		t.Errorf("output = %q, expected %q", out.String(), expected)
	}
}

func TestRunTransformTotal(t *testing.T) {
	input := `{"config": {"showTotal": true}, "series": {"deaths": [1, 2, 3]}, "labels": ["2020", "2021", "2022"]}`

	opts := testOptions(modeTransform, constants.OutputFormatPretty)
	opts.Key = "deaths"
	var out bytes.Buffer
	if err := run(context.Background(), nil, opts, strings.NewReader(input), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "TOTAL  | 6.000") {
		t.Errorf("output missing total row:\n%s", out.String())
	}
}

func TestRunErrorBar(t *testing.T) {
	input := `
config:
  showPercentage: true
series:
  deaths: [10]
  deaths_lower: [9]
  deaths_upper: [11]
  deaths_baseline: [100]
labels: ["2020"]
key: deaths
`
	var out bytes.Buffer
	if err := run(context.Background(), zap.NewNop(), testOptions(modeErrorBar, constants.OutputFormatPretty), strings.NewReader(input), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	if !strings.Contains(out.String(), "2020   | 0.100 | 0.090 | 0.110") {
		t.Errorf("unexpected output:\n%s", out.String())
	}
}

func TestRunTransformUnknownMetric(t *testing.T) {
	input := "series: {}\nkey: births\n"
	err := run(context.Background(), zap.NewNop(), testOptions(modeTransform, constants.OutputFormatCSV), strings.NewReader(input), &bytes.Buffer{})
	if !errors.Is(err, metrickey.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestRunRanking(t *testing.T) {
	input := `
rows:
  - iso3c: SWE
    country: Sweden
    metricKey: deaths
    labels: ["2020", "2021"]
    displayMode: relative
    series:
      deaths_excess: [5, 10]
      deaths_baseline: [100, 100]
  - iso3c: DEU
    country: Germany
    metricKey: deaths
    labels: ["2020", "2021"]
    displayMode: relative
    series:
      deaths_excess: [8, 20]
      deaths_baseline: [100, 100]
sortBy: TOTAL
descending: true
showTotals: true
`
	var out bytes.Buffer
	if err := run(context.Background(), zap.NewNop(), testOptions(modeRanking, constants.OutputFormatCSV), strings.NewReader(input), &out); err != nil {
		t.Fatalf("run() error = %v", err)
	}
	expected := "country,iso2c,2020,2021,TOTAL\nGermany,DE,8,20,28\nSweden,SE,5,10,15\n"
	if out.String() != expected {
		t.Errorf("output = %q, expected %q", out.String(), expected)
	}
}

func TestRunValidate(t *testing.T) {
	tests := []struct {
		name       string
		mode       string
		input      string
		violations int
		contains   string
	}{
		{
			name:     "Valid explorer state",
			mode:     modeValidateExplorer,
			input:    "type: deaths\nchartType: yearly\n",
			contains: "State is valid",
		},
		{
			name:       "Population with baseline",
			mode:       modeValidateExplorer,
			input:      "type: population\nchartType: yearly\nshowBaseline: true\n",
			violations: 1,
			contains:   "showBaseline: Population metric does not support baseline calculations",
		},
		{
			name:       "Ranking totals only without totals",
			mode:       modeValidateRanking,
			input:      "periodOfTime: yearly\ndisplayMode: relative\nshowTotalsOnly: true\n",
			violations: 1,
			contains:   "[totals_only_requires_totals]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), zap.NewNop(), testOptions(tt.mode, constants.OutputFormatPretty), strings.NewReader(tt.input), &out)

			if tt.violations == 0 {
				if err != nil {
					t.Fatalf("run() error = %v", err)
				}
			} else {
				var violationsErr *violationsError
				if !errors.As(err, &violationsErr) {
					t.Fatalf("expected violations error, got %v", err)
				}
				if violationsErr.count != tt.violations {
					t.Errorf("violations = %d, expected %d", violationsErr.count, tt.violations)
				}
			}
			if !strings.Contains(out.String(), tt.contains) {
				t.Errorf("output missing %q:\n%s", tt.contains, out.String())
			}
		})
	}
}

func TestRunBaselineDates(t *testing.T) {
	tests := []struct {
		name     string
		opts     func(o *runOptions)
		input    string
		expected string
		wantErr  bool
	}{
		{
			name:     "Configured defaults",
			opts:     func(o *runOptions) {},
			expected: "from,to\n2017,2019\n",
		},
		{
			name: "Flag overrides",
			opts: func(o *runOptions) {
				o.ChartType = "monthly"
				o.Method = "naive"
			},
			expected: "from,to\n2019-01,2019-12\n",
		},
		{
			name:     "Clamped to input labels",
			opts:     func(o *runOptions) {},
			input:    "labels: ['2018', '2019', '2020']\n",
			expected: "from,to\n2018,2019\n",
		},
		{
			name:    "Unknown method",
			opts:    func(o *runOptions) { o.Method = "spline" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := testOptions(modeBaselineDates, constants.OutputFormatCSV)
			tt.opts(&opts)

			var in *strings.Reader
			if tt.input != "" {
				in = strings.NewReader(tt.input)
			}
			var out bytes.Buffer
			var err error
			if in == nil {
				err = run(context.Background(), zap.NewNop(), opts, nil, &out)
			} else {
				err = run(context.Background(), zap.NewNop(), opts, in, &out)
			}

			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("run() error = %v", err)
			}
			if out.String() != tt.expected {
				t.Errorf("output = %q, expected %q", out.String(), tt.expected)
			}
		})
	}
}

func TestRunUnknownMode(t *testing.T) {
	if err := run(context.Background(), nil, testOptions("plot", constants.OutputFormatCSV), strings.NewReader(""), &bytes.Buffer{}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestInitializeLogger(t *testing.T) {
	tests := []struct {
		name     string
		config   config.LoggingConfig
		override string
		wantErr  bool
	}{
		{"Defaults", config.LoggingConfig{}, "", false},
		{"Console debug", config.LoggingConfig{Level: "debug", Format: "console"}, "", false},
		{"Override", config.LoggingConfig{Level: "verbose"}, "warn", false},
		{"Invalid level", config.LoggingConfig{Level: "verbose"}, "", true},
		{"Invalid format", config.LoggingConfig{Format: "xml"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := initializeLogger(tt.config, tt.override)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("initializeLogger() error = %v", err)
			}
			_ = logger.Sync()
		})
	}

	t.Run("Output file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "logs", "mw.log")
		logger, err := initializeLogger(config.LoggingConfig{OutputFile: path}, "")
		if err != nil {
			t.Fatalf("initializeLogger() error = %v", err)
		}
		logger.Info("hello")
		_ = logger.Sync()
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read log file: %v", err)
		}
		if !strings.Contains(string(data), "hello") {
			t.Errorf("log file missing message: %s", data)
		}
	})
}
