package ranking

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/metrickey"
	"go.uber.org/zap"
)

var labels = []string{"2020", "2021", "2022"}

func excessSeries() transform.Series {
	return transform.Series{
		"deaths_excess":       {5, -2, 10},
		"deaths_excess_lower": {4, -3, 8},
		"deaths_excess_upper": {6, -1, 12},
		"deaths_baseline":     {100, 100, 100},
	}
}

func relativeInput(series transform.Series) RowInput {
	return RowInput{
		ISO3:        "SWE",
		Country:     "Sweden",
		Series:      series,
		MetricKey:   "deaths",
		Labels:      labels,
		EndIndex:    len(labels),
		DisplayMode: DisplayRelative,
	}
}

func expectCells(t *testing.T, row TableRow, expected map[string]float64) {
	t.Helper()
	for column, want := range expected {
		got := row.Value(column)
		if math.Abs(got-want) > 1e-9 {
			t.Errorf("column %s = %v, expected %v", column, got, want)
		}
	}
}

func TestProcessRowRelative(t *testing.T) {
	rp := NewRowProcessor(zap.NewNop())

	tests := []struct {
		name       string
		percentage bool
		cumulative bool
		expected   map[string]float64
	}{
		{
			name: "Raw excess",
			expected: map[string]float64{
				"2020": 5, "2020_l": 4, "2020_u": 6,
				"2021": -2,
				"TOTAL": 13, "TOTAL_l": 9, "TOTAL_u": 17,
			},
		},
		{
			name:       "Cumulative excess",
			cumulative: true,
			expected: map[string]float64{
				"2020": 5, "2021": 3, "2022": 13, "2022_l": 9, "2022_u": 17,
				"TOTAL": 13,
			},
		},
		{
			name:       "Relative excess",
			percentage: true,
			expected: map[string]float64{
				"2020": 0.05, "2020_l": 0.04, "2020_u": 0.06,
				"2022": 0.1,
				"TOTAL": 0.043, "TOTAL_l": 0.03, "TOTAL_u": 0.057,
			},
		},
		{
			name:       "Cumulative relative excess",
			percentage: true,
			cumulative: true,
			expected: map[string]float64{
				"2020": 0.05, "2021": 0.015, "2022": 0.043,
				"TOTAL": 0.043,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := relativeInput(excessSeries())
			in.ShowPercentage = tt.percentage
			in.Cumulative = tt.cumulative

			row, include, err := rp.ProcessRow(in)
			if err != nil {
				t.Fatalf("ProcessRow error = %v", err)
			}
			if !include {
				t.Fatal("expected row to be included")
			}
			expectCells(t, row, tt.expected)
		})
	}
}

func TestProcessRowNearZeroBaseline(t *testing.T) {
	rp := NewRowProcessor(nil)
	series := excessSeries()
	series["deaths_baseline"] = []float64{0.001, 100, 100}

	in := relativeInput(series)
	in.ShowPercentage = true
	row, _, err := rp.ProcessRow(in)
	if err != nil {
		t.Fatalf("ProcessRow error = %v", err)
	}
	if row.Value("2020") != constants.MissingValue {
		t.Errorf("near-zero baseline should give a missing cell, got %v", row.Value("2020"))
	}
}

func TestProcessRowAbsolute(t *testing.T) {
	rp := NewRowProcessor(nil)
	in := RowInput{
		ISO3:        "DEU",
		Country:     "Germany",
		Series:      transform.Series{"cmr": {10.5, 0, 12.5}},
		MetricKey:   "cmr",
		Labels:      labels,
		DisplayMode: DisplayAbsolute,
		Cumulative:  true,
	}

	row, include, err := rp.ProcessRow(in)
	if err != nil {
		t.Fatalf("ProcessRow error = %v", err)
	}
	if !include {
		t.Fatal("expected row to be included")
	}
	expectCells(t, row, map[string]float64{
		"2020": 10.5, "2020_l": 10.5, "2020_u": 10.5,
		"2021": constants.MissingValue,
		"2022": 12.5,
		"TOTAL": 11.5, "TOTAL_l": 11.5, "TOTAL_u": 11.5,
	})
	if row.ISO2C != "DE" {
		t.Errorf("ISO2C = %q, expected DE", row.ISO2C)
	}
	if row.Href != "/explorer?c=DEU" {
		t.Errorf("Href = %q", row.Href)
	}
}

func TestProcessRowAbsoluteWithInterval(t *testing.T) {
	rp := NewRowProcessor(nil)
	in := RowInput{
		ISO3: "SWE",
		Series: transform.Series{
			"asmr_who":       {100, 110},
			"asmr_who_lower": {95, 104},
			"asmr_who_upper": {105, 116},
		},
		MetricKey:   "asmr_who",
		Labels:      []string{"2020", "2021"},
		DisplayMode: DisplayAbsolute,
		TotalKey:    "AVG",
	}

	row, _, err := rp.ProcessRow(in)
	if err != nil {
		t.Fatalf("ProcessRow error = %v", err)
	}
	expectCells(t, row, map[string]float64{
		"2021_l": 104, "2021_u": 116,
		"AVG": 105, "AVG_l": 99.5, "AVG_u": 110.5,
	})
	if _, ok := row.Values["TOTAL"]; ok {
		t.Error("custom total key should replace TOTAL")
	}
}

func TestProcessRowInclusion(t *testing.T) {
	rp := NewRowProcessor(nil)
	nan := math.NaN()

	tests := []struct {
		name           string
		excess         []float64
		hideIncomplete bool
		include        bool
	}{
		{"Only oldest period, hide incomplete", []float64{5, nan, nan}, true, false},
		{"Only oldest period, show incomplete", []float64{5, nan, nan}, false, true},
		{"Missing history tolerated", []float64{nan, nan, 3}, true, true},
		{"No data at all", []float64{nan, nan, nan}, false, false},
		{"Complete", []float64{1, 2, 3}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := relativeInput(transform.Series{
				"deaths_excess":   tt.excess,
				"deaths_baseline": {100, 100, 100},
			})
			in.HideIncomplete = tt.hideIncomplete

			_, include, err := rp.ProcessRow(in)
			if err != nil {
				t.Fatalf("ProcessRow error = %v", err)
			}
			if include != tt.include {
				t.Errorf("include = %v, expected %v", include, tt.include)
			}
		})
	}
}

func TestProcessRowWindow(t *testing.T) {
	rp := NewRowProcessor(nil)
	in := relativeInput(excessSeries())
	in.StartIndex = 1
	in.EndIndex = 3
	in.Cumulative = true

	row, _, err := rp.ProcessRow(in)
	if err != nil {
		t.Fatalf("ProcessRow error = %v", err)
	}
	if _, ok := row.Values["2020"]; ok {
		t.Error("period outside the window should not be a column")
	}
	expectCells(t, row, map[string]float64{"2021": -2, "2022": 8, "TOTAL": 8})
}

func TestProcessRowUnknownMetric(t *testing.T) {
	rp := NewRowProcessor(nil)
	in := relativeInput(excessSeries())
	in.MetricKey = "births"
	if _, _, err := rp.ProcessRow(in); !errors.Is(err, metrickey.ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestTableRowMarshalJSON(t *testing.T) {
	row := TableRow{
		Country: "Sweden",
		ISO2C:   "SE",
		Href:    "/explorer?c=SWE",
		Values:  map[string]float64{"2020": 0.05, "TOTAL": constants.MissingValue},
	}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if decoded["country"] != "Sweden" || decoded["iso2c"] != "SE" {
		t.Errorf("unexpected fixed fields: %v", decoded)
	}
	if decoded["2020"] != 0.05 {
		t.Errorf("2020 = %v", decoded["2020"])
	}
	if decoded["TOTAL"] != constants.MissingValue {
		t.Errorf("TOTAL = %v", decoded["TOTAL"])
	}
}

func TestISO2(t *testing.T) {
	tests := map[string]string{
		"DEU":     "DE",
		"SWE":     "SE",
		"USA":     "US",
		"GBRTENW": "GB-ENG",
		"GBR_SCO": "GB-SCT",
		"GBR_NIR": "GB-NIR",
		"DEUTNP":  "DE",
		"NZL_NP":  "NZ",
		"USA-CA":  "US-CA",
	}
	for iso3, want := range tests {
		if got := ISO2(iso3); got != want {
			t.Errorf("ISO2(%q) = %q, expected %q", iso3, got, want)
		}
	}
}

func TestBuildTableAndSort(t *testing.T) {
	rp := NewRowProcessor(zap.NewNop())
	nan := math.NaN()
	mk := func(iso3 string, excess []float64) RowInput {
		in := relativeInput(transform.Series{
			"deaths_excess":   excess,
			"deaths_baseline": {100, 100, 100},
		})
		in.ISO3 = iso3
		in.Country = iso3
		in.HideIncomplete = true
		return in
	}

	inputs := []RowInput{
		mk("AAA", []float64{1, 1, 1}),
		mk("BBB", []float64{5, nan, nan}),
		mk("CCC", []float64{3, 3, 3}),
		mk("DDD", []float64{nan, nan, 2}),
	}

	rows, err := rp.BuildTable(context.Background(), inputs, 2)
	if err != nil {
		t.Fatalf("BuildTable error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	order := []string{"AAA", "CCC", "DDD"}
	for i, want := range order {
		if rows[i].Country != want {
			t.Errorf("row %d = %s, expected %s", i, rows[i].Country, want)
		}
	}

	SortRows(rows, "2020", true)
	sorted := []string{"CCC", "AAA", "DDD"}
	for i, want := range sorted {
		if rows[i].Country != want {
			t.Errorf("sorted row %d = %s, expected %s", i, rows[i].Country, want)
		}
	}

	SortRows(rows, "2020", false)
	if rows[len(rows)-1].Country != "DDD" {
		t.Errorf("missing cells should sort last ascending, got %s", rows[len(rows)-1].Country)
	}
}

func TestBuildTableError(t *testing.T) {
	rp := NewRowProcessor(nil)
	bad := relativeInput(excessSeries())
	bad.MetricKey = "births"
	if _, err := rp.BuildTable(context.Background(), []RowInput{bad}, 0); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestColumns(t *testing.T) {
	tests := []struct {
		name       string
		totalKey   string
		showTotals bool
		totalsOnly bool
		intervals  bool
		expected   []string
	}{
		{"Periods only", "", false, false, false, []string{"2020", "2021"}},
		{"With totals", "", true, false, false, []string{"2020", "2021", "TOTAL"}},
		{"Totals only", "AVG", false, true, false, []string{"AVG"}},
		{"Intervals", "", true, false, true, []string{
			"2020", "2020_l", "2020_u", "2021", "2021_l", "2021_u", "TOTAL", "TOTAL_l", "TOTAL_u",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Columns([]string{"2020", "2021"}, tt.totalKey, tt.showTotals, tt.totalsOnly, tt.intervals)
			if len(got) != len(tt.expected) {
				t.Fatalf("Columns = %v, expected %v", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("column %d = %q, expected %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestRowInputPeriods(t *testing.T) {
	in := RowInput{Labels: []string{"2019", "2020", "2021", "2022"}, StartIndex: 1}
	if got := in.Periods(); len(got) != 3 || got[0] != "2020" || got[2] != "2022" {
		t.Errorf("Periods = %v", got)
	}
	in.EndIndex = 2
	if got := in.Periods(); len(got) != 1 || got[0] != "2020" {
		t.Errorf("Periods = %v", got)
	}
}
