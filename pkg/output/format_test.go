package output

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/ranking"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
)

func ptr(v float64) *float64 { return &v }

func TestPrettySeries(t *testing.T) {
	var buf bytes.Buffer
	PrettySeries(&buf, "deaths_excess", []string{"2020", "2021", "2022"}, []float64{12345.678, math.NaN(), -3}, 2)
	output := buf.String()

	for _, want := range []string{
		"--- Results for deaths_excess ---",
		"Period | Value",
		"2020   | 12,345.68",
		"2021   | -",
		"2022   | -3.00",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("PrettySeries missing %q in:\n%s", want, output)
		}
	}
}

func TestPrettyPoints(t *testing.T) {
	points := []transform.ErrorDataPoint{
		{X: 0, Y: ptr(0.1), YMin: ptr(0.09), YMax: ptr(0.11)},
		{X: 1, Y: ptr(0.2)},
	}

	var buf bytes.Buffer
	PrettyPoints(&buf, "deaths_excess", []string{"2020/21", "2021/22"}, points, 3)
	output := buf.String()

	if !strings.Contains(output, "2020/21 | 0.100 | 0.090 | 0.110") {
		t.Errorf("PrettyPoints missing first row in:\n%s", output)
	}
	if !strings.Contains(output, "2021/22 | 0.200 | - | -") {
		t.Errorf("PrettyPoints missing null bounds in:\n%s", output)
	}
}

func TestPrettyTable(t *testing.T) {
	rows := []ranking.TableRow{
		{Country: "Sweden", Values: map[string]float64{"2020": 0.05, "TOTAL": 0.043}},
		{Country: "Côte d'Ivoire", Values: map[string]float64{"2020": constants.MissingValue, "TOTAL": 1234.5}},
	}

	var buf bytes.Buffer
	PrettyTable(&buf, rows, []string{"2020", "TOTAL"}, 3)
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")

	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "Country       |  2020 |     TOTAL" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "Sweden        | 0.050 |     0.043" {
		t.Errorf("row = %q", lines[2])
	}
	if lines[3] != "Côte d'Ivoire |     - | 1,234.500" {
		t.Errorf("row = %q", lines[3])
	}
}

func TestCsvSeries(t *testing.T) {
	var buf bytes.Buffer
	if err := CsvSeries(&buf, []string{"2020", "2021"}, []float64{1.5, math.NaN()}); err != nil {
		t.Fatalf("CsvSeries error = %v", err)
	}
	expected := "date,value\n2020,1.5\n2021,\n"
	if buf.String() != expected {
		t.Errorf("CsvSeries = %q, expected %q", buf.String(), expected)
	}
}

func TestCsvPoints(t *testing.T) {
	points := []transform.ErrorDataPoint{{X: 0, Y: ptr(2), YMin: ptr(1), YMax: ptr(3)}, {X: 1}}

	var buf bytes.Buffer
	if err := CsvPoints(&buf, []string{"2020"}, points); err != nil {
		t.Fatalf("CsvPoints error = %v", err)
	}
	expected := "date,value,lower,upper\n2020,2,1,3\n1,,,\n"
	if buf.String() != expected {
		t.Errorf("CsvPoints = %q, expected %q", buf.String(), expected)
	}
}

func TestCsvTable(t *testing.T) {
	rows := []ranking.TableRow{
		{Country: "Sweden", ISO2C: "SE", Values: map[string]float64{"2020": 0.05}},
	}

	var buf bytes.Buffer
	if err := CsvTable(&buf, rows, []string{"2020", "TOTAL"}); err != nil {
		t.Fatalf("CsvTable error = %v", err)
	}
	expected := "country,iso2c,2020,TOTAL\nSweden,SE,0.05,\n"
	if buf.String() != expected {
		t.Errorf("CsvTable = %q, expected %q", buf.String(), expected)
	}
}
