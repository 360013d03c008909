// Package output provides utilities for formatting and displaying transformed
// series and ranking tables.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/ranking"
	"github.com/MortalityWatch/mortality.watch-sub005/internal/transform"
	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"github.com/mattn/go-runewidth"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// missingCell is printed for absent values in pretty output.
const missingCell = "-"

// PrettySeries writes a human-readable two-column table of one series.
func PrettySeries(w io.Writer, key string, labels []string, values []float64, precision int) {
	p := message.NewPrinter(language.English)
	labelWidth := columnWidth("Period", labels)

	fmt.Fprintf(w, "--- Results for %s ---\n", key)
	fmt.Fprintf(w, "%s | Value\n", runewidth.FillRight("Period", labelWidth))
	fmt.Fprintf(w, "%s | _____\n", strings.Repeat("_", labelWidth))
	for i, v := range values {
		fmt.Fprintf(w, "%s | %s\n", runewidth.FillRight(labelAt(labels, i), labelWidth), formatNumber(p, v, precision))
	}
}

// PrettyPoints writes a human-readable table of error bar points.
func PrettyPoints(w io.Writer, key string, labels []string, points []transform.ErrorDataPoint, precision int) {
	p := message.NewPrinter(language.English)
	labelWidth := columnWidth("Period", labels)

	fmt.Fprintf(w, "--- Results for %s ---\n", key)
	fmt.Fprintf(w, "%s | Value | Lower | Upper\n", runewidth.FillRight("Period", labelWidth))
	fmt.Fprintf(w, "%s | _____ | _____ | _____\n", strings.Repeat("_", labelWidth))
	for _, pt := range points {
		fmt.Fprintf(w, "%s | %s | %s | %s\n",
			runewidth.FillRight(labelAt(labels, pt.X), labelWidth),
			formatPointer(p, pt.Y, precision),
			formatPointer(p, pt.YMin, precision),
			formatPointer(p, pt.YMax, precision),
		)
	}
}

// PrettyTable writes the ranking table with aligned columns. Country names
// may contain wide characters, so widths are measured in terminal cells.
func PrettyTable(w io.Writer, rows []ranking.TableRow, columns []string, precision int) {
	p := message.NewPrinter(language.English)

	countries := make([]string, len(rows))
	for i, row := range rows {
		countries[i] = row.Country
	}
	countryWidth := columnWidth("Country", countries)

	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	for j, col := range columns {
		widths[j] = runewidth.StringWidth(col)
	}
	for i, row := range rows {
		cells[i] = make([]string, len(columns))
		for j, col := range columns {
			cells[i][j] = formatCell(p, row.Value(col), precision)
			if cw := runewidth.StringWidth(cells[i][j]); cw > widths[j] {
				widths[j] = cw
			}
		}
	}

	header := []string{runewidth.FillRight("Country", countryWidth)}
	rule := []string{strings.Repeat("_", countryWidth)}
	for j, col := range columns {
		header = append(header, runewidth.FillLeft(col, widths[j]))
		rule = append(rule, strings.Repeat("_", widths[j]))
	}
	fmt.Fprintln(w, strings.Join(header, " | "))
	fmt.Fprintln(w, strings.Join(rule, " | "))

	for i, row := range rows {
		line := []string{runewidth.FillRight(row.Country, countryWidth)}
		for j := range columns {
			line = append(line, runewidth.FillLeft(cells[i][j], widths[j]))
		}
		fmt.Fprintln(w, strings.Join(line, " | "))
	}
}

// CsvSeries writes one series in comma-separated value format. Missing
// values are empty fields.
func CsvSeries(w io.Writer, labels []string, values []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value"}); err != nil {
		return err
	}
	for i, v := range values {
		if err := cw.Write([]string{labelAt(labels, i), csvNumber(v)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvPoints writes error bar points in comma-separated value format.
func CsvPoints(w io.Writer, labels []string, points []transform.ErrorDataPoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "value", "lower", "upper"}); err != nil {
		return err
	}
	for _, pt := range points {
		record := []string{labelAt(labels, pt.X), csvPointer(pt.Y), csvPointer(pt.YMin), csvPointer(pt.YMax)}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// CsvTable writes the ranking table in comma-separated value format.
func CsvTable(w io.Writer, rows []ranking.TableRow, columns []string) error {
	cw := csv.NewWriter(w)
	header := append([]string{"country", "iso2c"}, columns...)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		record := []string{row.Country, row.ISO2C}
		for _, col := range columns {
			v := row.Value(col)
			if v == constants.MissingValue {
				record = append(record, "")
				continue
			}
			record = append(record, csvNumber(v))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func columnWidth(header string, values []string) int {
	width := runewidth.StringWidth(header)
	for _, v := range values {
		if vw := runewidth.StringWidth(v); vw > width {
			width = vw
		}
	}
	return width
}

func labelAt(labels []string, i int) string {
	if i >= 0 && i < len(labels) {
		return labels[i]
	}
	return strconv.Itoa(i)
}

func formatNumber(p *message.Printer, v float64, precision int) string {
	if math.IsNaN(v) {
		return missingCell
	}
	if math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return p.Sprintf(fmt.Sprintf("%%.%df", precision), v)
}

func formatPointer(p *message.Printer, v *float64, precision int) string {
	if v == nil {
		return missingCell
	}
	return formatNumber(p, *v, precision)
}

func formatCell(p *message.Printer, v float64, precision int) string {
	if v == constants.MissingValue {
		return missingCell
	}
	return formatNumber(p, v, precision)
}

func csvNumber(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func csvPointer(v *float64) string {
	if v == nil {
		return ""
	}
	return csvNumber(*v)
}
