package ranking

import (
	"context"
	"sort"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// BuildTable processes every jurisdiction and returns the included rows in
// input order. At most workers rows are processed at once; workers <= 0
// uses constants.DefaultRankingWorkers.
func (rp *RowProcessor) BuildTable(ctx context.Context, inputs []RowInput, workers int) ([]TableRow, error) {
	if workers <= 0 {
		workers = constants.DefaultRankingWorkers
	}

	rows := make([]TableRow, len(inputs))
	keep := make([]bool, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range inputs {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			row, include, err := rp.ProcessRow(inputs[i])
			if err != nil {
				return err
			}
			rows[i], keep[i] = row, include
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	table := make([]TableRow, 0, len(rows))
	for i, row := range rows {
		if keep[i] {
			table = append(table, row)
		}
	}

	rp.logger.Info("ranking table built",
		zap.String("op", "ranking.BuildTable"),
		zap.Int("jurisdictions", len(inputs)),
		zap.Int("rows", len(table)),
	)
	return table, nil
}

// SortRows orders rows by column. Missing cells always sort last regardless
// of direction; ties keep their order.
func SortRows(rows []TableRow, column string, descending bool) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Value(column), rows[j].Value(column)
		aMissing, bMissing := a == constants.MissingValue, b == constants.MissingValue
		if aMissing || bMissing {
			return !aMissing && bMissing
		}
		if descending {
			return a > b
		}
		return a < b
	})
}

// Columns lists the table columns in display order. Bound columns follow
// their center column when intervals is set.
func Columns(periods []string, totalKey string, showTotals, totalsOnly, intervals bool) []string {
	if totalKey == "" {
		totalKey = constants.TotalColumnKey
	}

	var keys []string
	if !totalsOnly {
		keys = append(keys, periods...)
	}
	if showTotals || totalsOnly {
		keys = append(keys, totalKey)
	}

	if !intervals {
		return keys
	}
	columns := make([]string, 0, 3*len(keys))
	for _, k := range keys {
		columns = append(columns, k, k+constants.LowerSuffix, k+constants.UpperSuffix)
	}
	return columns
}
