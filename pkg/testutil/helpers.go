// Package testutil provides common utility functions for testing.
package testutil

import (
	"math"

	"github.com/MortalityWatch/mortality.watch-sub005/internal/ranking"
)

// FindRow finds a ranking row by country name.
// Returns a pointer to the row if found, nil otherwise.
func FindRow(rows []ranking.TableRow, country string) *ranking.TableRow {
	for i := range rows {
		if rows[i].Country == country {
			return &rows[i]
		}
	}
	return nil
}

// AlmostEqual reports whether a and b differ by at most tol. Two NaNs are equal.
func AlmostEqual(a, b, tol float64) bool {
	if math.IsNaN(a) || math.IsNaN(b) {
		return math.IsNaN(a) && math.IsNaN(b)
	}
	return math.Abs(a-b) <= tol
}
