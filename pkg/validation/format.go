// Package validation checks display state for consistency and validates
// command line options.
package validation

import (
	"errors"
	"fmt"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/constants"
)

// ErrUnsupportedOutputFormat is returned for output formats other than pretty and csv.
var ErrUnsupportedOutputFormat = errors.New("unsupported output format")

// ValidateOutputFormat checks if the output format is one of the supported formats.
func ValidateOutputFormat(format string) error {
	if format != constants.OutputFormatPretty && format != constants.OutputFormatCSV {
		return fmt.Errorf("%w: expected %s or %s, got %q",
			ErrUnsupportedOutputFormat, constants.OutputFormatPretty, constants.OutputFormatCSV, format)
	}
	return nil
}
