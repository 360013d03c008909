package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/MortalityWatch/mortality.watch-sub005/pkg/datetime"
	"github.com/go-playground/validator/v10"
)

// RuleID identifies a validation rule independently of its message.
type RuleID string

const (
	RuleSchema                     RuleID = "schema"
	RuleStandardPopulationRequired RuleID = "standard_population_required"
	RuleExcessRequiresBaseline     RuleID = "excess_requires_baseline"
	RuleDateFormat                 RuleID = "date_format"
	RuleDateOrder                  RuleID = "date_order"
	RuleBaselineWithinRange        RuleID = "baseline_within_range"
	RulePopulationNoExcess         RuleID = "population_no_excess"
	RulePopulationNoBaseline       RuleID = "population_no_baseline"
	RulePopulationNoZScore         RuleID = "population_no_zscore"
	RuleIntervalRequiresBaseline   RuleID = "prediction_interval_requires_baseline"
	RuleIntervalNotCumulative      RuleID = "prediction_interval_not_cumulative"
	RuleIntervalNotTotalsOnly      RuleID = "prediction_interval_not_totals_only"
	RuleTotalsOnlyRequiresTotals   RuleID = "totals_only_requires_totals"
	RulePercentageRequiresExcess   RuleID = "percentage_requires_excess"
)

// Violation is one broken rule.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Rule    RuleID `json:"rule"`
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ErrorOrNil joins violations into a single error, or returns nil when
// there are none.
func ErrorOrNil(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	errs := make([]error, len(violations))
	for i, v := range violations {
		errs[i] = v
	}
	return errors.Join(errs...)
}

// StateValidator validates explorer and ranking state. It is safe for
// concurrent use.
type StateValidator struct {
	schema *validator.Validate
}

// NewStateValidator creates a validator that reports fields by their JSON name.
func NewStateValidator() *StateValidator {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &StateValidator{schema: v}
}

// checkSchema runs the struct tag rules of s.
func (sv *StateValidator) checkSchema(s interface{}) []Violation {
	err := sv.schema.Struct(s)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []Violation{{Field: "", Message: err.Error(), Rule: RuleSchema}}
	}

	violations := make([]Violation, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		violations = append(violations, Violation{
			Field:   fe.Field(),
			Message: schemaMessage(fe),
			Rule:    RuleSchema,
		})
	}
	return violations
}

func schemaMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag())
	}
}

// checkRange validates the format and order of a from/to pair of period
// labels for chartType. Empty endpoints are not checked. An unknown chart
// type is left to the schema rules.
func checkRange(chartType, fromField, from, toField, to string) []Violation {
	re, err := datetime.DateFormatPattern(chartType)
	if err != nil {
		return nil
	}

	var violations []Violation
	formatOK := true
	for _, f := range []struct{ field, value string }{{fromField, from}, {toField, to}} {
		if f.value != "" && !re.MatchString(f.value) {
			formatOK = false
			violations = append(violations, Violation{
				Field:   f.field,
				Message: fmt.Sprintf("%q does not match the %s period format", f.value, chartType),
				Rule:    RuleDateFormat,
			})
		}
	}

	if formatOK && from != "" && to != "" && from > to {
		violations = append(violations, Violation{
			Field:   fromField,
			Message: fmt.Sprintf("%s (%s) must not be after %s (%s)", fromField, from, toField, to),
			Rule:    RuleDateOrder,
		})
	}
	return violations
}

// checkBaselineWithinRange reports a baseline period that ends after the
// displayed period.
func checkBaselineWithinRange(chartType, baselineTo, to string) []Violation {
	re, err := datetime.DateFormatPattern(chartType)
	if err != nil || baselineTo == "" || to == "" {
		return nil
	}
	if !re.MatchString(baselineTo) || !re.MatchString(to) || baselineTo <= to {
		return nil
	}
	return []Violation{{
		Field:   "baselineDateTo",
		Message: fmt.Sprintf("Baseline period must end by the end of the displayed period (%s > %s)", baselineTo, to),
		Rule:    RuleBaselineWithinRange,
	}}
}

func ageStandardized(metric string) bool {
	return metric == "asmr" || metric == "asd"
}
