package validation

// RankingState is the full set of display options of the ranking table.
type RankingState struct {
	PeriodOfTime       string `json:"periodOfTime" yaml:"periodOfTime" validate:"required,oneof=yearly midyear fluseason quarterly monthly weekly weekly_13w_sma weekly_26w_sma weekly_52w_sma weekly_104w_sma"`
	JurisdictionType   string `json:"jurisdictionType" yaml:"jurisdictionType" validate:"omitempty,oneof=countries countries_states usa can eu"`
	ShowASMR           bool   `json:"showASMR" yaml:"showASMR"`
	StandardPopulation string `json:"standardPopulation" yaml:"standardPopulation" validate:"omitempty,oneof=who esp usa country"`
	BaselineMethod     string `json:"baselineMethod" yaml:"baselineMethod" validate:"omitempty,oneof=naive mean median lin_reg exp"`
	BaselineDateFrom   string `json:"baselineDateFrom" yaml:"baselineDateFrom"`
	BaselineDateTo     string `json:"baselineDateTo" yaml:"baselineDateTo"`
	DateFrom           string `json:"dateFrom" yaml:"dateFrom"`
	DateTo             string `json:"dateTo" yaml:"dateTo"`
	DisplayMode        string `json:"displayMode" yaml:"displayMode" validate:"omitempty,oneof=absolute relative"`
	ShowTotals         bool   `json:"showTotals" yaml:"showTotals"`
	ShowTotalsOnly     bool   `json:"showTotalsOnly" yaml:"showTotalsOnly"`
	ShowPercentage     bool   `json:"showPercentage" yaml:"showPercentage"`
	ShowPI             bool   `json:"showPI" yaml:"showPI"`
	Cumulative         bool   `json:"cumulative" yaml:"cumulative"`
	HideIncomplete     bool   `json:"hideIncomplete" yaml:"hideIncomplete"`
	DecimalPrecision   int    `json:"decimalPrecision" yaml:"decimalPrecision" validate:"min=0,max=3"`
}

// absolute reports whether raw metric values are ranked instead of excess.
func (s RankingState) absolute() bool {
	return s.DisplayMode == "absolute"
}

// ValidateRankingState checks every rule and returns all violations.
func (sv *StateValidator) ValidateRankingState(s RankingState) []Violation {
	violations := sv.checkSchema(s)

	if s.ShowASMR && s.StandardPopulation == "" {
		violations = append(violations, Violation{
			Field:   "standardPopulation",
			Message: "Age-standardized ranking requires a standard population",
			Rule:    RuleStandardPopulationRequired,
		})
	}

	violations = append(violations, checkRange(s.PeriodOfTime, "dateFrom", s.DateFrom, "dateTo", s.DateTo)...)
	violations = append(violations, checkRange(s.PeriodOfTime, "baselineDateFrom", s.BaselineDateFrom, "baselineDateTo", s.BaselineDateTo)...)
	violations = append(violations, checkBaselineWithinRange(s.PeriodOfTime, s.BaselineDateTo, s.DateTo)...)

	if s.ShowTotalsOnly && !s.ShowTotals {
		violations = append(violations, Violation{
			Field:   "showTotalsOnly",
			Message: "Totals-only view requires totals to be shown",
			Rule:    RuleTotalsOnlyRequiresTotals,
		})
	}

	if s.ShowPI && s.absolute() {
		violations = append(violations, Violation{
			Field:   "showPI",
			Message: "Prediction intervals require excess display",
			Rule:    RuleIntervalRequiresBaseline,
		})
	}

	if s.ShowPI && s.Cumulative {
		violations = append(violations, Violation{
			Field:   "showPI",
			Message: "Prediction intervals cannot be shown for cumulative values",
			Rule:    RuleIntervalNotCumulative,
		})
	}

	if s.ShowPI && s.ShowTotalsOnly {
		violations = append(violations, Violation{
			Field:   "showPI",
			Message: "Prediction intervals cannot be shown in totals-only view",
			Rule:    RuleIntervalNotTotalsOnly,
		})
	}

	if s.ShowPercentage && s.absolute() {
		violations = append(violations, Violation{
			Field:   "showPercentage",
			Message: "Percentage display requires excess display",
			Rule:    RulePercentageRequiresExcess,
		})
	}

	return violations
}
