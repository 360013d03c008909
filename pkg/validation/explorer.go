package validation

// ExplorerState is the full set of display options of the explorer chart.
type ExplorerState struct {
	Countries              []string `json:"countries" yaml:"countries" validate:"omitempty,dive,required"`
	Type                   string   `json:"type" yaml:"type" validate:"required,oneof=deaths cmr asmr le le_adj asd population"`
	ChartType              string   `json:"chartType" yaml:"chartType" validate:"required,oneof=yearly midyear fluseason quarterly monthly weekly weekly_13w_sma weekly_26w_sma weekly_52w_sma weekly_104w_sma"`
	ChartStyle             string   `json:"chartStyle" yaml:"chartStyle" validate:"omitempty,oneof=line bar matrix"`
	DateFrom               string   `json:"dateFrom" yaml:"dateFrom"`
	DateTo                 string   `json:"dateTo" yaml:"dateTo"`
	BaselineDateFrom       string   `json:"baselineDateFrom" yaml:"baselineDateFrom"`
	BaselineDateTo         string   `json:"baselineDateTo" yaml:"baselineDateTo"`
	StandardPopulation     string   `json:"standardPopulation" yaml:"standardPopulation" validate:"omitempty,oneof=who esp usa country"`
	BaselineMethod         string   `json:"baselineMethod" yaml:"baselineMethod" validate:"omitempty,oneof=naive mean median lin_reg exp"`
	IsExcess               bool     `json:"isExcess" yaml:"isExcess"`
	ShowBaseline           bool     `json:"showBaseline" yaml:"showBaseline"`
	ShowPredictionInterval bool     `json:"showPredictionInterval" yaml:"showPredictionInterval"`
	ShowPercentage         bool     `json:"showPercentage" yaml:"showPercentage"`
	Cumulative             bool     `json:"cumulative" yaml:"cumulative"`
	ShowTotal              bool     `json:"showTotal" yaml:"showTotal"`
	View                   string   `json:"view" yaml:"view" validate:"omitempty,oneof=zscore"`
}

// ValidateExplorerState checks every rule and returns all violations.
func (sv *StateValidator) ValidateExplorerState(s ExplorerState) []Violation {
	violations := sv.checkSchema(s)

	if ageStandardized(s.Type) && s.StandardPopulation == "" {
		violations = append(violations, Violation{
			Field:   "standardPopulation",
			Message: "Age-standardized metrics require a standard population",
			Rule:    RuleStandardPopulationRequired,
		})
	}

	if s.IsExcess && !s.ShowBaseline {
		violations = append(violations, Violation{
			Field:   "showBaseline",
			Message: "Excess mode requires the baseline to be shown",
			Rule:    RuleExcessRequiresBaseline,
		})
	}

	violations = append(violations, checkRange(s.ChartType, "dateFrom", s.DateFrom, "dateTo", s.DateTo)...)
	violations = append(violations, checkRange(s.ChartType, "baselineDateFrom", s.BaselineDateFrom, "baselineDateTo", s.BaselineDateTo)...)
	violations = append(violations, checkBaselineWithinRange(s.ChartType, s.BaselineDateTo, s.DateTo)...)

	if s.Type == "population" {
		if s.IsExcess {
			violations = append(violations, Violation{
				Field:   "isExcess",
				Message: "Population metric does not support excess calculations",
				Rule:    RulePopulationNoExcess,
			})
		}
		if s.ShowBaseline {
			violations = append(violations, Violation{
				Field:   "showBaseline",
				Message: "Population metric does not support baseline calculations",
				Rule:    RulePopulationNoBaseline,
			})
		}
		if s.View == "zscore" {
			violations = append(violations, Violation{
				Field:   "view",
				Message: "Population metric does not support z-scores",
				Rule:    RulePopulationNoZScore,
			})
		}
	}

	if s.ShowPredictionInterval && !s.ShowBaseline && !s.IsExcess {
		violations = append(violations, Violation{
			Field:   "showPredictionInterval",
			Message: "Prediction intervals require the baseline or excess mode",
			Rule:    RuleIntervalRequiresBaseline,
		})
	}

	if s.ShowPredictionInterval && s.Cumulative {
		violations = append(violations, Violation{
			Field:   "showPredictionInterval",
			Message: "Prediction intervals cannot be shown for cumulative values",
			Rule:    RuleIntervalNotCumulative,
		})
	}

	if s.ShowPercentage && !s.IsExcess {
		violations = append(violations, Violation{
			Field:   "showPercentage",
			Message: "Percentage display requires excess mode",
			Rule:    RulePercentageRequiresExcess,
		})
	}

	return violations
}
