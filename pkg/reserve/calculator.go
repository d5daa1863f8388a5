package reserve

import "github.com/shopspring/decimal"

// DefaultCustomPercentage is used when a custom strategy is chosen without an
// explicit percentage.
const DefaultCustomPercentage = 10.0

var (
	largeProgram  = decimal.NewFromInt(1_000_000)
	mediumProgram = decimal.NewFromInt(500_000)
)

// RecommendedPercentage derives the reserve percentage for a base estimate.
// Bigger programs carry proportionally less reserve: the standard strategy
// steps 15/12/10 at the 500k and 1M thresholds, the risk-based strategy runs
// two points tighter at 12/10/8. The custom strategy returns the caller's
// percentage as-is, defaulting when it is not positive.
func RecommendedPercentage(strategy Strategy, baseEstimate decimal.Decimal, customPercentage float64) float64 {
	switch strategy {
	case StrategyRiskBased:
		switch {
		case baseEstimate.GreaterThan(largeProgram):
			return 8
		case baseEstimate.GreaterThan(mediumProgram):
			return 10
		default:
			return 12
		}
	case StrategyCustom:
		if customPercentage > 0 {
			return customPercentage
		}
		return DefaultCustomPercentage
	default:
		switch {
		case baseEstimate.GreaterThan(largeProgram):
			return 10
		case baseEstimate.GreaterThan(mediumProgram):
			return 12
		default:
			return 15
		}
	}
}

// Calculate produces the reserve amounts for a version's base estimate. The
// amount is rounded to cents. The adjusted figures start equal to the
// baseline, nothing is utilized yet, so the full amount remains.
func Calculate(strategy Strategy, baseEstimate decimal.Decimal, customPercentage float64) ManagementReserve {
	percentage := RecommendedPercentage(strategy, baseEstimate, customPercentage)
	amount := baseEstimate.Mul(decimal.NewFromFloat(percentage)).Div(decimal.NewFromInt(100)).Round(2)
	return ManagementReserve{
		Strategy:           strategy,
		BaselinePercentage: percentage,
		BaselineAmount:     amount,
		AdjustedPercentage: percentage,
		AdjustedAmount:     amount,
		UtilizedAmount:     decimal.Zero,
		RemainingAmount:    amount,
		BaseEstimate:       baseEstimate,
		TotalWithBase:      baseEstimate.Add(amount),
	}
}
