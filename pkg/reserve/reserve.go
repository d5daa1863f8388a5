package reserve

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Strategy selects how the management reserve percentage is derived.
type Strategy string

const (
	StrategyStandard  Strategy = "standard"
	StrategyRiskBased Strategy = "risk_based"
	StrategyCustom    Strategy = "custom"
)

// ParseStrategy validates a raw strategy string. An empty string defaults to
// standard.
func ParseStrategy(raw string) (Strategy, error) {
	switch Strategy(raw) {
	case StrategyStandard, StrategyRiskBased, StrategyCustom:
		return Strategy(raw), nil
	case "":
		return StrategyStandard, nil
	default:
		return "", fmt.Errorf("unknown reserve strategy %q", raw)
	}
}

// ManagementReserve is the contingency held on top of a version's base
// estimate. One reserve exists per version. The baseline figures are what the
// calculation produced; the adjusted figures start as a copy of the baseline
// and are the ones a later manual adjustment would change. RemainingAmount is
// the adjusted amount less what has been utilized.
type ManagementReserve struct {
	Id                 uuid.UUID
	VersionId          uuid.UUID
	Strategy           Strategy
	BaselinePercentage float64
	BaselineAmount     decimal.Decimal
	AdjustedPercentage float64
	AdjustedAmount     decimal.Decimal
	UtilizedAmount     decimal.Decimal
	RemainingAmount    decimal.Decimal
	BaseEstimate       decimal.Decimal
	TotalWithBase      decimal.Decimal
	Justification      string
}
