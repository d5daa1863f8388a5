package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry is one month of planned (and eventually actual) spend in the program
// ledger. Entries created by an allocation push carry the allocation id, which
// is how actuals find their way back to the allocation that planned them. The
// baseline slot is a copy of the planned figures taken when the entry is
// created and never changes afterwards, so re-planning cannot erase what was
// originally committed.
type Entry struct {
	Id             uuid.UUID
	VersionId      uuid.UUID
	AllocationId   *uuid.UUID
	ElementId      *uuid.UUID
	VendorName     string
	Description    string
	WbsCode        string
	BaselineMonth  string
	BaselineAmount decimal.Decimal
	Month          string
	PlannedAmount  decimal.Decimal
	ActualAmount   *decimal.Decimal
	ActualDate     *time.Time
	InvoiceNumber  string
	Notes          string
}

// Metrics is the spend picture of a version's ledger as of a reference month.
type Metrics struct {
	TotalPlanned             decimal.Decimal
	PlannedToDate            decimal.Decimal
	ActualsToDate            decimal.Decimal
	Variance                 decimal.Decimal
	PercentSpent             float64
	SchedulePerformanceIndex float64
}

// ComputeMetrics aggregates ledger entries as of the month containing now.
// PlannedToDate covers entries up to and including the current month;
// ActualsToDate sums every recorded actual. Variance is planned-to-date minus
// actuals-to-date, so overspend is negative. The performance index divides
// actuals by planned-to-date and is zero when nothing was planned yet.
func ComputeMetrics(entries []Entry, now time.Time) Metrics {
	currentMonth := now.Format("2006-01")
	metrics := Metrics{}

	for _, entry := range entries {
		metrics.TotalPlanned = metrics.TotalPlanned.Add(entry.PlannedAmount)
		if entry.Month <= currentMonth {
			metrics.PlannedToDate = metrics.PlannedToDate.Add(entry.PlannedAmount)
		}
		if entry.ActualAmount != nil {
			metrics.ActualsToDate = metrics.ActualsToDate.Add(*entry.ActualAmount)
		}
	}

	metrics.Variance = metrics.PlannedToDate.Sub(metrics.ActualsToDate)
	if metrics.TotalPlanned.IsPositive() {
		percent, _ := metrics.ActualsToDate.Div(metrics.TotalPlanned).Mul(decimal.NewFromInt(100)).Round(2).Float64()
		metrics.PercentSpent = percent
	}
	if metrics.PlannedToDate.IsPositive() {
		spi, _ := metrics.ActualsToDate.Div(metrics.PlannedToDate).Round(4).Float64()
		metrics.SchedulePerformanceIndex = spi
	}
	return metrics
}

// ActualsByMonth groups recorded actuals by ledger month.
func ActualsByMonth(entries []Entry) map[string]decimal.Decimal {
	actuals := make(map[string]decimal.Decimal)
	for _, entry := range entries {
		if entry.ActualAmount != nil {
			actuals[entry.Month] = actuals[entry.Month].Add(*entry.ActualAmount)
		}
	}
	return actuals
}
