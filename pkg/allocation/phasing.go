package allocation

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

var hundred = decimal.NewFromInt(100)

// ParseMonth parses a "YYYY-MM" month key.
func ParseMonth(raw string) (time.Time, error) {
	month, err := time.Parse(monthLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q, expected YYYY-MM", raw)
	}
	return month, nil
}

// FormatMonth renders a time as a "YYYY-MM" month key.
func FormatMonth(t time.Time) string {
	return t.Format(monthLayout)
}

// CalculateNumberOfMonths counts the months in the inclusive range, so a
// range from 2025-01 to 2025-03 spans 3 months and a single-month range
// spans 1.
func CalculateNumberOfMonths(startMonth, endMonth string) (int, error) {
	start, err := ParseMonth(startMonth)
	if err != nil {
		return 0, err
	}
	end, err := ParseMonth(endMonth)
	if err != nil {
		return 0, err
	}
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month()) + 1
	if months < 1 {
		return 0, fmt.Errorf("end month %s is before start month %s", endMonth, startMonth)
	}
	return months, nil
}

// MonthRange lists the month keys of the inclusive range in order.
func MonthRange(startMonth, endMonth string) ([]string, error) {
	count, err := CalculateNumberOfMonths(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	start, _ := ParseMonth(startMonth)
	months := make([]string, count)
	for i := 0; i < count; i++ {
		months[i] = FormatMonth(start.AddDate(0, i, 0))
	}
	return months, nil
}

// GenerateMonthlyBreakdown spreads totalAmount across the inclusive month
// range according to the phasing policy. Linear (and custom, before the user
// edits it) spreads evenly; front-loaded puts 60% of the total into the first
// 30% of months, 30% into the middle 40%, and 10% into the rest; back-loaded
// is the mirror image. Every amount is rounded to cents against a running
// remainder and the final month absorbs the rounding slack, so the breakdown
// always sums to exactly totalAmount.
func GenerateMonthlyBreakdown(totalAmount decimal.Decimal, startMonth, endMonth string, allocationType AllocationType) (map[string]MonthlyShare, error) {
	months, err := MonthRange(startMonth, endMonth)
	if err != nil {
		return nil, err
	}
	if totalAmount.IsNegative() {
		return nil, fmt.Errorf("total amount cannot be negative")
	}

	shares := monthlyShares(totalAmount, len(months), allocationType)

	breakdown := make(map[string]MonthlyShare, len(months))
	remaining := totalAmount
	for i, month := range months {
		var amount decimal.Decimal
		if i == len(months)-1 {
			amount = remaining
		} else {
			amount = shares[i]
			if amount.GreaterThan(remaining) {
				amount = remaining
			}
			amount = amount.Round(2)
			remaining = remaining.Sub(amount)
		}

		percentage := decimal.Zero
		if !totalAmount.IsZero() {
			percentage = amount.Div(totalAmount).Mul(hundred).Round(2)
		}
		breakdown[month] = MonthlyShare{Amount: amount, Percentage: percentage}
	}
	return breakdown, nil
}

// monthlyShares computes the unrounded target amount per month index.
func monthlyShares(total decimal.Decimal, count int, allocationType AllocationType) []decimal.Decimal {
	shares := make([]decimal.Decimal, count)

	switch allocationType {
	case TypeFrontLoaded, TypeBackLoaded:
		firstEnd := int(math.Ceil(float64(count) * 0.3))
		middleEnd := int(math.Ceil(float64(count) * 0.7))
		weights := []struct {
			from, to int
			portion  decimal.Decimal
		}{
			{0, firstEnd, decimal.NewFromFloat(0.6)},
			{firstEnd, middleEnd, decimal.NewFromFloat(0.3)},
			{middleEnd, count, decimal.NewFromFloat(0.1)},
		}
		for _, bucket := range weights {
			size := bucket.to - bucket.from
			if size <= 0 {
				continue
			}
			share := total.Mul(bucket.portion).Div(decimal.NewFromInt(int64(size)))
			for i := bucket.from; i < bucket.to; i++ {
				shares[i] = share
			}
		}
		if allocationType == TypeBackLoaded {
			for i, j := 0, count-1; i < j; i, j = i+1, j-1 {
				shares[i], shares[j] = shares[j], shares[i]
			}
		}
	default:
		share := total.Div(decimal.NewFromInt(int64(count)))
		for i := range shares {
			shares[i] = share
		}
	}
	return shares
}
