package entitlement

import "github.com/shopspring/decimal"

// =============================================================================
// WORKING-DAY CALCULATOR - Leaf dependency of balance calculation
// =============================================================================

var halfDay = decimal.NewFromFloat(0.5)

// WorkingDays counts weekdays in [start, end] inclusive.
//
// A half-day request is always exactly 0.5 regardless of its range or the
// weekday of its start. A nil end defaults to start. An end before start
// counts zero days; that is defined behavior, not an error.
func WorkingDays(start Date, end *Date, isHalfDay bool) decimal.Decimal {
	if isHalfDay {
		return halfDay
	}

	last := start
	if end != nil {
		last = *end
	}

	count := 0
	for d := start; d.BeforeOrEqual(last); d = d.AddDays(1) {
		if d.IsWorkday() {
			count++
		}
	}
	return decimal.NewFromInt(int64(count))
}

// RequestWorkingDays applies WorkingDays to a leave request's range.
func RequestWorkingDays(r LeaveRequest) decimal.Decimal {
	return WorkingDays(r.StartDate, r.EndDate, r.HalfDay)
}
