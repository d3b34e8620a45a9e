/*
Package entitlement computes paid-leave entitlements and balances.

PURPOSE:
  This package answers two questions for any employee and any date:
  1. "How many paid leave days is this person owed this year?" (Entitlement)
  2. "How many of those days are left?" (Balance)

  Tenure drives the quota: longer service means more days, and extended
  absences (sabbaticals, long medical leave) push the working anniversary
  back and can drop an employee into a lower tier.

KEY CONCEPTS IN THIS FILE (types.go):
  - User:            id + nullable employment start date
  - ExtendedAbsence: continuous absence period, read-only input to the engine
  - LeaveRequest:    date range + half-day flag + status + leave type
  - BonusGrant:      admin-granted extra days for a specific year
  - Entitlement:     derived quota record, never persisted
  - Balance:         derived usage record, never persisted

DESIGN PRINCIPLES:
  1. Purity: every derived value is a function of persisted inputs and a
     reference date. Nothing is cached, nothing is mutated.
  2. Precision: day amounts use decimal.Decimal so half days are exact.
  3. Silent degradation: missing start dates and empty inputs resolve to
     well-defined defaults rather than errors.

SEE ALSO:
  - tenure.go: effective tenure after subtracting qualifying absences
  - quota.go: tenure-tier table and onboarding proration
  - engine.go: the aggregator wiring these together over a Store
*/
package entitlement

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RECORD TYPES - Read-only inputs loaded from the store
// =============================================================================

// User is the subset of the employee record the engine needs.
// A nil StartDate means the employment start was never recorded; the engine
// then falls back to a flat onboarding-year quota and skips all tenure math.
type User struct {
	ID        string
	Name      string
	Email     string
	StartDate *Date
}

// ExtendedAbsence is a continuous absence period (e.g. sabbatical, long
// medical leave). Created and edited by administrators only; the engine
// treats it as immutable input.
type ExtendedAbsence struct {
	ID        string
	UserID    string
	StartDate Date
	EndDate   Date
	Reason    string
}

// NewExtendedAbsence validates the date range.
func NewExtendedAbsence(id, userID string, start, end Date, reason string) (ExtendedAbsence, error) {
	if end.Before(start) {
		return ExtendedAbsence{}, fmt.Errorf("%w: %s ends before it starts", ErrInvalidDateRange, id)
	}
	return ExtendedAbsence{ID: id, UserID: userID, StartDate: start, EndDate: end, Reason: reason}, nil
}

// DurationDays returns the inclusive length of the absence in calendar days.
func (a ExtendedAbsence) DurationDays() int {
	return DaysBetween(a.StartDate, a.EndDate) + 1
}

// LeaveType classifies requests. Only paid types consume quota.
type LeaveType struct {
	ID     string
	Name   string
	IsPaid bool
}

type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
	StatusRejected RequestStatus = "rejected"
	StatusCanceled RequestStatus = "canceled"
)

// LeaveRequest is a single request for time off.
// EndDate may be nil for single-day requests; HalfDay requests always count
// as half a working day regardless of the range.
type LeaveRequest struct {
	ID          string
	UserID      string
	LeaveTypeID string
	Status      RequestStatus
	StartDate   Date
	EndDate     *Date
	HalfDay     bool
	Reason      string
}

// BonusGrant is extra leave granted by an admin for a specific year.
// Multiple grants per user/year are allowed and summed.
type BonusGrant struct {
	ID          string
	UserID      string
	Year        int
	DaysGranted decimal.Decimal
	DaysUsed    decimal.Decimal
	Reason      string
	GrantedBy   string
}

// NewBonusGrant validates grant amounts.
func NewBonusGrant(id, userID string, year int, granted, used decimal.Decimal, reason, grantedBy string) (BonusGrant, error) {
	if !granted.IsPositive() {
		return BonusGrant{}, fmt.Errorf("%w: days_granted must be positive", ErrInvalidGrant)
	}
	if used.IsNegative() || used.GreaterThan(granted) {
		return BonusGrant{}, fmt.Errorf("%w: days_used outside [0, days_granted]", ErrInvalidGrant)
	}
	return BonusGrant{
		ID: id, UserID: userID, Year: year,
		DaysGranted: granted, DaysUsed: used,
		Reason: reason, GrantedBy: grantedBy,
	}, nil
}

// =============================================================================
// DERIVED TYPES - Computed fresh on every call, never persisted
// =============================================================================

// ServiceDuration is tenure expressed in the engine's simplified calendar:
// fixed 365-day years and 30-day months. The approximation is deliberate and
// must not be replaced with calendar-aware arithmetic; stored UI expectations
// depend on it.
type ServiceDuration struct {
	Years  int
	Months int
	Days   int
}

// DurationFromDays converts a day count using the fixed 365/30 divisors.
func DurationFromDays(days int) ServiceDuration {
	if days < 0 {
		days = 0
	}
	years := days / 365
	rem := days % 365
	return ServiceDuration{Years: years, Months: rem / 30, Days: rem % 30}
}

// TotalDays converts back using the same divisors.
func (d ServiceDuration) TotalDays() int {
	return d.Years*365 + d.Months*30 + d.Days
}

// String renders a human-readable duration, e.g. "2 years, 3 months".
func (d ServiceDuration) String() string {
	if d.Years == 0 && d.Months == 0 && d.Days == 0 {
		return "0 days"
	}
	out := ""
	appendPart := func(n int, unit string) {
		if n == 0 {
			return
		}
		if out != "" {
			out += ", "
		}
		if n == 1 {
			out += fmt.Sprintf("1 %s", unit)
		} else {
			out += fmt.Sprintf("%d %ss", n, unit)
		}
	}
	appendPart(d.Years, "year")
	appendPart(d.Months, "month")
	appendPart(d.Days, "day")
	return out
}

// AbsenceImpact summarizes how qualifying extended absences affected the
// entitlement. AnniversaryDelay always equals TotalAbsenceDays; both are
// reported so the UI can label them independently.
type AbsenceImpact struct {
	TotalAbsenceDays int
	AnniversaryDelay int
	TenureReduction  string
}

// Entitlement is the full quota picture for one user at one reference date.
// EmploymentYear is the absence-unadjusted year; EffectiveEmploymentYear is
// the one that drives the quota. Both are reported on purpose.
type Entitlement struct {
	OriginalStartDate       *Date
	EffectiveStartDate      *Date
	WorkingAnniversary      *Date
	EmploymentYear          int
	EffectiveEmploymentYear int
	IsOnboardingYear        bool
	TotalQuota              int
	ProratedQuota           *int
	AbsenceImpact           AbsenceImpact
}

// Balance is the usage picture for one user in one calendar year.
// RemainingDays and AvailableDays are identical by design: pending requests
// are reserved against quota, so "available" already nets them out.
// Bonus totals are reported alongside without changing those formulas.
type Balance struct {
	TotalQuota       int
	UsedDays         decimal.Decimal
	RemainingDays    decimal.Decimal
	PendingDays      decimal.Decimal
	AvailableDays    decimal.Decimal
	EmploymentYear   int
	IsOnboardingYear bool

	BonusGranted   decimal.Decimal
	BonusUsed      decimal.Decimal
	BonusRemaining decimal.Decimal
}
