/*
engine.go - Entitlement aggregator and balance calculator

PURPOSE:
  Ties the pipeline together over a Store:

    tenure -> anniversary/effective start -> quota -> entitlement
    entitlement + year's requests + bonus grants -> balance

ERROR HANDLING:
  Store failures propagate unchanged. Domain gaps do not: a user with no
  recorded start date gets the flat onboarding default, empty absence and
  request lists mean zero impact and zero usage.

DETERMINISM:
  Engine.Now is injectable so the current-year reference date is testable.
  Everything downstream of it takes explicit dates.
*/
package entitlement

import (
	"context"

	"github.com/shopspring/decimal"
)

// Engine computes entitlements and balances. Safe for concurrent use: it
// holds no mutable state and only reads through the store.
type Engine struct {
	store Store
	now   func() Date
}

// NewEngine creates an engine over the given store.
func NewEngine(store Store) *Engine {
	return &Engine{store: store, now: Today}
}

// WithNow overrides the wall-clock source. Intended for tests.
func (e *Engine) WithNow(now func() Date) *Engine {
	e.now = now
	return e
}

// =============================================================================
// EFFECTIVE TENURE
// =============================================================================

// EffectiveTenure computes the user's effective service duration at the
// target date, with qualifying absence time subtracted.
func (e *Engine) EffectiveTenure(ctx context.Context, userID string, target Date) (ServiceDuration, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return ServiceDuration{}, err
	}
	if user == nil || user.StartDate == nil {
		return ServiceDuration{}, nil
	}

	absences, err := e.store.CompletedAbsences(ctx, userID, target)
	if err != nil {
		return ServiceDuration{}, err
	}
	return Tenure(user.StartDate, absences, target), nil
}

// =============================================================================
// ENTITLEMENT AGGREGATOR
// =============================================================================

// Entitlement computes the complete quota picture for a user at the target
// date. This is the primary entry point of the package.
func (e *Engine) Entitlement(ctx context.Context, userID string, target Date) (Entitlement, error) {
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Entitlement{}, err
	}
	if user == nil {
		return Entitlement{}, ErrUserNotFound
	}
	if user.StartDate == nil {
		return defaultEntitlement(), nil
	}

	absences, err := e.store.CompletedAbsences(ctx, userID, target)
	if err != nil {
		return Entitlement{}, err
	}
	return computeEntitlement(*user.StartDate, absences, target), nil
}

// defaultEntitlement is the fixed record for users with no recorded start
// date: flat 12-day onboarding year, no tenure math attempted.
func defaultEntitlement() Entitlement {
	prorated := defaultOnboardingQuota
	return Entitlement{
		EmploymentYear:          1,
		EffectiveEmploymentYear: 1,
		IsOnboardingYear:        true,
		TotalQuota:              defaultOnboardingQuota,
		ProratedQuota:           &prorated,
	}
}

// computeEntitlement is the pure aggregation over already-loaded inputs.
func computeEntitlement(start Date, absences []ExtendedAbsence, target Date) Entitlement {
	tenure := Tenure(&start, absences, target)

	effectiveStart := EffectiveStartDate(start, tenure, target)
	anniversary := WorkingAnniversary(start, tenure, target)

	effectiveYear := employmentYearFor(tenure)
	originalYear := employmentYearFor(DurationFromDays(DaysBetween(start, target)))

	ent := Entitlement{
		OriginalStartDate:       &start,
		EffectiveStartDate:      &effectiveStart,
		WorkingAnniversary:      &anniversary,
		EmploymentYear:          originalYear,
		EffectiveEmploymentYear: effectiveYear,
		IsOnboardingYear:        effectiveYear == 1,
		AbsenceImpact:           absenceImpact(start, absences, target),
	}

	if ent.IsOnboardingYear {
		prorated := ProratedOnboardingQuota(effectiveStart, target)
		ent.ProratedQuota = &prorated
		ent.TotalQuota = prorated
	} else {
		ent.TotalQuota = QuotaForYear(effectiveYear)
	}
	return ent
}

// absenceImpact re-walks the qualifying absences to produce the summary the
// UI shows next to the quota. The anniversary delay equals the total absence
// days; the tenure reduction reuses the 365/30 rendering.
func absenceImpact(start Date, absences []ExtendedAbsence, target Date) AbsenceImpact {
	total := QualifyingAbsenceDays(start, absences, target)
	return AbsenceImpact{
		TotalAbsenceDays: total,
		AnniversaryDelay: total,
		TenureReduction:  DurationFromDays(total).String(),
	}
}

// =============================================================================
// BALANCE CALCULATOR
// =============================================================================

// Balance computes quota usage for a user in a calendar year.
//
// The entitlement reference date is today for the current year and Dec 31
// for any other year: past and future years are evaluated as of year-end
// while the current year tracks live tenure.
func (e *Engine) Balance(ctx context.Context, userID string, year int) (Balance, error) {
	target := EndOfYear(year)
	if now := e.now(); now.Year() == year {
		target = now
	}

	ent, err := e.Entitlement(ctx, userID, target)
	if err != nil {
		return Balance{}, err
	}

	requests, err := e.store.PaidRequestsInYear(ctx, userID, year)
	if err != nil {
		return Balance{}, err
	}

	used := decimal.Zero
	pending := decimal.Zero
	for _, r := range requests {
		switch r.Status {
		case StatusApproved:
			used = used.Add(RequestWorkingDays(r))
		case StatusPending:
			pending = pending.Add(RequestWorkingDays(r))
		}
		// rejected/canceled never count
	}

	granted, bonusUsed, err := e.store.BonusTotals(ctx, userID, year)
	if err != nil {
		return Balance{}, err
	}

	quota := decimal.NewFromInt(int64(ent.TotalQuota))
	remaining := quota.Sub(used).Sub(pending)

	return Balance{
		TotalQuota:       ent.TotalQuota,
		UsedDays:         used,
		RemainingDays:    remaining,
		PendingDays:      pending,
		AvailableDays:    remaining,
		EmploymentYear:   ent.EffectiveEmploymentYear,
		IsOnboardingYear: ent.IsOnboardingYear,
		BonusGranted:     granted,
		BonusUsed:        bonusUsed,
		BonusRemaining:   granted.Sub(bonusUsed),
	}, nil
}
