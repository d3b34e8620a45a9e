package entitlement_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/entitlement"
	"github.com/warp/leave-engine/entitlement/store"
)

// =============================================================================
// ENGINE TEST FIXTURES
// =============================================================================

func newFixture() (*store.Memory, *entitlement.Engine) {
	mem := store.NewMemory()
	mem.PutLeaveType(entitlement.LeaveType{ID: "annual", Name: "Annual Leave", IsPaid: true})
	mem.PutLeaveType(entitlement.LeaveType{ID: "unpaid", Name: "Unpaid Leave", IsPaid: false})
	return mem, entitlement.NewEngine(mem)
}

func fixedNow(d entitlement.Date) func() entitlement.Date {
	return func() entitlement.Date { return d }
}

func userAbsence(t *testing.T, userID string, start, end entitlement.Date) entitlement.ExtendedAbsence {
	t.Helper()
	a, err := entitlement.NewExtendedAbsence("abs-"+start.String(), userID, start, end, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return a
}

// =============================================================================
// ENTITLEMENT AGGREGATOR TESTS
// =============================================================================

func TestEntitlement_UnknownUser(t *testing.T) {
	_, engine := newFixture()

	_, err := engine.Entitlement(context.Background(), "nobody", date(2024, time.June, 1))
	if !errors.Is(err, entitlement.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestEntitlement_NilStartDate_FlatDefault(t *testing.T) {
	// GIVEN: A user whose employment start was never recorded
	// WHEN: Computing the entitlement
	// THEN: Flat 12-day onboarding year, no tenure math, no error

	mem, engine := newFixture()
	mem.PutUser(entitlement.User{ID: "u1", Name: "No Start"})

	ent, err := engine.Entitlement(context.Background(), "u1", date(2024, time.June, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ent.IsOnboardingYear {
		t.Error("expected onboarding year")
	}
	if ent.TotalQuota != 12 {
		t.Errorf("expected quota 12, got %d", ent.TotalQuota)
	}
	if ent.ProratedQuota == nil || *ent.ProratedQuota != 12 {
		t.Errorf("expected prorated quota 12, got %v", ent.ProratedQuota)
	}
	if ent.OriginalStartDate != nil || ent.WorkingAnniversary != nil {
		t.Error("expected no derived dates without a start date")
	}
}

func TestEntitlement_WithExtendedAbsence(t *testing.T) {
	// GIVEN: Start 2020-01-15 and a completed 76-day absence
	// WHEN: Computing the entitlement at 2024-01-15
	// THEN: The unadjusted year is 5 but the effective year drops to 4,
	//       so the quota is 18 and the anniversary shifts by 76 days

	mem, engine := newFixture()
	start := date(2020, time.January, 15)
	mem.PutUser(entitlement.User{ID: "u1", Name: "Long Leaver", StartDate: &start})
	mem.PutAbsence(userAbsence(t, "u1", date(2021, time.March, 1), date(2021, time.May, 15)))

	ent, err := engine.Entitlement(context.Background(), "u1", date(2024, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ent.EmploymentYear != 5 {
		t.Errorf("expected unadjusted year 5, got %d", ent.EmploymentYear)
	}
	if ent.EffectiveEmploymentYear != 4 {
		t.Errorf("expected effective year 4, got %d", ent.EffectiveEmploymentYear)
	}
	if ent.TotalQuota != 18 {
		t.Errorf("expected quota 18, got %d", ent.TotalQuota)
	}
	if ent.IsOnboardingYear {
		t.Error("expected non-onboarding year")
	}
	if ent.ProratedQuota != nil {
		t.Error("expected no prorated quota outside the onboarding year")
	}

	if want := date(2021, time.April, 1); ent.WorkingAnniversary == nil || !ent.WorkingAnniversary.Equal(want) {
		t.Errorf("expected anniversary %s, got %v", want, ent.WorkingAnniversary)
	}
	if want := date(2020, time.March, 31); ent.EffectiveStartDate == nil || !ent.EffectiveStartDate.Equal(want) {
		t.Errorf("expected effective start %s, got %v", want, ent.EffectiveStartDate)
	}

	impact := ent.AbsenceImpact
	if impact.TotalAbsenceDays != 76 || impact.AnniversaryDelay != 76 {
		t.Errorf("expected 76 absence days, got %+v", impact)
	}
	if impact.TenureReduction != "2 months, 16 days" {
		t.Errorf("expected reduction %q, got %q", "2 months, 16 days", impact.TenureReduction)
	}
}

func TestEntitlement_OnboardingProration(t *testing.T) {
	// GIVEN: A user who started 2024-07-01
	// WHEN: Computing the entitlement at 2024-09-01
	// THEN: Onboarding year with 12 - 7 + 1 = 6 prorated days

	mem, engine := newFixture()
	start := date(2024, time.July, 1)
	mem.PutUser(entitlement.User{ID: "u1", Name: "New Joiner", StartDate: &start})

	ent, err := engine.Entitlement(context.Background(), "u1", date(2024, time.September, 1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ent.IsOnboardingYear {
		t.Fatal("expected onboarding year")
	}
	if ent.ProratedQuota == nil || *ent.ProratedQuota != 6 {
		t.Errorf("expected prorated quota 6, got %v", ent.ProratedQuota)
	}
	if ent.TotalQuota != 6 {
		t.Errorf("expected total quota 6, got %d", ent.TotalQuota)
	}
}

// =============================================================================
// BALANCE CALCULATOR TESTS
// =============================================================================

func TestBalance_CurrentYear(t *testing.T) {
	// GIVEN: Start 2021-03-01, today fixed at 2024-06-15 (year 4, quota 18);
	//        one approved week, one pending half day, an unpaid and a rejected
	//        request, and two bonus grants for 2024
	// WHEN: Computing the 2024 balance
	// THEN: used=5, pending=0.5, remaining=available=12.5, bonus 5/1/4

	mem, engine := newFixture()
	engine.WithNow(fixedNow(date(2024, time.June, 15)))

	start := date(2021, time.March, 1)
	mem.PutUser(entitlement.User{ID: "u1", Name: "Regular", StartDate: &start})

	mem.PutRequest(entitlement.LeaveRequest{
		ID: "r1", UserID: "u1", LeaveTypeID: "annual", Status: entitlement.StatusApproved,
		StartDate: date(2024, time.March, 4), EndDate: datePtr(date(2024, time.March, 8)),
	})
	mem.PutRequest(entitlement.LeaveRequest{
		ID: "r2", UserID: "u1", LeaveTypeID: "annual", Status: entitlement.StatusPending,
		StartDate: date(2024, time.April, 2), HalfDay: true,
	})
	// Unpaid type never consumes quota
	mem.PutRequest(entitlement.LeaveRequest{
		ID: "r3", UserID: "u1", LeaveTypeID: "unpaid", Status: entitlement.StatusApproved,
		StartDate: date(2024, time.May, 6), EndDate: datePtr(date(2024, time.May, 10)),
	})
	// Rejected never counts
	mem.PutRequest(entitlement.LeaveRequest{
		ID: "r4", UserID: "u1", LeaveTypeID: "annual", Status: entitlement.StatusRejected,
		StartDate: date(2024, time.February, 5), EndDate: datePtr(date(2024, time.February, 9)),
	})

	b1, _ := entitlement.NewBonusGrant("b1", "u1", 2024,
		decimal.NewFromInt(2), decimal.NewFromInt(1), "on-call", "admin")
	b2, _ := entitlement.NewBonusGrant("b2", "u1", 2024,
		decimal.NewFromInt(3), decimal.Zero, "relocation", "admin")
	mem.PutBonus(b1)
	mem.PutBonus(b2)

	bal, err := engine.Balance(context.Background(), "u1", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if bal.TotalQuota != 18 {
		t.Errorf("expected quota 18, got %d", bal.TotalQuota)
	}
	if bal.EmploymentYear != 4 {
		t.Errorf("expected employment year 4, got %d", bal.EmploymentYear)
	}
	wantDays(t, bal.UsedDays, 5)
	wantDays(t, bal.PendingDays, 0.5)
	wantDays(t, bal.RemainingDays, 12.5)
	wantDays(t, bal.AvailableDays, 12.5)
	wantDays(t, bal.BonusGranted, 5)
	wantDays(t, bal.BonusUsed, 1)
	wantDays(t, bal.BonusRemaining, 4)
}

func TestBalance_Idempotent(t *testing.T) {
	// Two identical calls must produce identical results; the calculation
	// reads but never writes.

	mem, engine := newFixture()
	engine.WithNow(fixedNow(date(2024, time.June, 15)))

	start := date(2022, time.January, 10)
	mem.PutUser(entitlement.User{ID: "u1", StartDate: &start})
	mem.PutRequest(entitlement.LeaveRequest{
		ID: "r1", UserID: "u1", LeaveTypeID: "annual", Status: entitlement.StatusApproved,
		StartDate: date(2024, time.February, 5), EndDate: datePtr(date(2024, time.February, 9)),
	})

	first, err := engine.Balance(context.Background(), "u1", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := engine.Balance(context.Background(), "u1", 2024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !first.UsedDays.Equal(second.UsedDays) || !first.RemainingDays.Equal(second.RemainingDays) {
		t.Errorf("balance not idempotent: %+v vs %+v", first, second)
	}
}

func TestBalance_PastYear_EvaluatedAtYearEnd(t *testing.T) {
	// GIVEN: A user who started 2023-10-01, today in 2024
	// WHEN: Computing the 2023 balance
	// THEN: The entitlement reference is 2023-12-31, so the onboarding
	//       proration (12 - 10 + 1 = 3) applies, not the 2024 quota

	mem, engine := newFixture()
	engine.WithNow(fixedNow(date(2024, time.June, 15)))

	start := date(2023, time.October, 1)
	mem.PutUser(entitlement.User{ID: "u1", StartDate: &start})

	bal, err := engine.Balance(context.Background(), "u1", 2023)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bal.TotalQuota != 3 {
		t.Errorf("expected prorated quota 3, got %d", bal.TotalQuota)
	}
	if !bal.IsOnboardingYear {
		t.Error("expected onboarding year")
	}
}

// =============================================================================
// EFFECTIVE TENURE (ENGINE) TESTS
// =============================================================================

func TestEffectiveTenure_ThroughStore(t *testing.T) {
	mem, engine := newFixture()
	start := date(2020, time.January, 15)
	mem.PutUser(entitlement.User{ID: "u1", StartDate: &start})
	mem.PutAbsence(userAbsence(t, "u1", date(2021, time.March, 1), date(2021, time.May, 15)))
	// A future absence relative to the target must be excluded by the store
	mem.PutAbsence(userAbsence(t, "u1", date(2024, time.June, 1), date(2024, time.September, 1)))

	got, err := engine.EffectiveTenure(context.Background(), "u1", date(2024, time.January, 15))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := entitlement.ServiceDuration{Years: 3, Months: 9, Days: 20}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}
