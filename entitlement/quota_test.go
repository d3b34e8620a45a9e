package entitlement_test

import (
	"testing"
	"time"

	"github.com/warp/leave-engine/entitlement"
)

// =============================================================================
// QUOTA RESOLVER TESTS
// =============================================================================

func TestQuotaForYear_TierTable(t *testing.T) {
	cases := []struct {
		year int
		want int
	}{
		{1, 12},
		{2, 13},
		{3, 15},
		{4, 18},
		{5, 22},
		{12, 22}, // top tier clamps
		{0, 12},  // below range falls back to onboarding default
		{-3, 12},
	}
	for _, c := range cases {
		if got := entitlement.QuotaForYear(c.year); got != c.want {
			t.Errorf("QuotaForYear(%d): expected %d, got %d", c.year, c.want, got)
		}
	}
}

func TestProratedOnboardingQuota_SameCalendarYear(t *testing.T) {
	// GIVEN: Effective start July 2024 (month 7)
	// WHEN: Prorating at September 2024
	// THEN: 12 - 7 + 1 = 6

	got := entitlement.ProratedOnboardingQuota(date(2024, time.July, 1), date(2024, time.September, 1))
	if got != 6 {
		t.Errorf("expected 6, got %d", got)
	}
}

func TestProratedOnboardingQuota_DecemberStart_FloorsAtOne(t *testing.T) {
	got := entitlement.ProratedOnboardingQuota(date(2024, time.December, 15), date(2024, time.December, 20))
	if got != 1 {
		t.Errorf("expected 1, got %d", got)
	}
}

func TestProratedOnboardingQuota_AfterRollover_StillAnchoredToStartMonth(t *testing.T) {
	// GIVEN: Effective start October 2024
	// WHEN: Prorating in February 2025 (4 months elapsed, different calendar year)
	// THEN: Still 12 - 10 + 1 = 3; the formula anchors to the start month,
	//       not to months remaining in the current year

	got := entitlement.ProratedOnboardingQuota(date(2024, time.October, 1), date(2025, time.February, 15))
	if got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}

func TestProratedOnboardingQuota_WindowEnded_YearTwoQuota(t *testing.T) {
	// GIVEN: Effective start January 2024
	// WHEN: Prorating in January 2025 (12 months elapsed)
	// THEN: The onboarding window is over; year-2 quota (13) applies

	got := entitlement.ProratedOnboardingQuota(date(2024, time.January, 10), date(2025, time.January, 20))
	if got != 13 {
		t.Errorf("expected 13, got %d", got)
	}
}
