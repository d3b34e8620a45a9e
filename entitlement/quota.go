package entitlement

// =============================================================================
// QUOTA RESOLVER - Tenure tiers and onboarding proration
// =============================================================================

// QuotaTier maps a minimum effective employment year to an annual quota.
// The table is ordered by MinYear descending so lookup takes the first tier
// the year reaches; the top tier clamps everything above it. Kept as data
// rather than branching so tenure rules can move to configuration later.
type QuotaTier struct {
	MinYear int
	Quota   int
}

var quotaTiers = []QuotaTier{
	{MinYear: 5, Quota: 22},
	{MinYear: 4, Quota: 18},
	{MinYear: 3, Quota: 15},
	{MinYear: 2, Quota: 13},
	{MinYear: 1, Quota: 12},
}

// defaultOnboardingQuota is both the year-1 tier value and the flat fallback
// when no start date is recorded.
const defaultOnboardingQuota = 12

// QuotaForYear returns the base annual quota for an effective employment
// year. Years below 1 fall back to the onboarding default.
func QuotaForYear(effectiveYear int) int {
	for _, tier := range quotaTiers {
		if effectiveYear >= tier.MinYear {
			return tier.Quota
		}
	}
	return defaultOnboardingQuota
}

// ProratedOnboardingQuota computes the first-year quota from the effective
// start month: max(1, 12 - startMonth + 1).
//
// The formula stays anchored to the start month even when the target date has
// rolled into the next calendar year; only once twelve or more months have
// elapsed has the onboarding window truly ended, and the year-2 tier applies.
func ProratedOnboardingQuota(effectiveStart, target Date) int {
	if MonthsBetween(effectiveStart, target) >= 12 {
		return QuotaForYear(2)
	}

	quota := 12 - int(effectiveStart.Month()) + 1
	if quota < 1 {
		quota = 1
	}
	return quota
}
