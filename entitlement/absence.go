package entitlement

// =============================================================================
// ABSENCE QUALIFIER - Which absences count against tenure
// =============================================================================

// tenureThresholdDays is the hard cutoff: an absence must exceed 30 days to
// affect tenure. Exactly 30 never qualifies; there is no partial credit.
const tenureThresholdDays = 30

// AffectsTenure reports whether the absence should be subtracted from tenure
// as of the reference date.
//
// Two conditions, both required:
//  1. Completed: an absence still running at the reference date never
//     retroactively affects tenure until it ends.
//  2. Extended: inclusive duration strictly greater than 30 days.
func (a ExtendedAbsence) AffectsTenure(ref Date) bool {
	if a.EndDate.After(ref) {
		return false
	}
	return a.DurationDays() > tenureThresholdDays
}

// OverlapDays returns the inclusive day count of the absence clipped to the
// employment window [employmentStart, target]. Portions outside the window
// do not count. Zero when the clipped window is empty.
func (a ExtendedAbsence) OverlapDays(employmentStart, target Date) int {
	overlapStart := a.StartDate.Later(employmentStart)
	overlapEnd := a.EndDate.Earlier(target)
	if overlapStart.After(overlapEnd) {
		return 0
	}
	return DaysBetween(overlapStart, overlapEnd) + 1
}

// QualifyingAbsenceDays sums the clipped overlap of every absence that
// passes AffectsTenure. This is the single number that delays anniversaries
// and shrinks effective tenure.
func QualifyingAbsenceDays(employmentStart Date, absences []ExtendedAbsence, target Date) int {
	total := 0
	for _, a := range absences {
		if !a.AffectsTenure(target) {
			continue
		}
		total += a.OverlapDays(employmentStart, target)
	}
	return total
}
