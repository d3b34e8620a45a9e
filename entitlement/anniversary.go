package entitlement

// =============================================================================
// ANNIVERSARY & EFFECTIVE START DATE - Display/proration derivations
// =============================================================================
//
// Both derivations recover the total absence-day shift by comparing actual
// elapsed days against the effective days encoded in the tenure duration,
// using the same 365/30 approximation the tenure calculator used. They feed
// proration and UI explanations; quota correctness does not hinge on them.
//
// The reference date is threaded explicitly; nothing here reads the wall
// clock.

// AbsenceShiftDays recovers the number of days tenure was pushed back by
// absences, as of the given date.
func AbsenceShiftDays(originalStart Date, tenure ServiceDuration, asOf Date) int {
	actual := DaysBetween(originalStart, asOf)
	shift := actual - tenure.TotalDays()
	if shift < 0 {
		shift = 0
	}
	return shift
}

// WorkingAnniversary is the original start-date anniversary shifted forward
// by total qualifying absence days.
func WorkingAnniversary(originalStart Date, tenure ServiceDuration, asOf Date) Date {
	return originalStart.AddYears(1).AddDays(AbsenceShiftDays(originalStart, tenure, asOf))
}

// EffectiveStartDate is the original start date shifted forward by total
// qualifying absence days. Onboarding proration anchors to this date's month.
func EffectiveStartDate(originalStart Date, tenure ServiceDuration, asOf Date) Date {
	return originalStart.AddDays(AbsenceShiftDays(originalStart, tenure, asOf))
}
