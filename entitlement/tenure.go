/*
tenure.go - Effective tenure after subtracting qualifying absences

CALCULATION:
  elapsed   = target - start            (day difference, NOT inclusive)
  absent    = sum of clipped qualifying absence overlaps (inclusive counts)
  effective = max(0, elapsed - absent)  -> ServiceDuration via 365/30 divisors

  The asymmetry between the elapsed difference and the inclusive absence
  counts is intentional and load-bearing; both conventions must be kept
  exactly as they are.

SEE ALSO:
  - absence.go: qualification predicate and overlap clipping
  - anniversary.go: derives shifted anniversary dates from this output
*/
package entitlement

// Tenure computes effective years/months/days of service at the target date.
//
// A nil start date means tenure was never established; the zero duration is
// returned and callers fall back to onboarding defaults.
func Tenure(start *Date, absences []ExtendedAbsence, target Date) ServiceDuration {
	if start == nil {
		return ServiceDuration{}
	}

	elapsed := DaysBetween(*start, target)
	absent := QualifyingAbsenceDays(*start, absences, target)

	effective := elapsed - absent
	if effective < 0 {
		effective = 0
	}
	return DurationFromDays(effective)
}

// employmentYearFor maps a tenure duration to a 1-based employment year.
func employmentYearFor(tenure ServiceDuration) int {
	year := tenure.Years + 1
	if year < 1 {
		year = 1
	}
	return year
}
