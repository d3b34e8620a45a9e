/*
store.go - Read interface the engine consumes

PURPOSE:
  The engine is a stateless read path: every calculation re-derives its
  result from persisted data through this interface. No ambient database
  handles, no caching, no memoization across calls.

IMPLEMENTATIONS:
  - store/sqlite: production SQLite store (also carries the write surface)
  - entitlement/store: in-memory store for tests and demos

CONTRACT NOTES:
  CompletedAbsences pre-filters on end_date <= until; the engine still
  re-checks qualification per absence, so a store returning extra rows is
  harmless, just wasteful.
*/
package entitlement

import (
	"context"

	"github.com/shopspring/decimal"
)

// Store is the persistence read surface for entitlement and balance
// calculations.
type Store interface {
	// GetUser returns the user or nil when no such user exists.
	GetUser(ctx context.Context, id string) (*User, error)

	// CompletedAbsences returns the user's extended absences with
	// end_date <= until, ordered by start_date.
	CompletedAbsences(ctx context.Context, userID string, until Date) ([]ExtendedAbsence, error)

	// PaidRequestsInYear returns the user's leave requests whose start_date
	// falls inside the calendar year and whose leave type is paid. Unpaid
	// types never consume quota, so they are filtered at the source.
	PaidRequestsInYear(ctx context.Context, userID string, year int) ([]LeaveRequest, error)

	// BonusTotals sums days_granted and days_used across the user's bonus
	// grants for the year. Zero/zero when there are none.
	BonusTotals(ctx context.Context, userID string, year int) (granted, used decimal.Decimal, err error)
}
