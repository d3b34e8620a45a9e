// Package store provides an in-memory entitlement.Store for tests and demos.
package store

import (
	"context"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/entitlement"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu         sync.RWMutex
	users      map[string]entitlement.User
	leaveTypes map[string]entitlement.LeaveType
	absences   map[string][]entitlement.ExtendedAbsence
	requests   map[string][]entitlement.LeaveRequest
	bonuses    map[string][]entitlement.BonusGrant
}

var _ entitlement.Store = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		users:      make(map[string]entitlement.User),
		leaveTypes: make(map[string]entitlement.LeaveType),
		absences:   make(map[string][]entitlement.ExtendedAbsence),
		requests:   make(map[string][]entitlement.LeaveRequest),
		bonuses:    make(map[string][]entitlement.BonusGrant),
	}
}

// =============================================================================
// WRITE SURFACE - Test/demo setup
// =============================================================================

func (m *Memory) PutUser(u entitlement.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

func (m *Memory) PutLeaveType(lt entitlement.LeaveType) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveTypes[lt.ID] = lt
}

func (m *Memory) PutAbsence(a entitlement.ExtendedAbsence) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.absences[a.UserID] = append(m.absences[a.UserID], a)
}

func (m *Memory) PutRequest(r entitlement.LeaveRequest) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests[r.UserID] = append(m.requests[r.UserID], r)
}

func (m *Memory) PutBonus(b entitlement.BonusGrant) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bonuses[b.UserID] = append(m.bonuses[b.UserID], b)
}

// =============================================================================
// READ SURFACE - entitlement.Store
// =============================================================================

func (m *Memory) GetUser(_ context.Context, id string) (*entitlement.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *Memory) CompletedAbsences(_ context.Context, userID string, until entitlement.Date) ([]entitlement.ExtendedAbsence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []entitlement.ExtendedAbsence
	for _, a := range m.absences[userID] {
		if a.EndDate.BeforeOrEqual(until) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (m *Memory) PaidRequestsInYear(_ context.Context, userID string, year int) ([]entitlement.LeaveRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	from := entitlement.StartOfYear(year)
	to := entitlement.EndOfYear(year)

	var out []entitlement.LeaveRequest
	for _, r := range m.requests[userID] {
		if r.StartDate.Before(from) || r.StartDate.After(to) {
			continue
		}
		if lt, ok := m.leaveTypes[r.LeaveTypeID]; !ok || !lt.IsPaid {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) BonusTotals(_ context.Context, userID string, year int) (decimal.Decimal, decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	granted := decimal.Zero
	used := decimal.Zero
	for _, b := range m.bonuses[userID] {
		if b.Year != year {
			continue
		}
		granted = granted.Add(b.DaysGranted)
		used = used.Add(b.DaysUsed)
	}
	return granted, used, nil
}
