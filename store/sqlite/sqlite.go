/*
Package sqlite provides the SQLite-backed store for the leave engine.

PURPOSE:
  Implements entitlement.Store (the engine's read surface) plus the admin
  write surface: users, leave types, extended absences, leave requests with
  guarded status transitions, and bonus leave grants. The same patterns
  apply to PostgreSQL with only dialect differences.

KEY TABLES:
  users:              id, nullable start_date
  leave_types:        paid/unpaid classification
  extended_absences:  admin-managed absence periods (read-only to the engine)
  leave_requests:     date range, half-day flag, status lifecycle
  bonus_leave_grants: per-year bonus days, granted/used

STATUS TRANSITIONS:
  Approve/reject/cancel are single-row guarded updates
  (WHERE status = 'pending'), so two actors racing on the same request
  cannot both win. The loser gets entitlement.ErrInvalidStatus.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite WAL mode. With
  PostgreSQL the database's own concurrency control would replace this.

USAGE:
  store, err := sqlite.New("./data/leave.db")   // ":memory:" for tests
  engine := entitlement.NewEngine(store)

SEE ALSO:
  - entitlement/store.go: the read interface definition
  - entitlement/store/memory.go: in-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/entitlement"
)

// Store implements the engine's read interface and the admin write surface.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ entitlement.Store = (*Store)(nil)

// New opens (or creates) the database and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT,
		start_date TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS leave_types (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		is_paid BOOLEAN NOT NULL DEFAULT TRUE
	);

	CREATE TABLE IF NOT EXISTS extended_absences (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL,
		CHECK (end_date >= start_date)
	);

	CREATE INDEX IF NOT EXISTS idx_absences_user_end
		ON extended_absences(user_id, end_date);

	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		leave_type_id TEXT NOT NULL REFERENCES leave_types(id),
		status TEXT NOT NULL DEFAULT 'pending',
		start_date TEXT NOT NULL,
		end_date TEXT,
		is_half_day BOOLEAN NOT NULL DEFAULT FALSE,
		reason TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Balance calculation hot path: requests by user and year
	CREATE INDEX IF NOT EXISTS idx_requests_user_start
		ON leave_requests(user_id, start_date);
	CREATE INDEX IF NOT EXISTS idx_requests_status
		ON leave_requests(status);

	CREATE TABLE IF NOT EXISTS bonus_leave_grants (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id),
		year INTEGER NOT NULL,
		days_granted TEXT NOT NULL,
		days_used TEXT NOT NULL DEFAULT '0',
		reason TEXT,
		granted_by TEXT,
		created_at TEXT NOT NULL,
		CHECK (CAST(days_used AS REAL) <= CAST(days_granted AS REAL))
	);

	CREATE INDEX IF NOT EXISTS idx_bonus_user_year
		ON bonus_leave_grants(user_id, year);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// ENGINE READ SURFACE (entitlement.Store)
// =============================================================================

// GetUser returns the user or nil when not found.
func (s *Store) GetUser(ctx context.Context, id string) (*entitlement.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		u         entitlement.User
		email     sql.NullString
		startDate sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, email, start_date FROM users WHERE id = ?", id,
	).Scan(&u.ID, &u.Name, &email, &startDate)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	u.Email = email.String
	if startDate.Valid {
		d, err := entitlement.ParseDate(startDate.String)
		if err != nil {
			return nil, fmt.Errorf("corrupt start_date for user %s: %w", id, err)
		}
		u.StartDate = &d
	}
	return &u, nil
}

// CompletedAbsences returns absences with end_date <= until.
func (s *Store) CompletedAbsences(ctx context.Context, userID string, until entitlement.Date) ([]entitlement.ExtendedAbsence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, start_date, end_date, reason
		FROM extended_absences
		WHERE user_id = ? AND end_date <= ?
		ORDER BY start_date ASC
	`
	return s.queryAbsences(ctx, query, userID, until.String())
}

// PaidRequestsInYear returns the user's requests starting inside the year
// whose leave type is paid.
func (s *Store) PaidRequestsInYear(ctx context.Context, userID string, year int) ([]entitlement.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT r.id, r.user_id, r.leave_type_id, r.status, r.start_date, r.end_date, r.is_half_day, r.reason
		FROM leave_requests r
		JOIN leave_types t ON t.id = r.leave_type_id
		WHERE r.user_id = ? AND t.is_paid = TRUE
		  AND r.start_date >= ? AND r.start_date <= ?
		ORDER BY r.start_date ASC
	`
	return s.queryRequests(ctx, query, userID,
		entitlement.StartOfYear(year).String(), entitlement.EndOfYear(year).String())
}

// BonusTotals sums bonus grants for the year.
func (s *Store) BonusTotals(ctx context.Context, userID string, year int) (decimal.Decimal, decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT days_granted, days_used FROM bonus_leave_grants WHERE user_id = ? AND year = ?",
		userID, year,
	)
	if err != nil {
		return decimal.Zero, decimal.Zero, err
	}
	defer rows.Close()

	granted := decimal.Zero
	used := decimal.Zero
	for rows.Next() {
		var g, u string
		if err := rows.Scan(&g, &u); err != nil {
			return decimal.Zero, decimal.Zero, err
		}
		granted = granted.Add(mustDecimal(g))
		used = used.Add(mustDecimal(u))
	}
	return granted, used, rows.Err()
}

// =============================================================================
// USER STORE
// =============================================================================

// SaveUser inserts or updates a user.
func (s *Store) SaveUser(ctx context.Context, u entitlement.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO users (id, name, email, start_date, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			email = excluded.email,
			start_date = excluded.start_date
	`

	var startDate *string
	if u.StartDate != nil {
		v := u.StartDate.String()
		startDate = &v
	}

	_, err := s.db.ExecContext(ctx, query,
		u.ID, u.Name, nullString(u.Email), startDate,
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]entitlement.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, email, start_date FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []entitlement.User
	for rows.Next() {
		var (
			u         entitlement.User
			email     sql.NullString
			startDate sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Name, &email, &startDate); err != nil {
			return nil, err
		}
		u.Email = email.String
		if startDate.Valid {
			d, err := entitlement.ParseDate(startDate.String)
			if err != nil {
				return nil, err
			}
			u.StartDate = &d
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// =============================================================================
// LEAVE TYPE STORE
// =============================================================================

// SaveLeaveType inserts or updates a leave type.
func (s *Store) SaveLeaveType(ctx context.Context, lt entitlement.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO leave_types (id, name, is_paid)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			is_paid = excluded.is_paid
	`
	_, err := s.db.ExecContext(ctx, query, lt.ID, lt.Name, lt.IsPaid)
	return err
}

// ListLeaveTypes returns all leave types ordered by name.
func (s *Store) ListLeaveTypes(ctx context.Context) ([]entitlement.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, is_paid FROM leave_types ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var types []entitlement.LeaveType
	for rows.Next() {
		var lt entitlement.LeaveType
		if err := rows.Scan(&lt.ID, &lt.Name, &lt.IsPaid); err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

// =============================================================================
// EXTENDED ABSENCE STORE
// =============================================================================

// SaveAbsence inserts or updates an extended absence.
func (s *Store) SaveAbsence(ctx context.Context, a entitlement.ExtendedAbsence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO extended_absences (id, user_id, start_date, end_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			start_date = excluded.start_date,
			end_date = excluded.end_date,
			reason = excluded.reason
	`
	_, err := s.db.ExecContext(ctx, query,
		a.ID, a.UserID, a.StartDate.String(), a.EndDate.String(),
		nullString(a.Reason), time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListAbsences returns all extended absences for a user.
func (s *Store) ListAbsences(ctx context.Context, userID string) ([]entitlement.ExtendedAbsence, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, start_date, end_date, reason
		FROM extended_absences
		WHERE user_id = ?
		ORDER BY start_date ASC
	`
	return s.queryAbsences(ctx, query, userID)
}

// DeleteAbsence removes an extended absence.
func (s *Store) DeleteAbsence(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM extended_absences WHERE id = ?", id)
	return err
}

func (s *Store) queryAbsences(ctx context.Context, query string, args ...any) ([]entitlement.ExtendedAbsence, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var absences []entitlement.ExtendedAbsence
	for rows.Next() {
		var (
			a          entitlement.ExtendedAbsence
			start, end string
			reason     sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.UserID, &start, &end, &reason); err != nil {
			return nil, err
		}
		if a.StartDate, err = entitlement.ParseDate(start); err != nil {
			return nil, err
		}
		if a.EndDate, err = entitlement.ParseDate(end); err != nil {
			return nil, err
		}
		a.Reason = reason.String
		absences = append(absences, a)
	}
	return absences, rows.Err()
}

// =============================================================================
// LEAVE REQUEST STORE
// =============================================================================

// SaveRequest inserts a new leave request.
func (s *Store) SaveRequest(ctx context.Context, r entitlement.LeaveRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var endDate *string
	if r.EndDate != nil {
		v := r.EndDate.String()
		endDate = &v
	}

	now := time.Now().UTC().Format(time.RFC3339)
	query := `
		INSERT INTO leave_requests
		(id, user_id, leave_type_id, status, start_date, end_date, is_half_day, reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.UserID, r.LeaveTypeID, string(r.Status),
		r.StartDate.String(), endDate, r.HalfDay, nullString(r.Reason),
		now, now,
	)
	return err
}

// GetRequest returns a request or nil when not found.
func (s *Store) GetRequest(ctx context.Context, id string) (*entitlement.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, leave_type_id, status, start_date, end_date, is_half_day, reason
		FROM leave_requests WHERE id = ?
	`
	requests, err := s.queryRequests(ctx, query, id)
	if err != nil {
		return nil, err
	}
	if len(requests) == 0 {
		return nil, nil
	}
	return &requests[0], nil
}

// ListRequests returns all requests for a user, newest first.
func (s *Store) ListRequests(ctx context.Context, userID string) ([]entitlement.LeaveRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT id, user_id, leave_type_id, status, start_date, end_date, is_half_day, reason
		FROM leave_requests
		WHERE user_id = ?
		ORDER BY start_date DESC
	`
	return s.queryRequests(ctx, query, userID)
}

// TransitionRequest moves a pending request to the given status. The update
// is guarded on the current status so racing approve/cancel calls cannot
// both succeed; the loser gets entitlement.ErrInvalidStatus.
func (s *Store) TransitionRequest(ctx context.Context, id string, to entitlement.RequestStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"UPDATE leave_requests SET status = ?, updated_at = ? WHERE id = ? AND status = 'pending'",
		string(to), time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("%w: request %s is not pending", entitlement.ErrInvalidStatus, id)
	}
	return nil
}

func (s *Store) queryRequests(ctx context.Context, query string, args ...any) ([]entitlement.LeaveRequest, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []entitlement.LeaveRequest
	for rows.Next() {
		var (
			r           entitlement.LeaveRequest
			status      string
			start       string
			end, reason sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.UserID, &r.LeaveTypeID, &status, &start, &end, &r.HalfDay, &reason); err != nil {
			return nil, err
		}
		r.Status = entitlement.RequestStatus(status)
		if r.StartDate, err = entitlement.ParseDate(start); err != nil {
			return nil, err
		}
		if end.Valid {
			d, err := entitlement.ParseDate(end.String)
			if err != nil {
				return nil, err
			}
			r.EndDate = &d
		}
		r.Reason = reason.String
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// =============================================================================
// BONUS GRANT STORE
// =============================================================================

// SaveBonusGrant inserts a bonus grant.
func (s *Store) SaveBonusGrant(ctx context.Context, b entitlement.BonusGrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO bonus_leave_grants
		(id, user_id, year, days_granted, days_used, reason, granted_by, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		b.ID, b.UserID, b.Year,
		b.DaysGranted.String(), b.DaysUsed.String(),
		nullString(b.Reason), nullString(b.GrantedBy),
		time.Now().UTC().Format(time.RFC3339),
	)
	return err
}

// ListBonusGrants returns a user's grants for a year.
func (s *Store) ListBonusGrants(ctx context.Context, userID string, year int) ([]entitlement.BonusGrant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, year, days_granted, days_used, reason, granted_by
		FROM bonus_leave_grants
		WHERE user_id = ? AND year = ?
		ORDER BY created_at ASC
	`, userID, year)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []entitlement.BonusGrant
	for rows.Next() {
		var (
			b                 entitlement.BonusGrant
			granted, used     string
			reason, grantedBy sql.NullString
		)
		if err := rows.Scan(&b.ID, &b.UserID, &b.Year, &granted, &used, &reason, &grantedBy); err != nil {
			return nil, err
		}
		b.DaysGranted = mustDecimal(granted)
		b.DaysUsed = mustDecimal(used)
		b.Reason = reason.String
		b.GrantedBy = grantedBy.String
		grants = append(grants, b)
	}
	return grants, rows.Err()
}

// DeleteBonusGrant removes a grant.
func (s *Store) DeleteBonusGrant(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM bonus_leave_grants WHERE id = ?", id)
	return err
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_requests", "bonus_leave_grants", "extended_absences", "leave_types", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func mustDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}
