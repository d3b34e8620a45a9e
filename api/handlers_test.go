package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/leave-engine/api"
	"github.com/warp/leave-engine/entitlement"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// TEST SERVER SETUP
// =============================================================================

func newTestServer(t *testing.T) (*httptest.Server, *api.Handler) {
	t.Helper()

	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	log := logrus.New()
	log.SetOutput(io.Discard)

	handler := api.NewHandler(store, log)
	server := httptest.NewServer(api.NewRouter(handler))
	t.Cleanup(server.Close)

	require.NoError(t, store.SaveLeaveType(context.Background(),
		entitlement.LeaveType{ID: "annual", Name: "Annual Leave", IsPaid: true}))

	return server, handler
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

// =============================================================================
// USER ENDPOINTS
// =============================================================================

func TestCreateUser_NullStartDate(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"name": "No Start",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	user := decode[api.UserDTO](t, resp)
	assert.NotEmpty(t, user.ID)
	assert.Nil(t, user.StartDate)

	// The entitlement still resolves: flat onboarding default
	resp = doJSON(t, http.MethodGet, server.URL+"/api/users/"+user.ID+"/entitlement", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ent := decode[api.EntitlementDTO](t, resp)
	assert.True(t, ent.IsOnboardingYear)
	assert.Equal(t, 12, ent.TotalQuota)
}

func TestCreateUser_InvalidStartDate(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"name":       "Bad Date",
		"start_date": "15/01/2020",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetEntitlement_UnknownUser(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, server.URL+"/api/users/nobody/entitlement", nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

// =============================================================================
// ENTITLEMENT ENDPOINT
// =============================================================================

func TestGetEntitlement_WithAbsence(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Long Leaver", "start_date": "2020-01-15",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/absences", map[string]any{
		"start_date": "2021-03-01",
		"end_date":   "2021-05-15",
		"reason":     "sabbatical",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.AbsenceDTO](t, resp)
	assert.Equal(t, 76, created.DurationDays)

	resp = doJSON(t, http.MethodGet,
		server.URL+"/api/users/u1/entitlement?as_of=2024-01-15", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	ent := decode[api.EntitlementDTO](t, resp)
	assert.Equal(t, 5, ent.EmploymentYear)
	assert.Equal(t, 4, ent.EffectiveEmploymentYear)
	assert.Equal(t, 18, ent.TotalQuota)
	assert.False(t, ent.IsOnboardingYear)
	require.NotNil(t, ent.WorkingAnniversary)
	assert.Equal(t, "2021-04-01", *ent.WorkingAnniversary)
	assert.Equal(t, 76, ent.AbsenceImpact.TotalAbsenceDays)
	assert.Equal(t, "2 months, 16 days", ent.AbsenceImpact.TenureReduction)
}

// =============================================================================
// BALANCE ENDPOINT
// =============================================================================

func TestGetBalance_UsedAndPending(t *testing.T) {
	server, h := newTestServer(t)
	h.Engine.WithNow(func() entitlement.Date {
		return entitlement.NewDate(2024, time.June, 15)
	})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Regular", "start_date": "2021-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Approved week: Mon Mar 4 .. Fri Mar 8
	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/requests", map[string]any{
		"leave_type_id": "annual",
		"start_date":    "2024-03-04",
		"end_date":      "2024-03-08",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	week := decode[api.LeaveRequestDTO](t, resp)
	assert.Equal(t, "pending", week.Status)
	assert.Equal(t, 5.0, week.WorkingDays)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/requests/"+week.ID+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Pending half day
	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/requests", map[string]any{
		"leave_type_id": "annual",
		"start_date":    "2024-04-02",
		"is_half_day":   true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	half := decode[api.LeaveRequestDTO](t, resp)
	assert.Equal(t, 0.5, half.WorkingDays)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/users/u1/balance?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bal := decode[api.BalanceDTO](t, resp)
	assert.Equal(t, 18, bal.TotalQuota)
	assert.Equal(t, 4, bal.EmploymentYear)
	assert.Equal(t, 5.0, bal.UsedDays)
	assert.Equal(t, 0.5, bal.PendingDays)
	assert.Equal(t, 12.5, bal.RemainingDays)
	assert.Equal(t, 12.5, bal.AvailableDays)
}

func TestGrantBonus_ShowsUpInBalance(t *testing.T) {
	server, h := newTestServer(t)
	h.Engine.WithNow(func() entitlement.Date {
		return entitlement.NewDate(2024, time.June, 15)
	})

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Regular", "start_date": "2021-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/bonus", map[string]any{
		"year":         2024,
		"days_granted": 2.5,
		"reason":       "on-call",
		"granted_by":   "admin",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, server.URL+"/api/users/u1/balance?year=2024", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	bal := decode[api.BalanceDTO](t, resp)
	assert.Equal(t, 2.5, bal.BonusGranted)
	assert.Equal(t, 0.0, bal.BonusUsed)
	assert.Equal(t, 2.5, bal.BonusRemaining)
}

func TestGrantBonus_RejectsNonPositive(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Regular",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/bonus", map[string]any{
		"year":         2024,
		"days_granted": 0,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

func TestTransition_ApproveThenCancelConflicts(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Regular", "start_date": "2021-03-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/requests", map[string]any{
		"leave_type_id": "annual",
		"start_date":    "2024-05-06",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[api.LeaveRequestDTO](t, resp)

	url := fmt.Sprintf("%s/api/requests/%s", server.URL, created.ID)

	resp = doJSON(t, http.MethodPost, url+"/approve", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decode[api.LeaveRequestDTO](t, resp)
	assert.Equal(t, "approved", approved.Status)

	// Already approved; the cancel must lose
	resp = doJSON(t, http.MethodPost, url+"/cancel", nil)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestAbsence_RejectsInvertedRange(t *testing.T) {
	server, _ := newTestServer(t)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/users", map[string]any{
		"id": "u1", "name": "Regular",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, server.URL+"/api/users/u1/absences", map[string]any{
		"start_date": "2024-03-01",
		"end_date":   "2024-02-01",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
