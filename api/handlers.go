/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the entitlement engine and the admin write surface via REST.
  Handles HTTP request/response, JSON serialization, and delegates to the
  engine and store.

ENDPOINTS:
  Users:
    GET    /api/users                     List users
    POST   /api/users                     Create user
    GET    /api/users/{id}                Get user
    GET    /api/users/{id}/entitlement    Quota picture (?as_of=YYYY-MM-DD)
    GET    /api/users/{id}/balance        Year balance (?year=YYYY)

  Absences (admin):
    GET    /api/users/{id}/absences       List extended absences
    POST   /api/users/{id}/absences       Record extended absence
    DELETE /api/absences/{id}             Delete absence

  Requests:
    GET    /api/users/{id}/requests       List requests
    POST   /api/users/{id}/requests       Submit request (status: pending)
    POST   /api/requests/{id}/approve     Approve (pending only)
    POST   /api/requests/{id}/reject      Reject (pending only)
    POST   /api/requests/{id}/cancel      Cancel (pending only)

  Bonus leave (admin):
    GET    /api/users/{id}/bonus          List grants (?year=YYYY)
    POST   /api/users/{id}/bonus          Grant bonus leave
    DELETE /api/bonus/{id}                Delete grant

  Leave types:
    GET    /api/leave-types               List leave types

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, invalid input
  - 404: Resource not found
  - 409: Conflict (request no longer pending)
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/warp/leave-engine/entitlement"
	"github.com/warp/leave-engine/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store    *sqlite.Store
	Engine   *entitlement.Engine
	Notifier Notifier
	Log      *logrus.Logger
}

// NewHandler creates a handler over the given store.
func NewHandler(store *sqlite.Store, log *logrus.Logger) *Handler {
	return &Handler{
		Store:    store,
		Engine:   entitlement.NewEngine(store),
		Notifier: &LogNotifier{Log: log},
		Log:      log,
	}
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// ListUsers returns all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}

	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUser returns a single user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		h.writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// CreateUser creates a new user. The start date may be null.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		h.writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	user := entitlement.User{ID: req.ID, Name: req.Name, Email: req.Email}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if req.StartDate != nil {
		d, err := entitlement.ParseDate(*req.StartDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
			return
		}
		user.StartDate = &d
	}

	if err := h.Store.SaveUser(r.Context(), user); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserDTO(user))
}

// =============================================================================
// ENTITLEMENT & BALANCE HANDLERS
// =============================================================================

// GetEntitlement returns the complete quota picture for a user.
// GET /api/users/{id}/entitlement?as_of=YYYY-MM-DD (default today)
func (h *Handler) GetEntitlement(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	asOf := entitlement.Today()
	if v := r.URL.Query().Get("as_of"); v != "" {
		d, err := entitlement.ParseDate(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid as_of format (use YYYY-MM-DD)", err)
			return
		}
		asOf = d
	}

	ent, err := h.Engine.Entitlement(r.Context(), userID, asOf)
	if errors.Is(err, entitlement.ErrUserNotFound) {
		h.writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to calculate entitlement", err)
		return
	}
	writeJSON(w, http.StatusOK, toEntitlementDTO(userID, asOf, ent))
}

// GetBalance returns the leave balance for a user and year.
// GET /api/users/{id}/balance?year=YYYY (default current year)
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	year := entitlement.Today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	balance, err := h.Engine.Balance(r.Context(), userID, year)
	if errors.Is(err, entitlement.ErrUserNotFound) {
		h.writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to calculate balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(userID, year, balance))
}

// =============================================================================
// EXTENDED ABSENCE HANDLERS (admin)
// =============================================================================

// ListAbsences returns all extended absences for a user.
func (h *Handler) ListAbsences(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	absences, err := h.Store.ListAbsences(r.Context(), userID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list absences", err)
		return
	}

	dtos := make([]AbsenceDTO, len(absences))
	for i, a := range absences {
		dtos[i] = toAbsenceDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreateAbsence records an extended absence for a user.
func (h *Handler) CreateAbsence(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req CreateAbsenceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	start, err := entitlement.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := entitlement.ParseDate(req.EndDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	absence, err := entitlement.NewExtendedAbsence(uuid.NewString(), userID, start, end, req.Reason)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid absence", err)
		return
	}

	if err := h.Store.SaveAbsence(r.Context(), absence); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save absence", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAbsenceDTO(absence))
}

// DeleteAbsence removes an extended absence.
func (h *Handler) DeleteAbsence(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteAbsence(r.Context(), id); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete absence", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// ListRequests returns all requests for a user.
func (h *Handler) ListRequests(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	requests, err := h.Store.ListRequests(r.Context(), userID)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list requests", err)
		return
	}

	dtos := make([]LeaveRequestDTO, len(requests))
	for i, req := range requests {
		dtos[i] = toRequestDTO(req)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SubmitRequest creates a pending leave request.
func (h *Handler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.LeaveTypeID == "" {
		h.writeError(w, http.StatusBadRequest, "leave_type_id is required", nil)
		return
	}

	start, err := entitlement.ParseDate(req.StartDate)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}

	leave := entitlement.LeaveRequest{
		ID:          uuid.NewString(),
		UserID:      userID,
		LeaveTypeID: req.LeaveTypeID,
		Status:      entitlement.StatusPending,
		StartDate:   start,
		HalfDay:     req.IsHalfDay,
		Reason:      req.Reason,
	}
	if req.EndDate != nil {
		end, err := entitlement.ParseDate(*req.EndDate)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
			return
		}
		leave.EndDate = &end
	}

	if err := h.Store.SaveRequest(r.Context(), leave); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save request", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRequestDTO(leave))
}

// ApproveRequest approves a pending request.
func (h *Handler) ApproveRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entitlement.StatusApproved)
}

// RejectRequest rejects a pending request.
func (h *Handler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entitlement.StatusRejected)
}

// CancelRequest cancels a pending request.
func (h *Handler) CancelRequest(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, entitlement.StatusCanceled)
}

// transition performs a guarded status change and fires the notifier.
// The store rejects transitions from any state but pending, so racing
// approve/cancel calls resolve to exactly one winner.
func (h *Handler) transition(w http.ResponseWriter, r *http.Request, to entitlement.RequestStatus) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	err := h.Store.TransitionRequest(ctx, id, to)
	if errors.Is(err, entitlement.ErrInvalidStatus) {
		h.writeError(w, http.StatusConflict, "Request is no longer pending", err)
		return
	}
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to update request", err)
		return
	}

	updated, err := h.Store.GetRequest(ctx, id)
	if err != nil || updated == nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to load updated request", err)
		return
	}

	h.Notifier.RequestStatusChanged(ctx, *updated)
	writeJSON(w, http.StatusOK, toRequestDTO(*updated))
}

// =============================================================================
// BONUS LEAVE HANDLERS (admin)
// =============================================================================

// ListBonusGrants returns a user's bonus grants for a year.
func (h *Handler) ListBonusGrants(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	year := entitlement.Today().Year()
	if v := r.URL.Query().Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, "Invalid year", err)
			return
		}
		year = y
	}

	grants, err := h.Store.ListBonusGrants(r.Context(), userID, year)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list bonus grants", err)
		return
	}

	dtos := make([]BonusGrantDTO, len(grants))
	for i, b := range grants {
		dtos[i] = toBonusDTO(b)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GrantBonus creates a bonus leave grant.
func (h *Handler) GrantBonus(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req GrantBonusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	grant, err := entitlement.NewBonusGrant(
		uuid.NewString(), userID, req.Year,
		decimal.NewFromFloat(req.DaysGranted), decimal.Zero,
		req.Reason, req.GrantedBy,
	)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid bonus grant", err)
		return
	}

	if err := h.Store.SaveBonusGrant(r.Context(), grant); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to save bonus grant", err)
		return
	}
	writeJSON(w, http.StatusCreated, toBonusDTO(grant))
}

// DeleteBonusGrant removes a bonus grant.
func (h *Handler) DeleteBonusGrant(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteBonusGrant(r.Context(), id); err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to delete bonus grant", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

// ListLeaveTypes returns all leave types.
func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Store.ListLeaveTypes(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = LeaveTypeDTO{ID: lt.ID, Name: lt.Name, IsPaid: lt.IsPaid}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
		h.Log.WithError(err).Warn(message)
	}
	writeJSON(w, status, resp)
}
