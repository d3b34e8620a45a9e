/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupling the internal domain
  model from the external contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.
*/
package api

import (
	"github.com/shopspring/decimal"
	"github.com/warp/leave-engine/entitlement"
)

// =============================================================================
// REQUEST/RESPONSE TYPES
// =============================================================================

// UserDTO represents a user in API responses.
type UserDTO struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	StartDate *string `json:"start_date"`
}

// CreateUserRequest is the request to create a user.
// StartDate is nullable: users without one get the flat onboarding quota.
type CreateUserRequest struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name"`
	Email     string  `json:"email,omitempty"`
	StartDate *string `json:"start_date"`
}

// LeaveTypeDTO represents a leave type.
type LeaveTypeDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	IsPaid bool   `json:"is_paid"`
}

// AbsenceDTO represents an extended absence.
type AbsenceDTO struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	DurationDays int    `json:"duration_days"`
	Reason       string `json:"reason,omitempty"`
}

// CreateAbsenceRequest is the request to record an extended absence.
type CreateAbsenceRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason,omitempty"`
}

// LeaveRequestDTO represents a leave request.
type LeaveRequestDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	LeaveTypeID string  `json:"leave_type_id"`
	Status      string  `json:"status"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	IsHalfDay   bool    `json:"is_half_day"`
	WorkingDays float64 `json:"working_days"`
	Reason      string  `json:"reason,omitempty"`
}

// SubmitRequestRequest is the request body to submit a leave request.
type SubmitRequestRequest struct {
	LeaveTypeID string  `json:"leave_type_id"`
	StartDate   string  `json:"start_date"`
	EndDate     *string `json:"end_date,omitempty"`
	IsHalfDay   bool    `json:"is_half_day"`
	Reason      string  `json:"reason,omitempty"`
}

// GrantBonusRequest is the request to grant bonus leave.
type GrantBonusRequest struct {
	Year        int     `json:"year"`
	DaysGranted float64 `json:"days_granted"`
	Reason      string  `json:"reason,omitempty"`
	GrantedBy   string  `json:"granted_by,omitempty"`
}

// BonusGrantDTO represents a bonus grant.
type BonusGrantDTO struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Year        int     `json:"year"`
	DaysGranted float64 `json:"days_granted"`
	DaysUsed    float64 `json:"days_used"`
	Reason      string  `json:"reason,omitempty"`
	GrantedBy   string  `json:"granted_by,omitempty"`
}

// AbsenceImpactDTO summarizes how absences affected the entitlement.
type AbsenceImpactDTO struct {
	TotalAbsenceDays int    `json:"total_absence_days"`
	AnniversaryDelay int    `json:"anniversary_delay"`
	TenureReduction  string `json:"tenure_reduction"`
}

// EntitlementDTO represents the full quota picture for a user at a date.
// Both the original and the effective employment year are reported.
type EntitlementDTO struct {
	UserID                  string           `json:"user_id"`
	AsOf                    string           `json:"as_of"`
	OriginalStartDate       *string          `json:"original_start_date"`
	EffectiveStartDate      *string          `json:"effective_start_date"`
	WorkingAnniversary      *string          `json:"working_anniversary"`
	EmploymentYear          int              `json:"employment_year"`
	EffectiveEmploymentYear int              `json:"effective_employment_year"`
	IsOnboardingYear        bool             `json:"is_onboarding_year"`
	TotalQuota              int              `json:"total_quota"`
	ProratedQuota           *int             `json:"prorated_quota,omitempty"`
	AbsenceImpact           AbsenceImpactDTO `json:"extended_absence_impact"`
}

// BalanceDTO represents quota usage for a year.
type BalanceDTO struct {
	UserID           string  `json:"user_id"`
	Year             int     `json:"year"`
	TotalQuota       int     `json:"total_quota"`
	UsedDays         float64 `json:"used_days"`
	RemainingDays    float64 `json:"remaining_days"`
	PendingDays      float64 `json:"pending_days"`
	AvailableDays    float64 `json:"available_days"`
	EmploymentYear   int     `json:"employment_year"`
	IsOnboardingYear bool    `json:"is_onboarding_year"`
	BonusGranted     float64 `json:"bonus_granted"`
	BonusUsed        float64 `json:"bonus_used"`
	BonusRemaining   float64 `json:"bonus_remaining"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u entitlement.User) UserDTO {
	return UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		StartDate: dateStrPtr(u.StartDate),
	}
}

func toAbsenceDTO(a entitlement.ExtendedAbsence) AbsenceDTO {
	return AbsenceDTO{
		ID:           a.ID,
		UserID:       a.UserID,
		StartDate:    a.StartDate.String(),
		EndDate:      a.EndDate.String(),
		DurationDays: a.DurationDays(),
		Reason:       a.Reason,
	}
}

func toRequestDTO(r entitlement.LeaveRequest) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:          r.ID,
		UserID:      r.UserID,
		LeaveTypeID: r.LeaveTypeID,
		Status:      string(r.Status),
		StartDate:   r.StartDate.String(),
		IsHalfDay:   r.HalfDay,
		WorkingDays: toFloat(entitlement.RequestWorkingDays(r)),
		Reason:      r.Reason,
	}
	if r.EndDate != nil {
		v := r.EndDate.String()
		dto.EndDate = &v
	}
	return dto
}

func toBonusDTO(b entitlement.BonusGrant) BonusGrantDTO {
	return BonusGrantDTO{
		ID:          b.ID,
		UserID:      b.UserID,
		Year:        b.Year,
		DaysGranted: toFloat(b.DaysGranted),
		DaysUsed:    toFloat(b.DaysUsed),
		Reason:      b.Reason,
		GrantedBy:   b.GrantedBy,
	}
}

func toEntitlementDTO(userID string, asOf entitlement.Date, e entitlement.Entitlement) EntitlementDTO {
	return EntitlementDTO{
		UserID:                  userID,
		AsOf:                    asOf.String(),
		OriginalStartDate:       dateStrPtr(e.OriginalStartDate),
		EffectiveStartDate:      dateStrPtr(e.EffectiveStartDate),
		WorkingAnniversary:      dateStrPtr(e.WorkingAnniversary),
		EmploymentYear:          e.EmploymentYear,
		EffectiveEmploymentYear: e.EffectiveEmploymentYear,
		IsOnboardingYear:        e.IsOnboardingYear,
		TotalQuota:              e.TotalQuota,
		ProratedQuota:           e.ProratedQuota,
		AbsenceImpact: AbsenceImpactDTO{
			TotalAbsenceDays: e.AbsenceImpact.TotalAbsenceDays,
			AnniversaryDelay: e.AbsenceImpact.AnniversaryDelay,
			TenureReduction:  e.AbsenceImpact.TenureReduction,
		},
	}
}

func toBalanceDTO(userID string, year int, b entitlement.Balance) BalanceDTO {
	return BalanceDTO{
		UserID:           userID,
		Year:             year,
		TotalQuota:       b.TotalQuota,
		UsedDays:         toFloat(b.UsedDays),
		RemainingDays:    toFloat(b.RemainingDays),
		PendingDays:      toFloat(b.PendingDays),
		AvailableDays:    toFloat(b.AvailableDays),
		EmploymentYear:   b.EmploymentYear,
		IsOnboardingYear: b.IsOnboardingYear,
		BonusGranted:     toFloat(b.BonusGranted),
		BonusUsed:        toFloat(b.BonusUsed),
		BonusRemaining:   toFloat(b.BonusRemaining),
	}
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}

func dateStrPtr(d *entitlement.Date) *string {
	if d == nil {
		return nil
	}
	v := d.String()
	return &v
}
