package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Medication struct {
	Base
	PatientID     uuid.UUID      `db:"patient_id" json:"patient_id"`
	Name          string         `db:"medication_name" json:"medication_name"`
	Dosage        string         `db:"dosage" json:"dosage"`
	Frequency     string         `db:"frequency" json:"frequency"`
	Times         pq.StringArray `db:"times" json:"times"`
	Notes         string         `db:"notes" json:"notes"`
	SideEffects   string         `db:"side_effects" json:"side_effects"`
	Storage       string         `db:"storage" json:"storage"`
	RefillDate    *time.Time     `db:"refill_date" json:"refill_date,omitempty"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	UpdatedAt     *time.Time     `db:"updated_at" json:"updated_at,omitempty"`
	DeactivatedAt *time.Time     `db:"deactivated_at" json:"deactivated_at,omitempty"`
}

type MedicationRequest struct {
	Name        string   `json:"medication_name" validate:"required"`
	Dosage      string   `json:"dosage" validate:"required"`
	Frequency   string   `json:"frequency" validate:"required"`
	Times       []string `json:"times" validate:"required,min=1,dive,hhmm"`
	Notes       string   `json:"notes"`
	SideEffects string   `json:"side_effects"`
	Storage     string   `json:"storage"`
	RefillDate  string   `json:"refill_date" validate:"isodate"`
}

// MedicationPatch is a sparse update; nil fields are left untouched.
// ClearRefillDate removes a stored refill date.
type MedicationPatch struct {
	Name            *string   `json:"medication_name" validate:"omitnil,min=1"`
	Dosage          *string   `json:"dosage" validate:"omitnil,min=1"`
	Frequency       *string   `json:"frequency" validate:"omitnil,min=1"`
	Times           *[]string `json:"times" validate:"omitnil,min=1,dive,hhmm"`
	Notes           *string   `json:"notes"`
	SideEffects     *string   `json:"side_effects"`
	Storage         *string   `json:"storage"`
	RefillDate      *string   `json:"refill_date" validate:"omitnil,isodate"`
	ClearRefillDate bool      `json:"clear_refill_date"`
}

func (p MedicationPatch) Empty() bool {
	return p.Name == nil && p.Dosage == nil && p.Frequency == nil && p.Times == nil &&
		p.Notes == nil && p.SideEffects == nil && p.Storage == nil && p.RefillDate == nil &&
		!p.ClearRefillDate
}

// MedicationLog records one dose-taken event.
type MedicationLog struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PatientID    uuid.UUID `db:"patient_id" json:"patient_id"`
	MedicationID uuid.UUID `db:"medication_id" json:"medication_id"`
	TakenAt      time.Time `db:"taken_at" json:"taken_at"`
	Date         string    `db:"date" json:"date"`
	Status       string    `db:"status" json:"status"`
}

const MedicationLogStatusTaken = "taken"

type TakeMedicationRequest struct {
	TakenAt *time.Time `json:"taken_at"`
}

// ScheduleEntry is one dosing time of an active medication on the current day.
type ScheduleEntry struct {
	MedicationID   uuid.UUID `json:"medication_id"`
	MedicationName string    `json:"medication_name"`
	Dosage         string    `json:"dosage"`
	Time           string    `json:"time"`
	Taken          bool      `json:"taken"`
	Notes          string    `json:"notes"`
	Frequency      string    `json:"frequency"`
}

// Compliance summarises logged doses against expected doses over a window.
type Compliance struct {
	CompliancePercentage float64 `json:"compliance_percentage"`
	TakenDoses           int     `json:"taken_doses"`
	ExpectedDoses        int     `json:"expected_doses"`
	PeriodDays           int     `json:"period_days"`
	Message              string  `json:"message,omitempty"`
}
