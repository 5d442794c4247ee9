package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// SymptomLog is the single daily wellbeing entry of a patient.
type SymptomLog struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	PatientID   uuid.UUID      `db:"patient_id" json:"patient_id"`
	Date        string         `db:"date" json:"date"`
	Mood        int            `db:"mood" json:"mood"`
	EnergyLevel int            `db:"energy_level" json:"energy_level"`
	PainLevel   int            `db:"pain_level" json:"pain_level"`
	SideEffects pq.StringArray `db:"side_effects" json:"side_effects"`
	Notes       string         `db:"notes" json:"notes"`
	LoggedAt    time.Time      `db:"logged_at" json:"logged_at"`
}

type SymptomRequest struct {
	Mood        int      `json:"mood" validate:"min=1,max=10"`
	EnergyLevel int      `json:"energy_level" validate:"min=1,max=10"`
	PainLevel   int      `json:"pain_level" validate:"min=1,max=10"`
	SideEffects []string `json:"side_effects"`
	Notes       string   `json:"notes"`
}
