package model

import (
	"time"

	"github.com/google/uuid"
)

type Guardian struct {
	Base
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	Name         string    `db:"name" json:"name"`
	Phone        string    `db:"phone" json:"phone"`
	Relationship string    `db:"relationship" json:"relationship"`
}

type CreateGuardianRequest struct {
	Name         string `json:"name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	Relationship string `json:"relationship" validate:"required"`
}

// GuardianLink connects a guardian to a patient they monitor.
type GuardianLink struct {
	ID         uuid.UUID `db:"id" json:"id"`
	PatientID  uuid.UUID `db:"patient_id" json:"patient_id"`
	GuardianID uuid.UUID `db:"guardian_id" json:"guardian_id"`
	LinkedAt   time.Time `db:"linked_at" json:"linked_at"`
	IsActive   bool      `db:"is_active" json:"is_active"`
}

type LinkGuardianRequest struct {
	GuardianCode string `json:"guardian_code" binding:"required"`
}
