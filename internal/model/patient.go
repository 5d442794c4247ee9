package model

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

type Patient struct {
	Base
	UserID            uuid.UUID      `db:"user_id" json:"user_id"`
	Name              string         `db:"name" json:"name"`
	Age               int            `db:"age" json:"age"`
	Gender            string         `db:"gender" json:"gender"`
	Allergies         pq.StringArray `db:"allergies" json:"allergies"`
	MedicalConditions pq.StringArray `db:"medical_conditions" json:"medical_conditions"`
	GuardianCode      string         `db:"guardian_code" json:"guardian_code"`
}

type CreatePatientRequest struct {
	Name       string   `json:"name" validate:"required"`
	Age        int      `json:"age" validate:"gte=0,lte=150"`
	Gender     string   `json:"gender" validate:"required"`
	Allergies  []string `json:"allergies"`
	Conditions []string `json:"conditions"`
}

// PatientPatch is a sparse profile update; nil fields are left untouched.
type PatientPatch struct {
	Name       *string   `json:"name" validate:"omitnil,min=1"`
	Age        *int      `json:"age" validate:"omitnil,gte=0,lte=150"`
	Gender     *string   `json:"gender" validate:"omitnil,min=1"`
	Allergies  *[]string `json:"allergies"`
	Conditions *[]string `json:"conditions"`
}

func (p PatientPatch) Empty() bool {
	return p.Name == nil && p.Age == nil && p.Gender == nil && p.Allergies == nil && p.Conditions == nil
}

// Apply copies the supplied fields onto patient.
func (p PatientPatch) Apply(patient *Patient) {
	if p.Name != nil {
		patient.Name = *p.Name
	}
	if p.Age != nil {
		patient.Age = *p.Age
	}
	if p.Gender != nil {
		patient.Gender = *p.Gender
	}
	if p.Allergies != nil {
		patient.Allergies = append(pq.StringArray{}, (*p.Allergies)...)
	}
	if p.Conditions != nil {
		patient.MedicalConditions = append(pq.StringArray{}, (*p.Conditions)...)
	}
}
