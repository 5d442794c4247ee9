package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mediscan/mediscan-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a write violates a unique constraint.
	ErrDuplicate = errors.New("duplicate record")
)

// Unique constraints callers need to tell apart.
const (
	ConstraintPatientUserID       = "patients_user_id_key"
	ConstraintPatientGuardianCode = "patients_guardian_code_key"
)

// DuplicateError names the unique constraint a write violated. It matches
// ErrDuplicate under errors.Is.
type DuplicateError struct {
	Constraint string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("%s (%s)", ErrDuplicate, e.Constraint)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicate
}

// ViolatedConstraint returns the constraint named by a DuplicateError in
// err's chain, or "" when there is none.
func ViolatedConstraint(err error) string {
	var dup *DuplicateError
	if errors.As(err, &dup) {
		return dup.Constraint
	}
	return ""
}

// All repository interfaces in one file
type (
	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
		GetByEmail(ctx context.Context, email string) (*model.User, error)
		ExistsByEmail(ctx context.Context, email string) (bool, error)
	}

	PatientRepository interface {
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id uuid.UUID) (*model.Patient, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Patient, error)
		GetByGuardianCode(ctx context.Context, code string) (*model.Patient, error)
		GuardianCodeExists(ctx context.Context, code string) (bool, error)
		Update(ctx context.Context, patient *model.Patient) error
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Patient, error)
	}

	GuardianRepository interface {
		Create(ctx context.Context, guardian *model.Guardian) error
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Guardian, error)
		ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*model.Guardian, error)
	}

	GuardianLinkRepository interface {
		Create(ctx context.Context, link *model.GuardianLink) error
		Exists(ctx context.Context, patientID, guardianID uuid.UUID) (bool, error)
		ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.GuardianLink, error)
		ListActiveByGuardian(ctx context.Context, guardianID uuid.UUID) ([]*model.GuardianLink, error)
	}

	PharmacyRepository interface {
		Create(ctx context.Context, pharmacy *model.Pharmacy) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pharmacy, error)
		GetByUserID(ctx context.Context, userID uuid.UUID) (*model.Pharmacy, error)
		// ModifyInventory runs fn against the current inventory while holding
		// the pharmacy row and persists what fn returns.
		ModifyInventory(ctx context.Context, pharmacyID uuid.UUID, fn func(model.Inventory) (model.Inventory, error)) error
		SearchInStock(ctx context.Context, term string) ([]*model.Pharmacy, error)
	}

	MedicationRepository interface {
		Create(ctx context.Context, medication *model.Medication) error
		Get(ctx context.Context, id uuid.UUID) (*model.Medication, error)
		GetActiveForPatient(ctx context.Context, id, patientID uuid.UUID) (*model.Medication, error)
		Update(ctx context.Context, medication *model.Medication) error
		// Deactivate clears is_active and stamps deactivated_at with at.
		Deactivate(ctx context.Context, id uuid.UUID, at time.Time) error
		// ListActiveByPatient orders by created_at; ties keep insertion order.
		Delete(ctx context.Context, id uuid.UUID) error
		ListActiveByPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Medication, error)
	}

	MedicationLogRepository interface {
		Create(ctx context.Context, log *model.MedicationLog) error
		// ListByDateRange returns logs whose date lies in [from, to] (ISO dates, inclusive).
		ListByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*model.MedicationLog, error)
		CountByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) (int, error)
	}

	SymptomRepository interface {
		// Upsert writes the entry for (patient, date), replacing an existing one.
		Upsert(ctx context.Context, log *model.SymptomLog) error
		ListByDateRange(ctx context.Context, patientID uuid.UUID, from, to string) ([]*model.SymptomLog, error)
	}

	// Pinger reports storage reachability for readiness checks.
	Pinger interface {
		PingContext(ctx context.Context) error
	}
)

// Repositories bundles every repository a process needs.
type Repositories struct {
	Users          UserRepository
	Patients       PatientRepository
	Guardians      GuardianRepository
	GuardianLinks  GuardianLinkRepository
	Pharmacies     PharmacyRepository
	Medications    MedicationRepository
	MedicationLogs MedicationLogRepository
	Symptoms       SymptomRepository
	Health         Pinger
}
