package app

import (
	"context"
	"fmt"

	"github.com/mediscan/mediscan-api/internal/model"
)

// SeedResult reports the identifiers created by Seed.
type SeedResult struct {
	PatientID    string
	GuardianCode string
	PharmacyID   string
}

// Seed inserts the sample data set: one patient on Metformin and
// Lisinopril, one guardian and one pharmacy stocking both drugs.
func Seed(ctx context.Context, services *Services) (*SeedResult, error) {
	accounts := services.Accounts

	patientUser, err := accounts.CreateUser(ctx, model.CreateUserRequest{
		Email:    "patient@test.com",
		Password: "password123",
		Role:     model.RolePatient,
		Name:     "John Doe",
	})
	if err != nil {
		return nil, fmt.Errorf("seed patient user: %w", err)
	}

	patientID, err := accounts.CreatePatientProfile(ctx, patientUser, model.CreatePatientRequest{
		Name:       "John Doe",
		Age:        35,
		Gender:     "Male",
		Allergies:  []string{"Penicillin"},
		Conditions: []string{"Diabetes", "Hypertension"},
	})
	if err != nil {
		return nil, fmt.Errorf("seed patient profile: %w", err)
	}

	meds := []model.MedicationRequest{
		{Name: "Metformin", Dosage: "500mg", Frequency: "daily", Times: []string{"08:00", "20:00"}, Notes: "Take with food"},
		{Name: "Lisinopril", Dosage: "10mg", Frequency: "daily", Times: []string{"08:00"}, Notes: "Monitor blood pressure"},
	}
	for _, req := range meds {
		if _, err := services.Medications.AddMedication(ctx, patientID, req); err != nil {
			return nil, fmt.Errorf("seed medication %s: %w", req.Name, err)
		}
	}

	guardianUser, err := accounts.CreateUser(ctx, model.CreateUserRequest{
		Email:    "guardian@test.com",
		Password: "guardian123",
		Role:     model.RoleGuardian,
		Name:     "Jane Doe",
	})
	if err != nil {
		return nil, fmt.Errorf("seed guardian user: %w", err)
	}
	if _, err := accounts.CreateGuardianProfile(ctx, guardianUser, model.CreateGuardianRequest{
		Name:         "Jane Doe",
		Phone:        "+1234567890",
		Relationship: "Spouse",
	}); err != nil {
		return nil, fmt.Errorf("seed guardian profile: %w", err)
	}

	pharmacy, err := accounts.RegisterPharmacy(ctx, model.RegisterPharmacyRequest{
		Email:    "pharmacy@test.com",
		Password: "pharmacy123",
		CreatePharmacyRequest: model.CreatePharmacyRequest{
			Name:          "MediCare Pharmacy",
			Address:       "123 Health Street, Medical City",
			Phone:         "+1234567890",
			LicenseNumber: "PH123456",
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed pharmacy: %w", err)
	}

	stock := []model.InventoryRequest{
		{MedicationName: "Metformin", Price: 25.50},
		{MedicationName: "Lisinopril", Price: 15.75},
	}
	for _, req := range stock {
		if _, err := services.Pharmacies.AddOrUpdateInventoryItem(ctx, pharmacy.ID, req); err != nil {
			return nil, fmt.Errorf("seed inventory %s: %w", req.MedicationName, err)
		}
	}

	patient, err := accounts.GetPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("seed reload patient: %w", err)
	}

	return &SeedResult{
		PatientID:    patientID.String(),
		GuardianCode: patient.GuardianCode,
		PharmacyID:   pharmacy.ID.String(),
	}, nil
}
