package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/mediscan/mediscan-api/internal/config"
	"github.com/mediscan/mediscan-api/internal/repository"
)

func NewDB(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// NewRepositories wires every postgres repository onto one shared pool.
func NewRepositories(db *sqlx.DB) *repository.Repositories {
	base := NewBaseRepository(db)
	return &repository.Repositories{
		Users:          NewUserRepository(base),
		Patients:       NewPatientRepository(base),
		Guardians:      NewGuardianRepository(base),
		GuardianLinks:  NewGuardianLinkRepository(base),
		Pharmacies:     NewPharmacyRepository(base),
		Medications:    NewMedicationRepository(base),
		MedicationLogs: NewMedicationLogRepository(base),
		Symptoms:       NewSymptomRepository(base),
		Health:         db,
	}
}
