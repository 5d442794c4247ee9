package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
)

func newMock(t *testing.T) (BaseRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return NewBaseRepository(sqlx.NewDb(db, "postgres")), mock
}

func TestUserCreateDuplicateEmail(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "users_email_key"})

	err := repo.Create(context.Background(), &model.User{
		Base:  model.Base{ID: uuid.New(), CreatedAt: time.Now()},
		Email: "a@example.com",
		Role:  model.RolePatient,
	})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Contains(t, err.Error(), "users_email_key")
}

func TestUserGetNotFound(t *testing.T) {
	base, mock := newMock(t)
	repo := NewUserRepository(base)
	id := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE id = $1")).
		WithArgs(id).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), id)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGuardianCodeExists(t *testing.T) {
	base, mock := newMock(t)
	repo := NewPatientRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM patients WHERE guardian_code = $1)")).
		WithArgs("123456").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.GuardianCodeExists(context.Background(), "123456")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestPatientUpdateMissingRow(t *testing.T) {
	base, mock := newMock(t)
	repo := NewPatientRepository(base)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE patients")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &model.Patient{Base: model.Base{ID: uuid.New()}})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListPatientsByIDsEmpty(t *testing.T) {
	base, _ := newMock(t)
	repo := NewPatientRepository(base)

	patients, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, patients)
}

func TestSymptomUpsertKeepsExistingID(t *testing.T) {
	base, mock := newMock(t)
	repo := NewSymptomRepository(base)
	existing := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (patient_id, date) DO UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(existing.String()))

	entry := &model.SymptomLog{
		ID:        uuid.New(),
		PatientID: uuid.New(),
		Date:      "2024-03-01",
		Mood:      5, EnergyLevel: 6, PainLevel: 2,
		LoggedAt: time.Now(),
	}
	require.NoError(t, repo.Upsert(context.Background(), entry))
	assert.Equal(t, existing, entry.ID)
}

func TestSearchInStockEscapesWildcards(t *testing.T) {
	base, mock := newMock(t)
	repo := NewPharmacyRepository(base)

	mock.ExpectQuery(regexp.QuoteMeta("jsonb_array_elements(inventory)")).
		WithArgs(`100\%\_off`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}))

	pharmacies, err := repo.SearchInStock(context.Background(), "100%_off")
	require.NoError(t, err)
	assert.Empty(t, pharmacies)
}

func TestModifyInventoryLocksAndWrites(t *testing.T) {
	base, mock := newMock(t)
	repo := NewPharmacyRepository(base)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT inventory FROM pharmacies WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows([]string{"inventory"}).
			AddRow([]byte(`[{"medication_name":"Aspirin","price":1,"in_stock":true}]`)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE pharmacies SET inventory = $1 WHERE id = $2")).
		WithArgs(sqlmock.AnyArg(), id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	var seen model.Inventory
	err := repo.ModifyInventory(context.Background(), id, func(inv model.Inventory) (model.Inventory, error) {
		seen = inv
		updated, _ := inv.Upsert(model.InventoryItem{MedicationName: "Ibuprofen", Price: 4, InStock: true})
		return updated, nil
	})
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, "Aspirin", seen[0].MedicationName)
}

func TestModifyInventoryRollsBackOnCallbackError(t *testing.T) {
	base, mock := newMock(t)
	repo := NewPharmacyRepository(base)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WillReturnRows(sqlmock.NewRows([]string{"inventory"}).AddRow([]byte(`[]`)))
	mock.ExpectRollback()

	err := repo.ModifyInventory(context.Background(), id, func(model.Inventory) (model.Inventory, error) {
		return nil, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestMedicationDeactivate(t *testing.T) {
	base, mock := newMock(t)
	repo := NewMedicationRepository(base)
	id := uuid.New()
	at := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE medications SET is_active = FALSE")).
		WithArgs(at, id).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Deactivate(context.Background(), id, at))
}

func TestMedicationListBreaksCreatedAtTies(t *testing.T) {
	base, mock := newMock(t)
	repo := NewMedicationRepository(base)
	patientID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE patient_id = $1 AND is_active ORDER BY created_at, id")).
		WithArgs(patientID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	meds, err := repo.ListActiveByPatient(context.Background(), patientID)
	require.NoError(t, err)
	assert.Empty(t, meds)
}

func TestDuplicateKeepsConstraint(t *testing.T) {
	err := mapError("create patient", &pq.Error{Code: uniqueViolation, Constraint: repository.ConstraintPatientGuardianCode})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
	assert.Equal(t, repository.ConstraintPatientGuardianCode, repository.ViolatedConstraint(err))
}

func TestMedicationLogCount(t *testing.T) {
	base, mock := newMock(t)
	repo := NewMedicationLogRepository(base)
	patientID := uuid.New()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM medication_logs")).
		WithArgs(patientID, "2024-03-01", "2024-03-07").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountByDateRange(context.Background(), patientID, "2024-03-01", "2024-03-07")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
