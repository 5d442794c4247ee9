package medication

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository"
	"github.com/mediscan/mediscan-api/internal/repository/memory"
	"github.com/mediscan/mediscan-api/internal/service"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/logger"
)

type fixture struct {
	svc       *Service
	repos     *repository.Repositories
	now       time.Time
	patientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		repos: memory.NewRepositories(),
		now:   time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC),
	}
	base := service.NewBase(logger.Nop(), nil, nil)
	base.Now = func() time.Time { return f.now }
	f.svc = NewService(f.repos, base)

	f.patientID = uuid.New()
	require.NoError(t, f.repos.Patients.Create(context.Background(), &model.Patient{
		Base:         model.Base{ID: f.patientID, CreatedAt: f.now},
		UserID:       uuid.New(),
		Name:         "John Doe",
		GuardianCode: "123456",
	}))
	return f
}

func (f *fixture) add(t *testing.T, name string, times ...string) uuid.UUID {
	t.Helper()
	id, err := f.svc.AddMedication(context.Background(), f.patientID, model.MedicationRequest{
		Name:      name,
		Dosage:    "500mg",
		Frequency: "daily",
		Times:     times,
	})
	require.NoError(t, err)
	return id
}

func TestAddMedication(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddMedication(ctx, f.patientID, model.MedicationRequest{
		Name:       "  Metformin ",
		Dosage:     "500mg",
		Frequency:  "Twice daily",
		Times:      []string{"08:00", " 20:00"},
		Notes:      "Take with meals",
		RefillDate: "2024-04-01",
	})
	require.NoError(t, err)

	m, err := f.svc.GetMedication(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Metformin", m.Name)
	assert.Equal(t, []string{"08:00", "20:00"}, []string(m.Times))
	assert.True(t, m.IsActive)
	require.NotNil(t, m.RefillDate)
	assert.Equal(t, "2024-04-01", m.RefillDate.Format(model.DateLayout))
}

func TestAddMedicationValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	valid := func() model.MedicationRequest {
		return model.MedicationRequest{Name: "A", Dosage: "1", Frequency: "daily", Times: []string{"08:00"}}
	}

	tests := []struct {
		name   string
		mutate func(*model.MedicationRequest)
		reason string
	}{
		{"missing name", func(r *model.MedicationRequest) { r.Name = " " }, apperrors.ReasonMissingField},
		{"no times", func(r *model.MedicationRequest) { r.Times = nil }, apperrors.ReasonMissingField},
		{"hour out of range", func(r *model.MedicationRequest) { r.Times = []string{"08:00", "25:00"} }, apperrors.ReasonInvalidTime},
		{"single digit hour", func(r *model.MedicationRequest) { r.Times = []string{"8:00"} }, apperrors.ReasonInvalidTime},
		{"bad refill date", func(r *model.MedicationRequest) { r.RefillDate = "04/01/2024" }, apperrors.ReasonInvalidDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid()
			tt.mutate(&req)
			_, err := f.svc.AddMedication(ctx, f.patientID, req)
			assert.True(t, apperrors.HasReason(err, tt.reason), "got %v", err)
		})
	}

	_, err := f.svc.AddMedication(ctx, uuid.New(), valid())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonPatientNotFound))
}

func TestUpdateMedicationPatch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Lisinopril", "08:00")

	_, err := f.svc.UpdateMedication(ctx, id, model.MedicationPatch{})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonNoUpdates))

	bad := []string{"8am"}
	_, err = f.svc.UpdateMedication(ctx, id, model.MedicationPatch{Times: &bad})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidTime))

	dosage := "20mg"
	f.now = f.now.Add(time.Hour)
	updated, err := f.svc.UpdateMedication(ctx, id, model.MedicationPatch{Dosage: &dosage})
	require.NoError(t, err)
	assert.Equal(t, "20mg", updated.Dosage)
	assert.Equal(t, "Lisinopril", updated.Name)
	require.NotNil(t, updated.UpdatedAt)
	assert.Equal(t, f.now, *updated.UpdatedAt)

	_, err = f.svc.UpdateMedication(ctx, uuid.New(), model.MedicationPatch{Dosage: &dosage})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestReplaceMedicationClearsOptionalFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.svc.AddMedication(ctx, f.patientID, model.MedicationRequest{
		Name: "A", Dosage: "1", Frequency: "daily", Times: []string{"08:00"},
		Notes: "old", RefillDate: "2024-05-01",
	})
	require.NoError(t, err)

	replaced, err := f.svc.ReplaceMedication(ctx, id, model.MedicationRequest{
		Name: "B", Dosage: "2", Frequency: "twice", Times: []string{"09:00", "21:00"},
	})
	require.NoError(t, err)
	assert.Equal(t, "B", replaced.Name)
	assert.Empty(t, replaced.Notes)
	assert.Nil(t, replaced.RefillDate)
	assert.Len(t, replaced.Times, 2)
}

func TestDeactivateAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	keep := f.add(t, "Keep", "08:00")
	gone := f.add(t, "Gone", "09:00")

	require.NoError(t, f.svc.DeactivateMedication(ctx, gone))
	meds, err := f.svc.GetPatientMedications(ctx, f.patientID)
	require.NoError(t, err)
	require.Len(t, meds, 1)
	assert.Equal(t, keep, meds[0].ID)

	stored, err := f.svc.GetMedication(ctx, gone)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)

	require.NoError(t, f.svc.DeleteMedication(ctx, gone))
	_, err = f.svc.GetMedication(ctx, gone)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	assert.True(t, apperrors.HasCode(f.svc.DeactivateMedication(ctx, uuid.New()), apperrors.ErrNotFound))
	assert.True(t, apperrors.HasCode(f.svc.DeleteMedication(ctx, uuid.New()), apperrors.ErrNotFound))
}

func TestLogMedicationTaken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Metformin", "08:00")

	logID, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, nil)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, logID)

	logs, err := f.repos.MedicationLogs.ListByDateRange(ctx, f.patientID, "2024-03-10", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, f.now, logs[0].TakenAt)
	assert.Equal(t, model.MedicationLogStatusTaken, logs[0].Status)

	// someone else's patient id
	_, err = f.svc.LogMedicationTaken(ctx, uuid.New(), id, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	require.NoError(t, f.svc.DeactivateMedication(ctx, id))
	_, err = f.svc.LogMedicationTaken(ctx, f.patientID, id, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestLogMedicationTakenExplicitTime(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Metformin", "08:00")

	est := time.FixedZone("EST", -5*3600)
	at := time.Date(2024, 3, 9, 22, 0, 0, 0, est)
	_, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, &at)
	require.NoError(t, err)

	logs, err := f.repos.MedicationLogs.ListByDateRange(ctx, f.patientID, "2024-03-10", "2024-03-10")
	require.NoError(t, err)
	require.Len(t, logs, 1, "log date follows the UTC date of taken_at")
}

func TestTodayScheduleOrderAndTakenFlag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	metformin := f.add(t, "Metformin", "20:00", "08:00")
	f.add(t, "Lisinopril", "08:00")

	_, err := f.svc.LogMedicationTaken(ctx, f.patientID, metformin, nil)
	require.NoError(t, err)

	schedule, err := f.svc.GetTodayMedications(ctx, f.patientID)
	require.NoError(t, err)
	require.Len(t, schedule, 3)

	assert.Equal(t, "08:00", schedule[0].Time)
	assert.Equal(t, "08:00", schedule[1].Time)
	assert.Equal(t, "20:00", schedule[2].Time)

	for _, row := range schedule {
		if row.MedicationID == metformin {
			assert.True(t, row.Taken, "every slot of a logged medication shows as taken")
		} else {
			assert.False(t, row.Taken)
		}
	}
}

func TestTodayScheduleIgnoresYesterday(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Metformin", "08:00")

	yesterday := f.now.AddDate(0, 0, -1)
	_, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, &yesterday)
	require.NoError(t, err)

	schedule, err := f.svc.GetTodayMedications(ctx, f.patientID)
	require.NoError(t, err)
	require.Len(t, schedule, 1)
	assert.False(t, schedule[0].Taken)
}

func TestCompliance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Metformin", "08:00", "20:00")

	for i := 0; i < 7; i++ {
		at := f.now.AddDate(0, 0, -i)
		_, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, &at)
		require.NoError(t, err)
	}
	// outside the window
	old := f.now.AddDate(0, 0, -7)
	_, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, &old)
	require.NoError(t, err)

	c, err := f.svc.GetMedicationCompliance(ctx, f.patientID, 7)
	require.NoError(t, err)
	assert.Equal(t, 14, c.ExpectedDoses)
	assert.Equal(t, 7, c.TakenDoses)
	assert.Equal(t, 50.0, c.CompliancePercentage)
	assert.Equal(t, 7, c.PeriodDays)
	assert.Empty(t, c.Message)
}

func TestComplianceRounding(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "A", "08:00", "14:00", "20:00")

	_, err := f.svc.LogMedicationTaken(ctx, f.patientID, id, nil)
	require.NoError(t, err)

	c, err := f.svc.GetMedicationCompliance(ctx, f.patientID, 1)
	require.NoError(t, err)
	assert.Equal(t, 33.3, c.CompliancePercentage)
}

func TestComplianceNoMedications(t *testing.T) {
	f := newFixture(t)

	c, err := f.svc.GetMedicationCompliance(context.Background(), f.patientID, 30)
	require.NoError(t, err)
	assert.Zero(t, c.CompliancePercentage)
	assert.Zero(t, c.ExpectedDoses)
	assert.Equal(t, noActiveMedications, c.Message)
}

func TestComplianceRange(t *testing.T) {
	f := newFixture(t)

	for _, days := range []int{0, -1, 366} {
		_, err := f.svc.GetMedicationCompliance(context.Background(), f.patientID, days)
		assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidRange), "days=%d", days)
	}
}

func TestDeactivateMedicationUsesServiceClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.add(t, "Metformin", "08:00")

	f.now = f.now.Add(90 * time.Minute)
	require.NoError(t, f.svc.DeactivateMedication(ctx, id))

	stored, err := f.repos.Medications.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, stored.IsActive)
	require.NotNil(t, stored.DeactivatedAt)
	assert.Equal(t, f.now, *stored.DeactivatedAt)
	require.NotNil(t, stored.UpdatedAt)
	assert.Equal(t, f.now, *stored.UpdatedAt)
}

func TestPatientMedicationsStableUnderFrozenClock(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	names := []string{"Metformin", "Lisinopril", "Aspirin", "Atorvastatin", "Levothyroxine"}
	for _, name := range names {
		f.add(t, name, "08:00")
	}

	for i := 0; i < 5; i++ {
		meds, err := f.svc.GetPatientMedications(ctx, f.patientID)
		require.NoError(t, err)
		got := make([]string, len(meds))
		for j, m := range meds {
			got[j] = m.Name
		}
		assert.Equal(t, names, got)
	}
}
