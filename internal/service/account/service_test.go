package account

import (
	"context"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/repository/memory"
	"github.com/mediscan/mediscan-api/internal/service"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/security"
)

var fixedNow = time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	base := service.NewBase(logger.Nop(), nil, nil)
	base.Now = func() time.Time { return fixedNow }
	return NewService(memory.NewRepositories(), security.NewBcryptHasher(bcrypt.MinCost), base)
}

func createUser(t *testing.T, svc *Service, email string, role model.Role) uuid.UUID {
	t.Helper()
	id, err := svc.CreateUser(context.Background(), model.CreateUserRequest{
		Email:    email,
		Password: "secret",
		Role:     role,
	})
	require.NoError(t, err)
	return id
}

func patientRequest() model.CreatePatientRequest {
	return model.CreatePatientRequest{Name: "John Doe", Age: 65, Gender: "male", Allergies: []string{"Penicillin"}}
}

func TestCreateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	id := createUser(t, svc, "  Jane@Example.com ", model.RolePatient)

	user, err := svc.GetUser(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "secret", user.PasswordHash)
}

func TestCreateUserRejectsOverlongPassword(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.CreateUser(context.Background(), model.CreateUserRequest{
		Email:    "long@example.com",
		Password: strings.Repeat("p", security.MaxPasswordBytes+1),
		Role:     model.RolePatient,
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonOutOfRange))
}

func TestAuthenticateUnreadableHash(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	require.NoError(t, svc.users.Create(ctx, &model.User{
		Base: model.Base{ID: uuid.New()}, Email: "broken@example.com", PasswordHash: "corrupted",
		Role: model.RolePatient, IsActive: true,
	}))

	_, err := svc.AuthenticateUser(ctx, "broken@example.com", "secret")
	assert.True(t, apperrors.HasCode(err, apperrors.ErrUnauthorized))
}

func TestCreateUserValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		req    model.CreateUserRequest
		reason string
	}{
		{"missing email", model.CreateUserRequest{Password: "x", Role: model.RolePatient}, apperrors.ReasonMissingField},
		{"missing password", model.CreateUserRequest{Email: "a@b.c", Role: model.RolePatient}, apperrors.ReasonMissingField},
		{"missing role", model.CreateUserRequest{Email: "a@b.c", Password: "x"}, apperrors.ReasonMissingField},
		{"unknown role", model.CreateUserRequest{Email: "a@b.c", Password: "x", Role: "doctor"}, apperrors.ReasonInvalidRole},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateUser(ctx, tt.req)
			assert.True(t, apperrors.HasCode(err, apperrors.ErrValidation))
			assert.True(t, apperrors.HasReason(err, tt.reason))
		})
	}
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	svc := newTestService(t)

	createUser(t, svc, "dup@example.com", model.RolePatient)
	_, err := svc.CreateUser(context.Background(), model.CreateUserRequest{
		Email: "DUP@example.com", Password: "other", Role: model.RoleGuardian,
	})

	assert.True(t, apperrors.HasCode(err, apperrors.ErrConflict))
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonDuplicateEmail))
}

func TestAuthenticateUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	id := createUser(t, svc, "login@example.com", model.RoleGuardian)

	result, err := svc.AuthenticateUser(ctx, "Login@Example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, id, result.UserID)
	assert.Equal(t, model.RoleGuardian, result.Role)

	_, err = svc.AuthenticateUser(ctx, "login@example.com", "wrong")
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidCredentials))

	_, err = svc.AuthenticateUser(ctx, "nobody@example.com", "secret")
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidCredentials))
}

func TestCreatePatientProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := createUser(t, svc, "p@example.com", model.RolePatient)

	patientID, err := svc.CreatePatientProfile(ctx, userID, patientRequest())
	require.NoError(t, err)

	patient, err := svc.GetPatientByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, patientID, patient.ID)
	assert.Regexp(t, regexp.MustCompile(`^\d{6}$`), patient.GuardianCode)
	assert.Equal(t, []string{"Penicillin"}, []string(patient.Allergies))
	assert.NotNil(t, patient.MedicalConditions)

	_, err = svc.CreatePatientProfile(ctx, userID, patientRequest())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonProfileExists))
}

func TestCreatePatientProfileErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	patientUser := createUser(t, svc, "p@example.com", model.RolePatient)
	guardianUser := createUser(t, svc, "g@example.com", model.RoleGuardian)

	req := patientRequest()
	req.Age = 151
	_, err := svc.CreatePatientProfile(ctx, patientUser, req)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidAge))

	req = patientRequest()
	req.Name = "   "
	_, err = svc.CreatePatientProfile(ctx, patientUser, req)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonMissingField))

	_, err = svc.CreatePatientProfile(ctx, guardianUser, patientRequest())
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonUserNotFound))

	_, err = svc.CreatePatientProfile(ctx, uuid.New(), patientRequest())
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))
}

func TestGuardianCodesAreUnique(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	seen := map[string]bool{}
	for i := 0; i < 20; i++ {
		userID := createUser(t, svc, uuid.NewString()+"@example.com", model.RolePatient)
		_, err := svc.CreatePatientProfile(ctx, userID, patientRequest())
		require.NoError(t, err)

		patient, err := svc.GetPatientByUserID(ctx, userID)
		require.NoError(t, err)
		assert.False(t, seen[patient.GuardianCode], "code %s issued twice", patient.GuardianCode)
		seen[patient.GuardianCode] = true
	}
}

func TestGuardianCodeFallbackAfterCollisions(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.codes.intN = func(int) int { return 0 }

	first := createUser(t, svc, "first@example.com", model.RolePatient)
	_, err := svc.CreatePatientProfile(ctx, first, patientRequest())
	require.NoError(t, err)

	code, err := svc.GenerateGuardianCode(ctx)
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Equal(t, "100000", mustPatient(t, svc, first).GuardianCode)
	assert.Equal(t, fixedNow.Unix()%1000000, mustAtoi(t, code))
}

func TestGuardianCodeCollisionIsNotProfileExists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	svc.codes.intN = func(int) int { return 0 }

	var users []uuid.UUID
	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		users = append(users, createUser(t, svc, email, model.RolePatient))
	}

	// 100000, then the clock fallback, then the same fallback again
	_, err := svc.CreatePatientProfile(ctx, users[0], patientRequest())
	require.NoError(t, err)
	_, err = svc.CreatePatientProfile(ctx, users[1], patientRequest())
	require.NoError(t, err)

	_, err = svc.CreatePatientProfile(ctx, users[2], patientRequest())
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrConflict, appErr.Code)
	assert.Equal(t, apperrors.ReasonDuplicateCode, appErr.Reason)

	_, err = svc.GetPatientByUserID(ctx, users[2])
	assert.True(t, apperrors.HasCode(err, apperrors.ErrNotFound))

	// a later attempt with a fresh fallback succeeds
	svc.codes.now = func() time.Time { return fixedNow.Add(time.Second) }
	_, err = svc.CreatePatientProfile(ctx, users[2], patientRequest())
	require.NoError(t, err)
}

func TestCreatePatientProfileTwiceIsProfileExists(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := createUser(t, svc, "p@example.com", model.RolePatient)

	_, err := svc.CreatePatientProfile(ctx, userID, patientRequest())
	require.NoError(t, err)

	_, err = svc.CreatePatientProfile(ctx, userID, patientRequest())
	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ReasonProfileExists, appErr.Reason)
}

func TestUpdatePatientProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := createUser(t, svc, "p@example.com", model.RolePatient)
	patientID, err := svc.CreatePatientProfile(ctx, userID, patientRequest())
	require.NoError(t, err)

	_, err = svc.UpdatePatientProfile(ctx, patientID, model.PatientPatch{})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonNoUpdates))

	badAge := -1
	_, err = svc.UpdatePatientProfile(ctx, patientID, model.PatientPatch{Age: &badAge})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonInvalidAge))

	age := 66
	conditions := []string{"Diabetes"}
	updated, err := svc.UpdatePatientProfile(ctx, patientID, model.PatientPatch{Age: &age, Conditions: &conditions})
	require.NoError(t, err)
	assert.Equal(t, 66, updated.Age)
	assert.Equal(t, "John Doe", updated.Name)
	assert.Equal(t, []string{"Diabetes"}, []string(updated.MedicalConditions))

	_, err = svc.UpdatePatientProfile(ctx, uuid.New(), model.PatientPatch{Age: &age})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonPatientNotFound))
}

func TestCreateGuardianProfile(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	userID := createUser(t, svc, "g@example.com", model.RoleGuardian)
	req := model.CreateGuardianRequest{Name: "Jane", Phone: "+1-555-0123", Relationship: "daughter"}

	id, err := svc.CreateGuardianProfile(ctx, userID, req)
	require.NoError(t, err)

	guardian, err := svc.GetGuardianByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, id, guardian.ID)

	_, err = svc.CreateGuardianProfile(ctx, userID, req)
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonProfileExists))

	_, err = svc.CreateGuardianProfile(ctx, userID, model.CreateGuardianRequest{Name: "Jane"})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonMissingField))
}

func TestRegisterPharmacy(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	pharmacy, err := svc.RegisterPharmacy(ctx, model.RegisterPharmacyRequest{
		Email:    "Rx@Example.com",
		Password: "secret",
		CreatePharmacyRequest: model.CreatePharmacyRequest{
			Name: "HealthPlus", Address: "123 Main St", Phone: "+1-555-0100", LicenseNumber: "PH123456",
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "rx@example.com", pharmacy.Email)
	assert.False(t, pharmacy.IsVerified)
	assert.Empty(t, pharmacy.Inventory)

	_, err = svc.CreatePharmacyProfile(ctx, pharmacy.UserID, model.CreatePharmacyRequest{
		Name: "Again", Address: "x", Phone: "y", LicenseNumber: "z",
	})
	assert.True(t, apperrors.HasReason(err, apperrors.ReasonProfileExists))
}
