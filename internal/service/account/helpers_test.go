package account

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/mediscan-api/internal/model"
)

func mustPatient(t *testing.T, svc *Service, userID uuid.UUID) *model.Patient {
	t.Helper()
	patient, err := svc.GetPatientByUserID(context.Background(), userID)
	require.NoError(t, err)
	return patient
}

func mustAtoi(t *testing.T, s string) int64 {
	t.Helper()
	n, err := strconv.ParseInt(s, 10, 64)
	require.NoError(t, err)
	return n
}
