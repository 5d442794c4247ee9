package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediscan/mediscan-api/internal/config"
	"github.com/mediscan/mediscan-api/pkg/logger"
	"github.com/mediscan/mediscan-api/pkg/messaging"
)

type envelope struct {
	Status  string          `json:"status"`
	Reason  string          `json:"reason"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type apiClient struct {
	t      *testing.T
	engine *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			WriteTimeout:   5 * time.Second,
			AllowedOrigins: []string{"*"},
		},
		Database: config.DatabaseConfig{Driver: "memory"},
		JWT:      config.JWTConfig{Secret: "test-secret", ExpiryHours: 1},
		Redis:    config.RedisConfig{ChannelPrefix: "mediscan"},
		Security: config.SecurityConfig{BcryptCost: 4},
		Metrics:  config.MetricsConfig{Enabled: true, Path: "/metrics", Namespace: "mediscan"},
	}
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.Nop()
	store, err := OpenStore(context.Background(), config.DatabaseConfig{Driver: "memory"}, log)
	require.NoError(t, err)

	server := NewServer(testConfig(), store, messaging.NopBroker{}, log)
	return &apiClient{t: t, engine: server.Router.Engine()}
}

func (a *apiClient) do(method, path, token string, body interface{}) (int, envelope) {
	a.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

// signup registers and logs in an account, returning its bearer token.
func (a *apiClient) signup(email, role string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": email, "password": "secret", "role": role, "name": "Test " + role,
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	return a.login(email, "secret")
}

func (a *apiClient) login(email, password string) string {
	a.t.Helper()
	code, env := a.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(a.t, http.StatusOK, code, env.Message)
	return decode[struct {
		AccessToken string `json:"access_token"`
	}](a.t, env).AccessToken
}

func (a *apiClient) patientWithProfile(email string) (token, guardianCode string) {
	a.t.Helper()
	token = a.signup(email, "patient")
	code, env := a.do(http.MethodPost, "/api/v1/profiles/patient", token, map[string]interface{}{
		"name": "John Doe", "age": 35, "gender": "Male", "allergies": []string{"Penicillin"},
	})
	require.Equal(a.t, http.StatusCreated, code, env.Message)
	return token, decode[struct {
		GuardianCode string `json:"guardian_code"`
	}](a.t, env).GuardianCode
}

func TestAPIMedicationFlow(t *testing.T) {
	api := newAPI(t)
	token, guardianCode := api.patientWithProfile("patient@test.com")
	assert.Regexp(t, `^\d{6}$`, guardianCode)

	code, env := api.do(http.MethodPost, "/api/v1/medications", token, map[string]interface{}{
		"medication_name": "Metformin", "dosage": "500mg", "frequency": "daily",
		"times": []string{"20:00", "08:00"}, "notes": "Take with food",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	medID := decode[struct {
		MedicationID string `json:"medication_id"`
	}](t, env).MedicationID

	code, env = api.do(http.MethodGet, "/api/v1/schedule/today", token, nil)
	require.Equal(t, http.StatusOK, code)
	schedule := decode[[]struct {
		Time  string `json:"time"`
		Taken bool   `json:"taken"`
	}](t, env)
	require.Len(t, schedule, 2)
	assert.Equal(t, "08:00", schedule[0].Time)
	assert.False(t, schedule[0].Taken)

	code, _ = api.do(http.MethodPost, "/api/v1/medications/"+medID+"/take", token, nil)
	require.Equal(t, http.StatusCreated, code)

	code, env = api.do(http.MethodGet, "/api/v1/schedule/today", token, nil)
	require.Equal(t, http.StatusOK, code)
	for _, entry := range decode[[]struct {
		Taken bool `json:"taken"`
	}](t, env) {
		assert.True(t, entry.Taken)
	}

	code, env = api.do(http.MethodGet, "/api/v1/compliance?days=7", token, nil)
	require.Equal(t, http.StatusOK, code)
	compliance := decode[struct {
		Taken    int `json:"taken_doses"`
		Expected int `json:"expected_doses"`
	}](t, env)
	assert.Equal(t, 1, compliance.Taken)
	assert.Equal(t, 14, compliance.Expected)

	code, env = api.do(http.MethodGet, "/api/v1/compliance?days=0", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidRange", env.Reason)

	code, env = api.do(http.MethodPatch, "/api/v1/medications/"+medID, token, map[string]interface{}{
		"dosage": "850mg",
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.Equal(t, "850mg", decode[struct {
		Dosage string `json:"dosage"`
	}](t, env).Dosage)

	code, _ = api.do(http.MethodDelete, "/api/v1/medications/"+medID, token, nil)
	require.Equal(t, http.StatusOK, code)

	code, env = api.do(http.MethodGet, "/api/v1/medications", token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAPIMedicationValidation(t *testing.T) {
	api := newAPI(t)
	token, _ := api.patientWithProfile("patient@test.com")

	code, env := api.do(http.MethodPost, "/api/v1/medications", token, map[string]interface{}{
		"medication_name": "Metformin", "dosage": "500mg", "frequency": "daily",
		"times": []string{"25:00"},
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidTime", env.Reason)

	code, env = api.do(http.MethodGet, "/api/v1/medications/not-a-uuid", token, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidID", env.Reason)
}

func TestAPIMedicationOwnership(t *testing.T) {
	api := newAPI(t)
	owner, _ := api.patientWithProfile("owner@test.com")
	other, _ := api.patientWithProfile("other@test.com")

	code, env := api.do(http.MethodPost, "/api/v1/medications", owner, map[string]interface{}{
		"medication_name": "Lisinopril", "dosage": "10mg", "frequency": "daily", "times": []string{"08:00"},
	})
	require.Equal(t, http.StatusCreated, code)
	medID := decode[struct {
		MedicationID string `json:"medication_id"`
	}](t, env).MedicationID

	code, _ = api.do(http.MethodGet, "/api/v1/medications/"+medID, other, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodPost, "/api/v1/medications/"+medID+"/take", other, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPIAuthErrors(t *testing.T) {
	api := newAPI(t)

	code, _ := api.do(http.MethodGet, "/api/v1/medications", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodGet, "/api/v1/medications", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	api.signup("patient@test.com", "patient")
	code, env := api.do(http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "patient@test.com", "password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, code)
	assert.Equal(t, "InvalidCredentials", env.Reason)

	code, env = api.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "PATIENT@test.com", "password": "x", "role": "patient",
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "DuplicateEmail", env.Reason)

	guardian := api.signup("guardian@test.com", "guardian")
	code, _ = api.do(http.MethodGet, "/api/v1/medications", guardian, nil)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAPIPatientWithoutProfile(t *testing.T) {
	api := newAPI(t)
	token := api.signup("patient@test.com", "patient")

	code, env := api.do(http.MethodGet, "/api/v1/schedule/today", token, nil)
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "PatientNotFound", env.Reason)

	code, env = api.do(http.MethodGet, "/api/v1/profiles/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	me := decode[struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Profile json.RawMessage `json:"profile"`
	}](t, env)
	assert.Equal(t, "patient@test.com", me.User.Email)
	assert.JSONEq(t, "null", string(me.Profile))
}

func TestAPIGuardianLink(t *testing.T) {
	api := newAPI(t)
	patient, guardianCode := api.patientWithProfile("patient@test.com")

	guardian := api.signup("guardian@test.com", "guardian")
	code, env := api.do(http.MethodPost, "/api/v1/profiles/guardian", guardian, map[string]string{
		"name": "Jane Doe", "phone": "+1234567890", "relationship": "Spouse",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = api.do(http.MethodPost, "/api/v1/guardians/link", guardian, map[string]string{
		"guardian_code": "000000",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidCode", env.Reason)

	code, env = api.do(http.MethodPost, "/api/v1/guardians/link", guardian, map[string]string{
		"guardian_code": guardianCode,
	})
	require.Equal(t, http.StatusCreated, code, env.Message)

	code, env = api.do(http.MethodPost, "/api/v1/guardians/link", guardian, map[string]string{
		"guardian_code": guardianCode,
	})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "AlreadyLinked", env.Reason)

	code, env = api.do(http.MethodGet, "/api/v1/guardians/patients", guardian, nil)
	require.Equal(t, http.StatusOK, code)
	patients := decode[[]struct {
		Name string `json:"name"`
	}](t, env)
	require.Len(t, patients, 1)
	assert.Equal(t, "John Doe", patients[0].Name)

	code, env = api.do(http.MethodGet, "/api/v1/patients/me/guardians", patient, nil)
	require.Equal(t, http.StatusOK, code)
	guardians := decode[[]struct {
		Relationship string `json:"relationship"`
	}](t, env)
	require.Len(t, guardians, 1)
	assert.Equal(t, "Spouse", guardians[0].Relationship)
}

func TestAPISymptoms(t *testing.T) {
	api := newAPI(t)
	token, _ := api.patientWithProfile("patient@test.com")

	entry := map[string]interface{}{"mood": 7, "energy_level": 6, "pain_level": 2, "side_effects": []string{"nausea"}}
	code, env := api.do(http.MethodPost, "/api/v1/symptoms", token, entry)
	require.Equal(t, http.StatusCreated, code, env.Message)

	entry["mood"] = 4
	code, _ = api.do(http.MethodPost, "/api/v1/symptoms", token, entry)
	require.Equal(t, http.StatusCreated, code)

	code, env = api.do(http.MethodGet, "/api/v1/symptoms", token, nil)
	require.Equal(t, http.StatusOK, code)
	history := decode[[]struct {
		Mood int `json:"mood"`
	}](t, env)
	require.Len(t, history, 1)
	assert.Equal(t, 4, history[0].Mood)

	entry["pain_level"] = 11
	code, env = api.do(http.MethodPost, "/api/v1/symptoms", token, entry)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "OutOfRange", env.Reason)
}

func TestAPIPharmacyInventory(t *testing.T) {
	api := newAPI(t)

	code, env := api.do(http.MethodPost, "/api/v1/auth/register/pharmacy", "", map[string]string{
		"email": "pharmacy@test.com", "password": "pharmacy123", "name": "MediCare Pharmacy",
		"address": "123 Health Street", "phone": "+1234567890", "license_number": "PH123456",
	})
	require.Equal(t, http.StatusCreated, code, env.Message)
	pharmacyToken := api.login("pharmacy@test.com", "pharmacy123")

	code, env = api.do(http.MethodPost, "/api/v1/pharmacies/inventory", pharmacyToken, map[string]interface{}{
		"medication_name": "Metformin", "price": 25.5,
	})
	require.Equal(t, http.StatusOK, code, env.Message)
	assert.True(t, decode[struct {
		InStock bool `json:"in_stock"`
	}](t, env).InStock)

	code, env = api.do(http.MethodPost, "/api/v1/pharmacies/inventory", pharmacyToken, map[string]interface{}{
		"medication_name": "Lisinopril", "price": -1,
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "InvalidPrice", env.Reason)

	patient := api.signup("patient@test.com", "patient")
	code, _ = api.do(http.MethodPost, "/api/v1/pharmacies/inventory", patient, map[string]interface{}{
		"medication_name": "Metformin", "price": 1,
	})
	assert.Equal(t, http.StatusForbidden, code)

	code, env = api.do(http.MethodGet, "/api/v1/pharmacies/search?medication=metf", patient, nil)
	require.Equal(t, http.StatusOK, code)
	results := decode[[]struct {
		Name string `json:"name"`
	}](t, env)
	require.Len(t, results, 1)
	assert.Equal(t, "MediCare Pharmacy", results[0].Name)

	code, env = api.do(http.MethodGet, "/api/v1/pharmacies/search?medication=aspirin", patient, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Data))
}

func TestAPIHealthAndMetrics(t *testing.T) {
	api := newAPI(t)

	code, _ := api.do(http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()
	api.engine.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "mediscan_http_requests_total")
}
