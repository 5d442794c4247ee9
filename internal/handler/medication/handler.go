package medication

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/medication"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

const defaultComplianceDays = 7

type Handler struct {
	medications medication.MedicationService
	patients    handler.PatientResolver
}

func NewHandler(medications medication.MedicationService, patients handler.PatientResolver) *Handler {
	return &Handler{medications: medications, patients: patients}
}

// RegisterRoutes expects r to be behind authentication.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	patientOnly := r.Group("", middleware.RequireRole(string(model.RolePatient)))

	meds := patientOnly.Group("/medications")
	{
		meds.GET("", h.List)
		meds.POST("", h.Create)
		meds.GET("/:id", h.Get)
		meds.PATCH("/:id", h.Update)
		meds.PUT("/:id", h.Replace)
		meds.DELETE("/:id", h.Deactivate)
		meds.POST("/:id/take", h.Take)
	}

	patientOnly.GET("/schedule/today", h.TodaySchedule)
	patientOnly.GET("/compliance", h.Compliance)
}

// ownMedication loads the medication and hides ones owned by other patients.
func (h *Handler) ownMedication(c *gin.Context) (*model.Patient, *model.Medication, bool) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return nil, nil, false
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return nil, nil, false
	}

	med, err := h.medications.GetMedication(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return nil, nil, false
	}
	if med.PatientID != patient.ID {
		httputil.RespondWithError(c, apperrors.NotFound("medication", apperrors.ReasonNotFound))
		return nil, nil, false
	}
	return patient, med, true
}

func (h *Handler) List(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}

	meds, err := h.medications.GetPatientMedications(c.Request.Context(), patient.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, meds)
}

func (h *Handler) Create(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}
	var req model.MedicationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	id, err := h.medications.AddMedication(c.Request.Context(), patient.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, gin.H{"medication_id": id})
}

func (h *Handler) Get(c *gin.Context) {
	_, med, ok := h.ownMedication(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, med)
}

func (h *Handler) Update(c *gin.Context) {
	_, med, ok := h.ownMedication(c)
	if !ok {
		return
	}
	var patch model.MedicationPatch
	if !handler.BindJSON(c, &patch) {
		return
	}

	updated, err := h.medications.UpdateMedication(c.Request.Context(), med.ID, patch)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Replace(c *gin.Context) {
	_, med, ok := h.ownMedication(c)
	if !ok {
		return
	}
	var req model.MedicationRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	updated, err := h.medications.ReplaceMedication(c.Request.Context(), med.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, updated)
}

func (h *Handler) Deactivate(c *gin.Context) {
	_, med, ok := h.ownMedication(c)
	if !ok {
		return
	}

	if err := h.medications.DeactivateMedication(c.Request.Context(), med.ID); err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, gin.H{"medication_id": med.ID, "is_active": false})
}

// Take logs a dose. The body is optional and may carry taken_at.
func (h *Handler) Take(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}
	id, ok := handler.ParseID(c, "id")
	if !ok {
		return
	}

	var req model.TakeMedicationRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		httputil.RespondBadRequest(c, "invalid request body")
		return
	}

	logID, err := h.medications.LogMedicationTaken(c.Request.Context(), patient.ID, id, req.TakenAt)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, gin.H{"log_id": logID})
}

func (h *Handler) TodaySchedule(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}

	schedule, err := h.medications.GetTodayMedications(c.Request.Context(), patient.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, schedule)
}

func (h *Handler) Compliance(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}
	days, ok := handler.QueryDays(c, defaultComplianceDays)
	if !ok {
		return
	}

	compliance, err := h.medications.GetMedicationCompliance(c.Request.Context(), patient.ID, days)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, compliance)
}
