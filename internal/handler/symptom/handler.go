package symptom

import (
	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/symptom"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

const defaultHistoryDays = 30

type Handler struct {
	symptoms symptom.SymptomService
	patients handler.PatientResolver
}

func NewHandler(symptoms symptom.SymptomService, patients handler.PatientResolver) *Handler {
	return &Handler{symptoms: symptoms, patients: patients}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	symptoms := r.Group("/symptoms", middleware.RequireRole(string(model.RolePatient)))
	{
		symptoms.POST("", h.Log)
		symptoms.GET("", h.History)
	}
}

func (h *Handler) Log(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}
	var req model.SymptomRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	entry, err := h.symptoms.LogSymptom(c.Request.Context(), patient.ID, req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, entry)
}

func (h *Handler) History(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}
	days, ok := handler.QueryDays(c, defaultHistoryDays)
	if !ok {
		return
	}

	history, err := h.symptoms.GetSymptomHistory(c.Request.Context(), patient.ID, days)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, history)
}
