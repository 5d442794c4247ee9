package guardian

import (
	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/middleware"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/guardian"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

type Handler struct {
	guardians guardian.GuardianService
	patients  handler.PatientResolver
}

func NewHandler(guardians guardian.GuardianService, patients handler.PatientResolver) *Handler {
	return &Handler{guardians: guardians, patients: patients}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	guardians := r.Group("/guardians", middleware.RequireRole(string(model.RoleGuardian)))
	{
		guardians.POST("/link", h.Link)
		guardians.GET("/patients", h.Patients)
	}

	r.GET("/patients/me/guardians", middleware.RequireRole(string(model.RolePatient)), h.Guardians)
}

func (h *Handler) Link(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}
	var req model.LinkGuardianRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	link, err := h.guardians.LinkGuardianToPatient(c.Request.Context(), req.GuardianCode, userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondCreated(c, link)
}

// Patients lists the patients the calling guardian monitors.
func (h *Handler) Patients(c *gin.Context) {
	userID, ok := handler.CurrentUserID(c)
	if !ok {
		return
	}

	patients, err := h.guardians.GetGuardianPatients(c.Request.Context(), userID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, patients)
}

func (h *Handler) Guardians(c *gin.Context) {
	patient, ok := handler.CurrentPatient(c, h.patients)
	if !ok {
		return
	}

	guardians, err := h.guardians.GetPatientGuardians(c.Request.Context(), patient.ID)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, guardians)
}
