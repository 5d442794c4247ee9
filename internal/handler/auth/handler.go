package auth

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mediscan/mediscan-api/internal/handler"
	"github.com/mediscan/mediscan-api/internal/model"
	"github.com/mediscan/mediscan-api/internal/service/account"
	tokenauth "github.com/mediscan/mediscan-api/pkg/auth"
	apperrors "github.com/mediscan/mediscan-api/pkg/errors"
	"github.com/mediscan/mediscan-api/pkg/httputil"
)

type Handler struct {
	accounts account.AccountService
	tokens   tokenauth.JWTService
}

func NewHandler(accounts account.AccountService, tokens tokenauth.JWTService) *Handler {
	return &Handler{accounts: accounts, tokens: tokens}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	group := r.Group("/auth")
	{
		group.POST("/register", h.Register)
		group.POST("/register/pharmacy", h.RegisterPharmacy)
		group.POST("/login", h.Login)
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req model.CreateUserRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	userID, err := h.accounts.CreateUser(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondCreated(c, gin.H{"user_id": userID})
}

func (h *Handler) RegisterPharmacy(c *gin.Context) {
	var req model.RegisterPharmacyRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	pharmacy, err := h.accounts.RegisterPharmacy(c.Request.Context(), req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	httputil.RespondCreated(c, pharmacy)
}

func (h *Handler) Login(c *gin.Context) {
	var req model.LoginRequest
	if !handler.BindJSON(c, &req) {
		return
	}

	result, err := h.accounts.AuthenticateUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}

	token, err := h.tokens.GenerateAccessToken(result.UserID.String(), string(result.Role), result.Email)
	if err != nil {
		httputil.RespondWithError(c, apperrors.Storage(err))
		return
	}

	httputil.RespondWithSuccess(c, model.TokenResponse{
		AccessToken: token,
		ExpiresAt:   time.Now().Add(h.tokens.ExpiresIn()).UTC(),
		UserID:      result.UserID,
		Role:        result.Role,
	})
}
