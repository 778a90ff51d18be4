package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/communify/communify-backend/internal/application"
	"github.com/communify/communify-backend/internal/interface/middleware"
	"github.com/communify/communify-backend/pkg/response"
	"github.com/communify/communify-backend/pkg/validation"
)

// AuthHandler serves the login, registration, and parental-passcode
// endpoints.
type AuthHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *application.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type tokenRequest struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd,max=72"` // bcrypt input limit
	Name     string `json:"name" binding:"required"`
}

type verifyPasscodeRequest struct {
	Passcode string `json:"passcode" binding:"required"`
}

type setPasscodeRequest struct {
	CurrentPasscode string `json:"current_passcode"`
	NewPasscode     string `json:"new_passcode" binding:"required,min=4,max=72"`
}

type removePasscodeRequest struct {
	CurrentPasscode string `json:"current_passcode" binding:"required"`
}

// Token handles POST /auth/token. The request is form-encoded and the
// response shape follows the OAuth2 password-grant convention, so it
// bypasses the usual envelope.
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	token, _, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, tokenResponse{AccessToken: token, TokenType: "bearer"})
	case errors.Is(err, application.ErrInvalidCredentials):
		h.Logger.WithFields(logrus.Fields{
			"email": req.Username,
			"ip":    middleware.RealIPFromContext(c),
		}).Warn("failed login attempt")
		c.Header("WWW-Authenticate", "Bearer")
		response.Fail(c, http.StatusUnauthorized, "incorrect email or password", nil)
	case errors.Is(err, application.ErrAccountInactive):
		response.Fail(c, http.StatusBadRequest, "inactive account", nil)
	default:
		h.Logger.WithError(err).WithField("email", req.Username).Error("login failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	switch {
	case err == nil:
		response.OK(c, http.StatusCreated, UserProjection(u), "account created", nil)
	case errors.Is(err, application.ErrDuplicateEmail):
		response.Fail(c, http.StatusBadRequest, "an account with this email already exists", nil)
	default:
		h.Logger.WithError(err).WithField("email", req.Email).Error("registration failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// VerifyParentalPasscode handles POST /auth/verify-parental-passcode.
// Read-only: it never mutates the stored passcode.
func (h *AuthHandler) VerifyParentalPasscode(c *gin.Context) {
	var req verifyPasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	ok, err := h.Svc.VerifyParentalPasscode(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.Passcode)
	if err != nil {
		h.Logger.WithError(err).Error("passcode verification failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	msg := "passcode verified"
	if !ok {
		msg = "passcode mismatch"
	}
	response.OK(c, http.StatusOK, gin.H{"success": ok}, msg, nil)
}

// SetParentalPasscode handles POST /auth/set-parental-passcode. Changing
// an existing passcode requires proof of the current one; the first set
// does not.
func (h *AuthHandler) SetParentalPasscode(c *gin.Context) {
	var req setPasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.SetParentalPasscode(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.CurrentPasscode, req.NewPasscode)
	switch {
	case err == nil:
		response.OK(c, http.StatusOK, gin.H{"success": true}, "passcode set", nil)
	case errors.Is(err, application.ErrPasscodeRequired):
		response.Fail(c, http.StatusBadRequest, "current parental passcode required", nil)
	default:
		h.Logger.WithError(err).Error("set passcode failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// RemoveParentalPasscode handles POST /auth/remove-parental-passcode.
func (h *AuthHandler) RemoveParentalPasscode(c *gin.Context) {
	var req removePasscodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	err := h.Svc.RemoveParentalPasscode(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), req.CurrentPasscode)
	switch {
	case err == nil:
		response.OK(c, http.StatusOK, gin.H{"success": true}, "passcode removed", nil)
	case errors.Is(err, application.ErrPasscodeRequired), errors.Is(err, application.ErrPasscodeNotSet):
		response.Fail(c, http.StatusBadRequest, "current parental passcode required", nil)
	default:
		h.Logger.WithError(err).Error("remove passcode failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}
