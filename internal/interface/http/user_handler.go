package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/communify/communify-backend/internal/application"
	"github.com/communify/communify-backend/internal/domain/entity"
	"github.com/communify/communify-backend/internal/interface/middleware"
	"github.com/communify/communify-backend/pkg/response"
)

// UserHandler serves the account self-service read endpoints.
type UserHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// userView is the public projection of an account. Hash fields are never
// part of it.
type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Role        string    `json:"role"`
	IsActive    bool      `json:"is_active"`
	Status      string    `json:"status"`
	HasPasscode bool      `json:"has_parental_passcode"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UserProjection maps an account to its public view.
func UserProjection(u *entity.User) userView {
	return userView{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Role:        string(u.Role),
		IsActive:    u.IsActive,
		Status:      string(u.Status),
		HasPasscode: u.HasParentalPasscode(),
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

// Me handles GET /users/me for the authenticated, active caller. The
// guard chain always loads the account first; a missing one means the
// route was wired without it, and the caller gets the same 401 the
// chain would have produced.
func (h *UserHandler) Me(c *gin.Context) {
	u, ok := middleware.AccountFromContext(c)
	if !ok {
		c.Header("WWW-Authenticate", "Bearer")
		response.Fail(c, http.StatusUnauthorized, "could not validate credentials", nil)
		return
	}
	response.OK(c, http.StatusOK, UserProjection(u), "profile", nil)
}
