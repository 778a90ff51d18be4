package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/communify/communify-backend/internal/application"
	"github.com/communify/communify-backend/pkg/response"
	"github.com/communify/communify-backend/pkg/validation"
)

// AdminHandler serves the administrator-only account management
// endpoints. Route wiring puts the full guard chain in front of every
// method here.
type AdminHandler struct {
	Svc    *application.Service
	Logger *logrus.Logger
}

func NewAdminHandler(svc *application.Service, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{Svc: svc, Logger: logger}
}

type createAdminRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd,max=72"` // bcrypt input limit
	Name     string `json:"name" binding:"required"`
}

type setStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// CreateAdmin handles POST /admin/users.
func (h *AdminHandler) CreateAdmin(c *gin.Context) {
	var req createAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.CreateAdmin(c.Request.Context(), req.Email, req.Password, req.Name)
	switch {
	case err == nil:
		response.OK(c, http.StatusCreated, UserProjection(u), "admin account created", nil)
	case errors.Is(err, application.ErrDuplicateEmail):
		response.Fail(c, http.StatusBadRequest, "an account with this email already exists", nil)
	default:
		h.Logger.WithError(err).WithField("email", req.Email).Error("create admin failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	users, err := h.Svc.ListUsers(c.Request.Context(), limit, offset)
	if err != nil {
		h.Logger.WithError(err).Error("list users failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	views := make([]any, 0, len(users))
	for _, u := range users {
		views = append(views, UserProjection(u))
	}
	response.OK(c, http.StatusOK, views, "users", map[string]any{"limit": limit, "offset": offset})
}

// SearchUsers handles GET /admin/users/search backed by Elasticsearch.
func (h *AdminHandler) SearchUsers(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Fail(c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).WithField("query", q).Error("user search failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	response.OK(c, http.StatusOK, hits, "search results", map[string]any{"query": q})
}

// SetUserStatus handles PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	u, err := h.Svc.SetUserActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	switch {
	case err == nil:
		response.OK(c, http.StatusOK, UserProjection(u), "account status updated", nil)
	case errors.Is(err, application.ErrUserNotFound):
		response.Fail(c, http.StatusNotFound, "user not found", nil)
	default:
		h.Logger.WithError(err).WithField("user_id", c.Param("id")).Error("set status failed")
		response.Fail(c, http.StatusInternalServerError, "internal error", nil)
	}
}
