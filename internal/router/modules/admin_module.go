package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/communify/communify-backend/internal/domain/repository"
	handlers "github.com/communify/communify-backend/internal/interface/http"
	"github.com/communify/communify-backend/internal/interface/middleware"
)

// AdminModule registers the account-management routes behind the full
// three-stage guard chain.
type AdminModule struct {
	Handler *handlers.AdminHandler
	Tokens  middleware.TokenVerifier
	Users   repository.UserRepository
}

func NewAdminModule(h *handlers.AdminHandler, tokens middleware.TokenVerifier, users repository.UserRepository) *AdminModule {
	return &AdminModule{Handler: h, Tokens: tokens, Users: users}
}

func (m *AdminModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/admin")
	g.Use(middleware.Authenticated(m.Tokens, m.Users), middleware.ActiveOnly(), middleware.AdminOnly())
	{
		g.POST("/users", m.Handler.CreateAdmin)
		g.GET("/users", m.Handler.ListUsers)
		g.GET("/users/search", m.Handler.SearchUsers)
		g.PATCH("/users/:id/status", m.Handler.SetUserStatus)
	}
}
