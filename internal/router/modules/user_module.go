package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/communify/communify-backend/internal/domain/repository"
	handlers "github.com/communify/communify-backend/internal/interface/http"
	"github.com/communify/communify-backend/internal/interface/middleware"
)

// UserModule registers the self-service account routes behind guard
// stages one and two.
type UserModule struct {
	Handler *handlers.UserHandler
	Tokens  middleware.TokenVerifier
	Users   repository.UserRepository
}

func NewUserModule(h *handlers.UserHandler, tokens middleware.TokenVerifier, users repository.UserRepository) *UserModule {
	return &UserModule{Handler: h, Tokens: tokens, Users: users}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	g := rg.Group("/users")
	g.Use(middleware.Authenticated(m.Tokens, m.Users), middleware.ActiveOnly())
	{
		g.GET("/me", m.Handler.Me)
	}
}
