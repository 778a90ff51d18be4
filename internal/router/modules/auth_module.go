package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/communify/communify-backend/internal/domain/repository"
	handlers "github.com/communify/communify-backend/internal/interface/http"
	"github.com/communify/communify-backend/internal/interface/middleware"
)

// AuthModule registers the login, registration, and parental-passcode
// routes. The passcode endpoints operate on the authenticated caller's
// own account and sit behind the first two guard stages.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Tokens  middleware.TokenVerifier
	Users   repository.UserRepository
}

func NewAuthModule(h *handlers.AuthHandler, tokens middleware.TokenVerifier, users repository.UserRepository) *AuthModule {
	return &AuthModule{Handler: h, Tokens: tokens, Users: users}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rg.POST("/auth/token", m.Handler.Token)
	rg.POST("/auth/register", m.Handler.Register)

	authed := rg.Group("/auth")
	authed.Use(middleware.Authenticated(m.Tokens, m.Users), middleware.ActiveOnly())
	{
		authed.POST("/verify-parental-passcode", m.Handler.VerifyParentalPasscode)
		authed.POST("/set-parental-passcode", m.Handler.SetParentalPasscode)
		authed.POST("/remove-parental-passcode", m.Handler.RemoveParentalPasscode)
	}
}
