package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"

	"github.com/communify/communify-backend/internal/domain/repository"
	"github.com/communify/communify-backend/internal/interface/middleware"
)

// DebugModule exposes process metrics for operators. The endpoint is
// admin-only so it never leaks runtime details to regular accounts.
type DebugModule struct {
	Tokens middleware.TokenVerifier
	Users  repository.UserRepository
}

func NewDebugModule(tokens middleware.TokenVerifier, users repository.UserRepository) *DebugModule {
	return &DebugModule{Tokens: tokens, Users: users}
}

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	rg.GET("/debug/vars",
		middleware.Authenticated(m.Tokens, m.Users),
		middleware.ActiveOnly(),
		middleware.AdminOnly(),
		gin.WrapH(expvar.Handler()),
	)
}
