package router

import (
	"github.com/communify/communify-backend/internal/application"
	"github.com/communify/communify-backend/internal/container"
	"github.com/communify/communify-backend/internal/domain/repository"
	"github.com/communify/communify-backend/internal/infrastructure/cache"
	pginfra "github.com/communify/communify-backend/internal/infrastructure/postgres"
	handlers "github.com/communify/communify-backend/internal/interface/http"
	"github.com/communify/communify-backend/internal/router/modules"
)

func buildUserRepo() repository.UserRepository {
	var repo repository.UserRepository = pginfra.NewUserRepository(container.GetPGPool())
	cfg := container.GetConfig()
	if rdb := container.GetRedis(); rdb != nil {
		repo = cache.NewUserCache(repo, rdb, cfg.UserCacheTTL, container.GetLogger())
	}
	return repo
}

// InitModules wires all application modules and registers them with the
// router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	repo := buildUserRepo()

	svc := application.NewService(
		repo,
		container.GetTokens(),
		container.GetHasher(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESUsersIndex,
		container.GetRabbitPub(),
		cfg.MailSendEnabled,
	)

	authHandler := handlers.NewAuthHandler(svc, container.GetLogger())
	userHandler := handlers.NewUserHandler(svc, container.GetLogger())
	adminHandler := handlers.NewAdminHandler(svc, container.GetLogger())

	r.Add(modules.NewAuthModule(authHandler, container.GetTokens(), repo))
	r.Add(modules.NewUserModule(userHandler, container.GetTokens(), repo))
	r.Add(modules.NewAdminModule(adminHandler, container.GetTokens(), repo))
	if cfg.DebugMetricsEnabled {
		r.Add(modules.NewDebugModule(container.GetTokens(), repo))
	}
}
