package bootstrap

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	redisStore "github.com/gin-contrib/sessions/redis"
	"github.com/samber/do"
	"github.com/yukikurage/project-tracker-api/internal/config"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/logger"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionMaxAge = 86400 * 7

// BuildContainer wires the application. configPath may be empty to use the
// default config search paths.
func BuildContainer(configPath string) *do.Injector {
	inj := do.New()

	// config
	do.Provide(inj, func(i *do.Injector) (*config.Config, error) {
		return config.LoadFrom(configPath)
	})

	// logger
	do.Provide(inj, func(i *do.Injector) (*zap.Logger, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return logger.New(cfg.Log.Level, cfg.Log.Format)
	})

	// DB
	do.Provide(inj, func(i *do.Injector) (*gorm.DB, error) {
		cfg := do.MustInvoke[*config.Config](i)
		return database.Connect(cfg, do.MustInvoke[*zap.Logger](i))
	})

	// session store
	do.Provide(inj, func(i *do.Injector) (sessions.Store, error) {
		return NewSessionStore(do.MustInvoke[*config.Config](i))
	})

	// Repo
	do.Provide(inj, func(i *do.Injector) (*repository.Repositories, error) {
		return repository.New(do.MustInvoke[*gorm.DB](i)), nil
	})

	// Service
	do.Provide(inj, func(i *do.Injector) (*services.AuthService, error) {
		return services.NewAuthService(do.MustInvoke[*repository.Repositories](i).Users), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.ProjectService, error) {
		return services.NewProjectService(do.MustInvoke[*repository.Repositories](i), time.Now, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.JoinRequestService, error) {
		return services.NewJoinRequestService(do.MustInvoke[*repository.Repositories](i), time.Now, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.StatusRegistry, error) {
		return services.NewStatusRegistry(do.MustInvoke[*repository.Repositories](i), do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.TaskService, error) {
		cfg := do.MustInvoke[*config.Config](i)
		var drafts services.TaskDraftGenerator
		if cfg.OpenAI.APIKey != "" {
			drafts = services.NewAIService(cfg.OpenAI.APIKey)
		}
		return services.NewTaskService(do.MustInvoke[*repository.Repositories](i), drafts, time.Now, do.MustInvoke[*zap.Logger](i)), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.CommentService, error) {
		return services.NewCommentService(do.MustInvoke[*repository.Repositories](i), time.Now), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.TimeLogService, error) {
		return services.NewTimeLogService(do.MustInvoke[*repository.Repositories](i), time.Now), nil
	})
	do.Provide(inj, func(i *do.Injector) (*services.HistoryService, error) {
		return services.NewHistoryService(do.MustInvoke[*repository.Repositories](i)), nil
	})

	// Handler
	do.Provide(inj, func(i *do.Injector) (*handlers.Handlers, error) {
		log := do.MustInvoke[*zap.Logger](i)
		return &handlers.Handlers{
			Auth:         handlers.NewAuthHandler(do.MustInvoke[*services.AuthService](i), log),
			Projects:     handlers.NewProjectHandler(do.MustInvoke[*services.ProjectService](i), log),
			JoinRequests: handlers.NewJoinRequestHandler(do.MustInvoke[*services.JoinRequestService](i), log),
			Statuses:     handlers.NewStatusHandler(do.MustInvoke[*services.StatusRegistry](i), log),
			Tasks:        handlers.NewTaskHandler(do.MustInvoke[*services.TaskService](i), log),
			Comments:     handlers.NewCommentHandler(do.MustInvoke[*services.CommentService](i), log),
			TimeLogs:     handlers.NewTimeLogHandler(do.MustInvoke[*services.TimeLogService](i), log),
			History:      handlers.NewHistoryHandler(do.MustInvoke[*services.HistoryService](i), log),
		}, nil
	})

	return inj
}

// NewSessionStore builds the cookie or redis session store named by
// session.store.
func NewSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Session.Store {
	case "", "cookie":
		store = cookie.NewStore([]byte(cfg.Session.Secret))
	case "redis":
		rs, err := redisStore.NewStore(
			cfg.Session.PoolSize,
			"tcp",
			cfg.Session.RedisAddr,
			"", // password
			[]byte(cfg.Session.Secret),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create redis session store: %w", err)
		}
		store = rs
	default:
		return nil, fmt.Errorf("unsupported session store %q", cfg.Session.Store)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
