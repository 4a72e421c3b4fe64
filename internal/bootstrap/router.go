package bootstrap

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/samber/do"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	"github.com/yukikurage/project-tracker-api/internal/handlers"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// NewRouter builds the gin engine with every API route mounted.
func NewRouter(inj *do.Injector) (*gin.Engine, error) {
	log := do.MustInvoke[*zap.Logger](inj)
	store, err := do.Invoke[sessions.Store](inj)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.ZapLogger(log))
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	handlers.Register(r,
		do.MustInvoke[*handlers.Handlers](inj),
		do.MustInvoke[*services.ProjectService](inj),
		do.MustInvoke[*services.TaskService](inj),
		log,
	)
	return r, nil
}
