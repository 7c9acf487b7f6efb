// Package http wires the gin engine: middleware, routes and handlers.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/vitalink-io/vitalink/internal/interfaces/http/handlers"
	"github.com/vitalink-io/vitalink/internal/interfaces/http/middleware"
	sharedConfig "github.com/vitalink-io/vitalink/internal/shared/config"
	"github.com/vitalink-io/vitalink/internal/shared/logger"
)

type Router struct {
	engine *gin.Engine
}

func NewRouter(
	cfg *sharedConfig.ServerConfig,
	wearableHandler *handlers.WearableHandler,
	authMW *middleware.AuthMiddleware,
	log logger.Interface,
) *Router {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.Logger(log))
	engine.Use(middleware.CORS(cfg.AllowedOrigins))

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := engine.Group("/api/v1")
	wearables := v1.Group("/wearables")
	{
		// The provider callback carries its own CSRF state; the user's
		// browser arrives here without an API token.
		wearables.GET("/callback/:provider", wearableHandler.Callback)

		authed := wearables.Group("")
		authed.Use(authMW.RequireAuth())
		{
			authed.GET("/providers", wearableHandler.ListProviders)
			authed.GET("/connect/:provider", wearableHandler.Connect)
			authed.POST("/sync/:provider", wearableHandler.Sync)
			authed.GET("/data", wearableHandler.GetData)
			authed.DELETE("/disconnect/:provider", wearableHandler.Disconnect)
		}
	}

	return &Router{engine: engine}
}

// Engine exposes the underlying gin engine for the HTTP server.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
