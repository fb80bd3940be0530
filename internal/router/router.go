package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Settings control the engine outside of the API routes.
type Settings struct {
	CORSOrigins []string
	// MediaDir is served under MediaURL when both are set.
	MediaDir string
	MediaURL string
}

// SetupRouter configures the application routes
func SetupRouter(svc api.Services, opts api.Options, settings Settings) *gin.Engine {
	router := gin.New()
	router.Use(middleware.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORS(settings.CORSOrigins))

	if settings.MediaDir != "" && settings.MediaURL != "" {
		router.Static(settings.MediaURL, settings.MediaDir)
	}

	api.RegisterRoutes(router, svc, opts)
	return router
}
