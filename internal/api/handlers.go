package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services are the collaborators the handlers depend on.
type Services struct {
	Auth     service.IAuthService
	Users    service.IUserService
	Recipes  service.IRecipeService
	Catalog  service.ICatalogService
	Shopping service.IShoppingList
}

// Options tune the HTTP surface.
type Options struct {
	PageSize      int
	CreateLimiter *middleware.RateLimiter
	DB            *gorm.DB
}

// HealthCheck returns the health status of the API
func HealthCheck(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if db != nil {
			if err := database.HealthCheck(c.Request.Context(), db); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router *gin.Engine, svc Services, opts Options) {
	if opts.PageSize <= 0 {
		opts.PageSize = 6
	}

	router.GET("/health", HealthCheck(opts.DB))

	api := router.Group("/api")
	NewAuthHandler(svc.Auth).RegisterRoutes(api)
	NewUserHandler(svc.Users, svc.Auth, opts.PageSize).RegisterRoutes(api)
	NewCatalogHandler(svc.Catalog).RegisterRoutes(api)
	NewRecipeHandler(svc.Recipes, svc.Shopping, svc.Auth, opts.CreateLimiter, opts.PageSize).RegisterRoutes(api)
}
