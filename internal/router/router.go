package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/courseloom/courseloom-backend/internal/config"
	"github.com/courseloom/courseloom-backend/internal/handler"
	"github.com/courseloom/courseloom-backend/internal/middleware"
	"github.com/courseloom/courseloom-backend/internal/response"
	"github.com/courseloom/courseloom-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth    *handler.AuthHandler
	Course  *handler.CourseHandler
	Draft   *handler.DraftHandler
	Publish *handler.PublishHandler
	WS      *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Every response carries request metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for login attempts (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// Auth group: public login plus authenticated profile routes.
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireAuthorJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireAuthorJWT(authService), handlers.Auth.Me)
	}

	// Editor group: everything an author does to their own courses.
	api := router.Group("/api/v1")
	api.Use(middleware.RequireAuthorJWT(authService))
	{
		api.GET("/categories", handlers.Course.Categories)
		api.GET("/skills", handlers.Course.Skills)

		api.GET("/courses", handlers.Course.List)
		api.POST("/courses", handlers.Course.Create)
		api.GET("/courses/:id", handlers.Course.Get)

		api.GET("/courses/:id/draft", handlers.Draft.Get)
		api.PUT("/courses/:id/draft", handlers.Draft.Save)
		api.POST("/courses/:id/draft/validate", handlers.Draft.Validate)
		api.GET("/courses/:id/draft/stats", handlers.Draft.Stats)

		api.POST("/courses/:id/request-approval", handlers.Publish.RequestApproval)
		api.POST("/courses/:id/publish", handlers.Publish.Publish)
	}

	// WebSocket group: token arrives as a query param since browsers
	// cannot set headers on a WebSocket handshake.
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAuthorWSAuth(authService))
	{
		ws.GET("/courses/:id/events", handlers.WS.CourseEventStream)
	}

	return router
}
