package handlers

import (
	"time"

	"gamegscore/config"
	"gamegscore/middleware"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-gonic/gin"
)

var (
	Tokens         *utils.TokenIssuer
	DefaultOwnerID uint = 1
	AllowReset     bool

	// RateLimit requests per RateWindow for each owner or client IP; 0 disables it
	RateLimit  int
	RateWindow = time.Minute
)

// Configure applies the settings the handlers read at request time
func Configure(cfg *config.Config) {
	Tokens = utils.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if cfg.Auth.DefaultOwnerID != 0 {
		DefaultOwnerID = cfg.Auth.DefaultOwnerID
	}
	AllowReset = cfg.Admin.AllowReset
	RateLimit = cfg.Server.RateLimit
	if cfg.Server.RateWindow > 0 {
		RateWindow = cfg.Server.RateWindow
	}
}

// RegisterRoutes mounts every endpoint of the API
func RegisterRoutes(r *gin.Engine) {
	r.GET("/metrics", monitoring.PrometheusHandler())

	api := r.Group("/api")
	// the limiter keys on the owner AuthMiddleware resolved, so it runs second
	api.Use(AuthMiddleware(), middleware.RateLimitMiddleware(RateLimit, RateWindow))
	{
		api.GET("", Root)
		api.GET("/ola", Hello)
		api.GET("/test-db", TestDB)

		api.GET("/search", SearchGames)
		api.GET("/game/:id", GetGameByID)

		api.GET("/review", GetReview)
		api.POST("/review", SaveReview)
		api.GET("/my-reviews", GetMyReviews)
		api.GET("/stats", GetProfileStats)

		api.POST("/create-user", CreateUser)
		api.POST("/login", Login)

		api.GET("/create-tables", CreateTables)
		api.GET("/DANGEROUS-RESET-DB", ResetDatabase)
	}
}
