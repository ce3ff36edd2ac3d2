package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gamegscore/cache"
	"gamegscore/catalog"
	"gamegscore/config"
	"gamegscore/db"
	"gamegscore/handlers"
	"gamegscore/middleware"
	"gamegscore/monitoring"
	"gamegscore/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Log.Fatalf("Failed to load configuration: %v", err)
	}

	utils.InitLogger(cfg.Log.Level, cfg.Log.File, cfg.IsRelease())
	if err := cfg.Validate(); err != nil {
		utils.Log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.Auth.JWTSecret == config.DefaultJWTSecret {
		utils.LogWarn("JWT_SECRET is not set, tokens are signed with the default secret", nil)
	}

	if err := db.InitDB(cfg.Database.URL, cfg.Database.AutoMigrate); err != nil {
		utils.Log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// The API still works without Redis, only slower
	if err := cache.InitRedis(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		utils.LogWarn("Redis unavailable, caching and rate limiting disabled", map[string]interface{}{"error": err.Error()})
	} else {
		defer cache.CloseRedis()
	}

	if cfg.Catalog.APIKey == "" {
		utils.LogWarn("GIANTBOMB_API_KEY is not set, catalog requests will fail", nil)
	}
	catalog.Client = catalog.NewGiantBomb(catalog.Options{
		BaseURL:   cfg.Catalog.BaseURL,
		APIKey:    cfg.Catalog.APIKey,
		UserAgent: cfg.Catalog.UserAgent,
		Limit:     cfg.Catalog.Limit,
		Timeout:   cfg.Catalog.Timeout,
	})

	monitoring.InitMetrics()
	handlers.Configure(cfg)
	if cfg.Admin.AllowReset {
		utils.LogWarn("DANGEROUS-RESET-DB is enabled", nil)
	}

	// Set to release mode in production
	if cfg.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger("/metrics"))
	r.Use(middleware.ErrorLogger())
	r.Use(monitoring.PrometheusMiddleware())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RemovePoweredBy())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
	}))

	handlers.RegisterRoutes(r)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	useHTTPS := cfg.Server.UseHTTPS && cfg.Server.TLSCertFile != "" && cfg.Server.TLSKeyFile != ""
	if useHTTPS {
		// TLS Configuration with secure defaults
		server.TLSConfig = &tls.Config{
			MinVersion:       tls.VersionTLS12,
			CurvePreferences: []tls.CurveID{tls.CurveP521, tls.CurveP384, tls.CurveP256},
			CipherSuites: []uint16{
				tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
				tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
				tls.TLS_ECDHE_ECDSA_WITH_AES_128_GCM_SHA256,
			},
		}
	}

	go func() {
		var err error
		if useHTTPS {
			utils.LogInfo("Starting server with HTTPS", map[string]interface{}{
				"port": cfg.Server.Port,
				"cert": cfg.Server.TLSCertFile,
			})
			err = server.ListenAndServeTLS(cfg.Server.TLSCertFile, cfg.Server.TLSKeyFile)
		} else {
			utils.LogInfo("Starting server with HTTP", map[string]interface{}{"port": cfg.Server.Port})
			if cfg.IsRelease() {
				utils.LogWarn("Running without HTTPS. Set USE_HTTPS=true for production", nil)
			}
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	utils.LogInfo("Shutting down server", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		utils.LogError("Server forced to shut down", map[string]interface{}{"error": err.Error()})
	}
}
