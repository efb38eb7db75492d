package main

import (
	"net/http"

	"catalog-service/internal/handler"
	mid "catalog-service/internal/middleware"
	"catalog-service/internal/store"
	"catalog-service/pkg/config"
	"catalog-service/pkg/database"
	"catalog-service/pkg/jwtutil"
	"catalog-service/pkg/logger"
	"catalog-service/prometheus"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting catalog-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize JWT utility
	jwtutil.Initialize(&appConfig.JWT)

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Connect to the primary store and run migrations
	db, err := database.Connect(appConfig)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connection established")

	primary := store.NewDatabaseStore(db, appConfig.DB.QueryTimeout)
	if err := primary.Migrate(); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}

	// Remote product API client (secondary store)
	secondary := store.NewAPIStore(appConfig.API.BaseURL, appConfig.API.RequestTimeout, log)
	log.Info("Remote product API configured", zap.String("base_url", appConfig.API.BaseURL))

	// Hybrid facade: database-first with API fallback and best-effort mirroring
	hybrid := store.NewHybridStore(primary, secondary, log, store.HybridOptions{
		FillTimeout: appConfig.DB.QueryTimeout,
	})
	defer hybrid.Wait()

	products := handler.NewProductHandler(hybrid)
	sync := handler.NewSyncHandler(hybrid)
	upload := handler.NewUploadHandler(appConfig.Upload.Dir)

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Product API routes
	productAPI := e.Group("/api/products")
	if appConfig.JWT.Enabled {
		productAPI.Use(mid.AuthMiddleware)
	}
	productAPI.GET("", products.List)
	productAPI.GET("/:id", products.Get)
	productAPI.POST("", products.Create)
	productAPI.PUT("/:id", products.Update)
	productAPI.DELETE("/:id", products.Delete)

	// Reconciliation and bootstrap routes
	e.POST("/api/sync", sync.Sync)
	e.POST("/api/seed", sync.Seed)
	e.GET("/api/data-source", sync.DataSource)

	// Image upload; uploaded files are served back as static assets
	e.POST("/api/upload", upload.Upload)
	e.Static("/uploads", appConfig.Upload.Dir)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
