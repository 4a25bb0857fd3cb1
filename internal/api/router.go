package api

import (
	"database/sql"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/trip-hazards/internal/analysis"
	"github.com/jengzang/trip-hazards/internal/config"
	"github.com/jengzang/trip-hazards/internal/handler"
	"github.com/jengzang/trip-hazards/internal/kml"
	"github.com/jengzang/trip-hazards/internal/metrics"
	"github.com/jengzang/trip-hazards/internal/middleware"
	"github.com/jengzang/trip-hazards/internal/repository"
	"github.com/jengzang/trip-hazards/internal/service"

	// Import analyzer packages to register them
	_ "github.com/jengzang/trip-hazards/internal/analysis/trips"
)

// Services bundles everything the handlers call into
type Services struct {
	DB      *sql.DB
	Metrics *metrics.Collector
	Trips   *service.TripService
	Hazards *service.HazardService
	Tasks   *service.AnalysisTaskService
}

// NewServices builds the repositories and services over db
func NewServices(cfg *config.Config, db *sql.DB, collector *metrics.Collector) *Services {
	tripRepo := repository.NewTripRepository(db)
	hazardRepo := repository.NewHazardRepository(db)
	taskRepo := repository.NewAnalysisTaskRepository(db)

	return &Services{
		DB:      db,
		Metrics: collector,
		Trips:   service.NewTripService(tripRepo, cfg.Validator(), cfg.CostParams(), collector),
		Hazards: service.NewHazardService(tripRepo, hazardRepo, cfg.HazardOptions(), kml.DefaultStyles(), collector),
		Tasks: service.NewAnalysisTaskService(taskRepo, analysis.Deps{
			DB:        db,
			Hazards:   cfg.HazardOptions(),
			Cost:      cfg.CostParams(),
			Validator: cfg.Validator(),
			Metrics:   collector,
		}),
	}
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS())
	r.Use(svc.Metrics.Middleware())

	tripHandler := handler.NewTripHandler(svc.Trips, cfg.MaxUploadBytes, cfg.BestWorkers)
	hazardHandler := handler.NewHazardHandler(svc.Hazards)
	statsHandler := handler.NewStatsHandler(svc.Hazards)
	taskHandler := handler.NewAnalysisTaskHandler(svc.Tasks)

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		if err := svc.DB.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "message": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Trip hazards API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(svc.Metrics.Handler()))

	auth := middleware.Auth(cfg.JWTSecret)

	// API 路由组
	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateWindow))
	{
		trips := api.Group("/trips")
		{
			trips.GET("", tripHandler.GetTrips)
			trips.POST("", auth, tripHandler.UploadTrip)
			trips.GET("/:id", tripHandler.GetTripByID)
			trips.GET("/:id/path", tripHandler.GetTripPath)
			trips.GET("/:id/hazards", hazardHandler.GetHazards)
			trips.POST("/:id/hazards", auth, hazardHandler.DetectHazards)
			trips.GET("/:id/hazards.kml", hazardHandler.GetHazardsKML)
		}

		batches := api.Group("/batches")
		{
			batches.GET("/:batch/best", tripHandler.GetBestTrip)
			batches.GET("/:batch/stats", tripHandler.GetBatchStats)
		}

		api.GET("/stats", statsHandler.GetTotals)
	}

	// 管理接口
	admin := r.Group("/api/admin", auth)
	{
		admin.POST("/batches", tripHandler.ImportBatch)

		analysisGroup := admin.Group("/analysis")
		{
			analysisGroup.POST("/tasks", taskHandler.CreateTask)
			analysisGroup.GET("/tasks", taskHandler.ListTasks)
			analysisGroup.GET("/tasks/:id", taskHandler.GetTask)
			analysisGroup.DELETE("/tasks/:id", taskHandler.CancelTask)
			analysisGroup.POST("/trigger-chain", taskHandler.TriggerAnalysisChain)
		}
	}

	return r
}
