package app

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"parking/internal/handler"
	"parking/internal/middleware"
)

// RouterDeps contains all dependencies needed for the router.
type RouterDeps struct {
	OccupancyHandler *handler.OccupancyHandler
	SpaceHandler     *handler.SpaceHandler
	LotHandler       *handler.LotHandler
	BillingHandler   *handler.BillingHandler
	UserHandler      *handler.UserHandler
	VehicleHandler   *handler.VehicleHandler
	RedisClient      *redis.Client
	NewRelicApp      *newrelic.Application
}

// NewRouter creates a new Gin router with all routes registered.
func NewRouter(deps RouterDeps) *gin.Engine {
	router := gin.New()

	// Global middleware.
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(middleware.CORSMiddleware())

	// Add New Relic middleware if enabled.
	if deps.NewRelicApp != nil {
		router.Use(nrgin.Middleware(deps.NewRelicApp))
	}

	router.Use(middleware.IdempotencyMiddleware(deps.RedisClient))

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// API v1 routes.
	v1 := router.Group("/v1")
	{
		// Occupancy lifecycle routes.
		occupancies := v1.Group("/occupancies")
		{
			occupancies.POST("/reserve", deps.OccupancyHandler.Reserve)
			occupancies.GET("/active", deps.OccupancyHandler.GetActive)
			occupancies.GET("/history", deps.OccupancyHandler.History)
			occupancies.GET("/:id", deps.OccupancyHandler.Get)
			occupancies.POST("/:id/check-in", deps.OccupancyHandler.CheckIn)
			occupancies.POST("/:id/check-out", deps.OccupancyHandler.CheckOut)
			occupancies.POST("/:id/cancel", deps.OccupancyHandler.Cancel)
			occupancies.PUT("/:id/verification", deps.OccupancyHandler.RecordVerification)
		}

		// Space routes.
		spaces := v1.Group("/spaces")
		{
			spaces.GET("", deps.SpaceHandler.ListAvailable)
			spaces.POST("", deps.SpaceHandler.Create)
			spaces.POST("/allocate", deps.SpaceHandler.Allocate)
			spaces.POST("/:id/maintenance", deps.SpaceHandler.SetMaintenance)
		}

		// Lot routes.
		lots := v1.Group("/lots")
		{
			lots.POST("", deps.LotHandler.Create)
			lots.GET("", deps.LotHandler.GetAll)
			lots.GET("/:id", deps.LotHandler.Get)
			lots.PUT("/:id", deps.LotHandler.Update)
			lots.GET("/:id/availability", deps.LotHandler.Availability)
		}

		// Bill routes.
		bills := v1.Group("/bills")
		{
			bills.GET("/:id", deps.BillingHandler.Get)
			bills.POST("/:id/pay", deps.BillingHandler.Pay)
		}

		// User routes.
		users := v1.Group("/users")
		{
			users.POST("/register", deps.UserHandler.Register)
			users.GET("", deps.UserHandler.GetAll)
		}

		// Vehicle routes.
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("/register", deps.VehicleHandler.Register)
			vehicles.GET("", deps.VehicleHandler.List)
			vehicles.GET("/:id", deps.VehicleHandler.Get)
		}
	}

	return router
}
