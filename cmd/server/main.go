package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"parking/internal/app"
	"parking/internal/config"
	"parking/internal/handler"
	"parking/internal/queue"
	internalRedis "parking/internal/redis"
	"parking/internal/repository/postgres"
	"parking/internal/service"
)

func main() {
	// Load configuration.
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s (with DB instrumentation)", cfg.NewRelic.AppName)
		}
	}

	// Initialize database with New Relic instrumentation.
	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	// Initialize Redis with New Relic instrumentation.
	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Connected to Redis")

	// Wire dependencies.
	server, ledgerService := wireServer(db, redisClient, nrApp, cfg)

	// Reap stale reservations in the background.
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go runReservationReaper(reaperCtx, ledgerService, cfg.Parking.ReaperInterval)

	// Start server in goroutine.
	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopReaper()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server along with
// the ledger service the reaper drives.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) (*http.Server, *service.LedgerService) {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	verificationStore := internalRedis.NewVerificationStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient)

	// Initialize repositories.
	lotRepo := postgres.NewLotRepository(db)
	spaceRepo := postgres.NewSpaceRepository(db)
	occupancyRepo := postgres.NewOccupancyRepository(db)
	billRepo := postgres.NewBillRepository(db)
	userRepo := postgres.NewUserRepository(db)
	vehicleRepo := postgres.NewVehicleRepository(db)

	// Initialize the event publisher.
	publisher := queue.NewPublisher(cfg.Broker.URL)
	if publisher.Enabled() {
		log.Println("RabbitMQ event publishing enabled")
	}

	// Initialize services.
	notificationService := service.NewNotificationService()
	registryService := service.NewRegistryService(spaceRepo, cacheStore)
	allocatorService := service.NewAllocatorService(registryService, lockStore, cfg.Parking.AllocatorMaxAttempts)
	verificationService := service.NewVerificationService(verificationStore, occupancyRepo)
	billingService := service.NewBillingService(billRepo, occupancyRepo, notificationService)
	lotService := service.NewLotService(lotRepo, cacheStore)
	userService := service.NewUserService(userRepo)
	vehicleService := service.NewVehicleService(vehicleRepo)
	ledgerService := service.NewLedgerService(
		db, occupancyRepo, spaceRepo, lotRepo, vehicleRepo, billRepo,
		registryService, billingService, verificationService,
		cacheStore, publisher, notificationService,
		cfg.Parking.ReservationTTL,
	)

	// Initialize handlers.
	occupancyHandler := handler.NewOccupancyHandler(ledgerService, verificationService)
	spaceHandler := handler.NewSpaceHandler(registryService, allocatorService, ledgerService)
	lotHandler := handler.NewLotHandler(lotService, registryService)
	billingHandler := handler.NewBillingHandler(billingService)
	userHandler := handler.NewUserHandler(userService)
	vehicleHandler := handler.NewVehicleHandler(vehicleService)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		OccupancyHandler: occupancyHandler,
		SpaceHandler:     spaceHandler,
		LotHandler:       lotHandler,
		BillingHandler:   billingHandler,
		UserHandler:      userHandler,
		VehicleHandler:   vehicleHandler,
		RedisClient:      redisClient,
		NewRelicApp:      nrApp,
	})

	// Create HTTP server.
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return server, ledgerService
}

// runReservationReaper periodically cancels reservations that never reached
// check-in within the configured TTL.
func runReservationReaper(ctx context.Context, ledger *service.LedgerService, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := ledger.ExpireStaleReservations(ctx)
			if err != nil {
				log.Printf("reservation reaper: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("reservation reaper: expired %d stale reservations", n)
			}
		}
	}
}
