package main // Entry point package

import (
	"context" // Context for the boot-time migration
	"log"     // Logging library
	"time"    // Migration timeout

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/minigarage/showroom/internal/config"     // Environment config loaders
	"github.com/minigarage/showroom/internal/database"   // MySQL pool and schema migration
	"github.com/minigarage/showroom/internal/handler"    // HTTP handlers
	"github.com/minigarage/showroom/internal/middleware" // Rate limiting and response cache
	"github.com/minigarage/showroom/internal/queue"      // Background order.placed consumer
	"github.com/minigarage/showroom/internal/repository" // Data access layer
	"github.com/minigarage/showroom/internal/router"     // Route registration
	"github.com/minigarage/showroom/internal/service"    // Reservation and checkout services
	"github.com/minigarage/showroom/internal/session"    // Redis-backed cart store
)

func main() {
	_ = godotenv.Load() // Load .env if present; real env vars win

	cfg := config.Load() // Load required environment config or die

	// Open the MySQL pool and ensure the schema exists before serving.
	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database open failed: %v", err)
	}
	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		log.Fatalf("database migration failed: %v", err)
	}
	cancel()

	// The cart lives in Redis, so unlike the cache and rate limiter the
	// service cannot run without it.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Fatal("redis unavailable: the cart store requires it")
	}

	items := repository.NewItemRepo(db)
	holds := repository.NewHoldRepo(db)
	orders := repository.NewOrderRepo(db)

	holdTTL := time.Duration(cfg.HoldTTLMin) * time.Minute
	res := service.NewReservationService(db, items, holds, holdTTL)
	checkout := service.NewCheckoutService(res, items, holds, orders)
	carts := session.NewCartStore(rdb)

	catalogH := handler.NewCatalogHandler(items, res)
	cartH := handler.NewCartHandler(items, res, carts)
	checkoutH := handler.NewCheckoutHandler(checkout, orders, carts)
	adminH := handler.NewAdminHandler(cfg, items, holds, orders, res)

	e := echo.New()
	e.HideBanner = true

	// Rate limiting covers the whole surface; it fails open when Redis
	// has trouble, so it never takes the storefront down with it.
	rlCfg := config.LoadRateLimitConfig()
	if rlCfg.Enabled {
		e.Use(middleware.NewTokenBucket(rlCfg, rdb))
	}

	// The response cache only fronts the public catalog reads.
	var cacheMW echo.MiddlewareFunc
	cacheCfg := config.LoadCacheConfig()
	if cacheCfg.Enabled {
		cacheMW = middleware.NewRedisCache(cacheCfg, rdb)
	}

	router.RegisterRoutes(e)                       // Health check
	router.RegisterPublic(e, catalogH, cacheMW)    // Public catalog
	router.RegisterCart(e, cartH, checkoutH)       // Session cart + checkout
	router.RegisterAdmin(e, adminH, cfg.JWTSecret) // Admin panel

	// Consume order.placed events in the background; it reconnects on
	// its own and never blocks startup.
	go queue.StartOrderConsumer()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, hold ttl=%s)", addr, cfg.Env, holdTTL)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
