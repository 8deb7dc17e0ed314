package router

import (
	allocsvc "anihan-backend/internal/application/allocation"
	harvestsvc "anihan-backend/internal/application/harvests"
	presvc "anihan-backend/internal/application/preorders"
	prodsvc "anihan-backend/internal/application/products"
	"anihan-backend/internal/config"
	"anihan-backend/internal/infrastructure/database"
	harvesthandler "anihan-backend/internal/interfaces/handlers/harvests"
	healthhandler "anihan-backend/internal/interfaces/handlers/health"
	prehandler "anihan-backend/internal/interfaces/handlers/preorders"
	prodhandler "anihan-backend/internal/interfaces/handlers/products"
	"anihan-backend/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// CreateApp builds the Fiber app with all global middleware and route
// registration. The returned DB and Redis client are exposed so main can
// ping them at startup.
func CreateApp(cfg *config.Config) (*fiber.App, *gorm.DB, *redis.Client, error) {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          middleware.ErrorHandler,
	})

	app.Use(middleware.CORS(middleware.CORSConfig{
		AllowedSuffix: cfg.FrontendURLEndsWith,
	}))
	app.Use(middleware.Tracing())
	app.Use(middleware.RouteLogger())

	var db *gorm.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		if err := database.AutoMigrate(db); err != nil {
			return nil, nil, nil, err
		}
	}

	var rdb *redis.Client
	var emitter allocsvc.Emitter = &allocsvc.LogEmitter{}
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, nil, err
		}
		rdb = redis.NewClient(opts)
		emitter = &allocsvc.RedisEmitter{Rdb: rdb, Channel: cfg.MatchEventChannel}
	}

	healthHandlers := &healthhandler.Handlers{DB: db}
	app.Get("/health/json", healthHandlers.JSON)

	if db != nil {
		allocService := &allocsvc.Service{DB: db, Emitter: emitter}

		productService := &prodsvc.Service{DB: db}
		productHandlers := &prodhandler.Handlers{Service: productService}
		productGroup := app.Group("/api/v1/products")
		productGroup.Post("/create-product", productHandlers.CreateProduct)
		productGroup.Get("/get-product/:product_id", productHandlers.GetProduct)

		harvestService := &harvestsvc.Service{DB: db, Allocator: allocService, Async: true}
		harvestHandlers := &harvesthandler.Handlers{Service: harvestService, Allocations: allocService}
		harvestGroup := app.Group("/api/v1/harvests")
		harvestGroup.Post("/record-harvest", harvestHandlers.RecordHarvest)
		harvestGroup.Post("/publish-harvest/:harvest_id", harvestHandlers.PublishHarvest)
		harvestGroup.Post("/reprocess-harvest/:harvest_id", harvestHandlers.ReprocessHarvest)
		harvestGroup.Get("/get-harvest/:harvest_id", harvestHandlers.GetHarvest)
		harvestGroup.Get("/get-seller-harvests", harvestHandlers.GetSellerHarvests)
		harvestGroup.Get("/get-harvest-allocations/:harvest_id", harvestHandlers.GetHarvestAllocations)

		preorderService := &presvc.Service{DB: db}
		preorderHandlers := &prehandler.Handlers{Service: preorderService, Allocations: allocService}
		preorderGroup := app.Group("/api/v1/preorders")
		preorderGroup.Post("/create-preorder", preorderHandlers.CreatePreorder)
		preorderGroup.Get("/get-preorder/:preorder_id", preorderHandlers.GetPreorder)
		preorderGroup.Get("/get-consumer-preorders", preorderHandlers.GetConsumerPreorders)
		preorderGroup.Get("/get-seller-preorders", preorderHandlers.GetSellerPreorders)
		preorderGroup.Get("/get-preorder-allocations/:preorder_id", preorderHandlers.GetPreorderAllocations)
	}

	return app, db, rdb, nil
}
