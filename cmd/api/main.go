package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/taehoonhoonn/where-smoking/internal/cache"
	"github.com/taehoonhoonn/where-smoking/internal/config"
	"github.com/taehoonhoonn/where-smoking/internal/database"
	"github.com/taehoonhoonn/where-smoking/internal/geo"
	"github.com/taehoonhoonn/where-smoking/internal/handlers"
	"github.com/taehoonhoonn/where-smoking/internal/logger"
	"github.com/taehoonhoonn/where-smoking/internal/middleware"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"github.com/taehoonhoonn/where-smoking/internal/services"
	"github.com/taehoonhoonn/where-smoking/internal/submission"
	"github.com/taehoonhoonn/where-smoking/internal/telemetry"
	"github.com/taehoonhoonn/where-smoking/pkg/kakao"
	"go.uber.org/zap"
)

const serviceName = "where-smoking-api"

// @title where-smoking API
// @version 1.0.0
// @description 흡연구역 위치 조회 및 시민 제보 API
// @BasePath /api/v1
// @securityDefinitions.apikey AdminToken
// @in header
// @name X-Admin-Token
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	if err := logger.Init(logger.Options{Level: cfg.LogLevel, Development: cfg.IsDevelopment()}); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLog := logger.GetLogger("main")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize OpenTelemetry Tracer
	tracerShutdown, err := telemetry.InitTracer(ctx, serviceName, cfg.SigNozEndpoint, logger.GetLogger("telemetry"))
	if err != nil {
		appLog.Warnw("Failed to initialize tracer", "error", err)
	}
	defer func() {
		if tracerShutdown == nil {
			return
		}
		if err := tracerShutdown(context.Background()); err != nil {
			appLog.Warnw("Error shutting down tracer", "error", err)
		}
	}()

	// Initialize OpenTelemetry Metrics
	meterShutdown, err := telemetry.InitMeter(ctx, serviceName, cfg.SigNozEndpoint, logger.GetLogger("telemetry"))
	if err != nil {
		appLog.Warnw("Failed to initialize metrics", "error", err)
	}
	defer func() {
		if meterShutdown == nil {
			return
		}
		if err := meterShutdown(context.Background()); err != nil {
			appLog.Warnw("Error shutting down metrics", "error", err)
		}
	}()

	// Storage
	store, pool, closeStore, err := openStore(ctx, cfg, logger.GetLogger("database"))
	if err != nil {
		appLog.Fatalw("Failed to open store", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStore()

	// Statistics cache
	var statsCache cache.Store = cache.Noop{}
	if cfg.RedisAddr != "" {
		rc := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, "where-smoking:")
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			appLog.Warnw("Redis unavailable, statistics cache disabled", "addr", cfg.RedisAddr, "error", err)
			_ = rc.Close()
		} else {
			statsCache = rc
			defer rc.Close()
		}
		pingCancel()
	}

	// Services
	svcLog := logger.GetLogger("services")
	area := geo.Bounds{
		MinLat: cfg.ServiceArea.MinLat,
		MaxLat: cfg.ServiceArea.MaxLat,
		MinLng: cfg.ServiceArea.MinLng,
		MaxLng: cfg.ServiceArea.MaxLng,
	}
	areas := services.NewSmokingAreaService(store, statsCache, cfg.StatisticsCacheTTL, svcLog)
	moderation := services.NewModerationService(store, submission.NewNormalizer(area, cfg.ServiceArea.Name), areas, svcLog)
	reports := services.NewReportService(store, svcLog)
	places := services.NewPlaceService(kakao.NewClient(cfg.KakaoRESTAPIKey, cfg.KakaoTimeout), svcLog)
	if cfg.KakaoRESTAPIKey == "" {
		appLog.Warn("KAKAO_REST_API_KEY not set; place search will return 500")
	}

	// Initialize Fiber app
	handlerLog := logger.GetLogger("handlers")
	app := fiber.New(fiber.Config{
		AppName:      "where-smoking API",
		ErrorHandler: handlers.ErrorHandler(cfg.IsDevelopment(), handlerLog),
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	// JSON 구조화 접근 로그
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     `{"time":"${time}","request_id":"${locals:requestid}","status":${status},"latency":"${latency}","ip":"${ip}","method":"${method}","path":"${path}","user_agent":"${ua}","error":"${error}"}` + "\n",
		TimeFormat: "2006-01-02T15:04:05Z07:00",
		TimeZone:   "Asia/Seoul",
	}))
	app.Use(telemetry.New(telemetry.Config{
		ServiceName: serviceName,
	}))
	app.Use(middleware.PrometheusMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigin,
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
		AllowHeaders: "Accept, Authorization, Content-Type, Origin, X-Requested-With, X-Admin-Token",
		MaxAge:       86400, // Preflight 캐시 24시간
	}))
	app.Use(helmet.New())
	app.Use(compress.New())

	// Setup routes
	setupRoutes(app, cfg, routeDeps{
		store:      store,
		pool:       pool,
		areas:      areas,
		moderation: moderation,
		reports:    reports,
		places:     places,
		log:        handlerLog,
	})

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		appLog.Info("Shutting down server...")
		cancel()
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			appLog.Errorw("Error shutting down server", "error", err)
		}
	}()

	appLog.Infow("Server starting", "port", cfg.ServerPort, "env", cfg.ServerEnv, "store", cfg.StoreDriver)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		appLog.Fatalw("Failed to start server", "error", err)
	}
}

// openStore connects the configured store. pool is nil for MongoDB.
func openStore(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (repository.SmokingAreaStore, handlers.PoolStatter, func(), error) {
	switch cfg.StoreDriver {
	case "postgres":
		if cfg.RunMigrations {
			if err := database.Migrate(cfg.DatabaseURL, log); err != nil {
				return nil, nil, nil, err
			}
		}
		db, err := database.Connect(cfg, log)
		if err != nil {
			return nil, nil, nil, err
		}
		go database.StartConnectionPoolMetricsCollector(ctx, db.DB, 15*time.Second)
		closeFn := func() {
			if err := db.Close(); err != nil {
				log.Warnw("Error closing database", "error", err)
			}
		}
		return repository.NewGormStore(db), db, closeFn, nil

	case "mongo":
		client, mdb, err := database.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDB, log)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				log.Warnw("Error disconnecting MongoDB", "error", err)
			}
		}
		return repository.NewMongoStore(mdb), nil, closeFn, nil
	}
	return nil, nil, nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
}

type routeDeps struct {
	store      repository.SmokingAreaStore
	pool       handlers.PoolStatter
	areas      *services.SmokingAreaService
	moderation *services.ModerationService
	reports    *services.ReportService
	places     *services.PlaceService
	log        *zap.SugaredLogger
}

func setupRoutes(app *fiber.App, cfg *config.Config, deps routeDeps) {
	health := handlers.NewHealthHandler(deps.store, deps.pool, telemetry.ServiceVersion, cfg.ServerEnv, deps.log)

	// Health check endpoints for k8s probes
	app.Get("/healthz", handlers.HealthCheck)
	app.Get("/", middleware.RouteGroup(middleware.GroupHealth), health.Root)

	// Prometheus scrape endpoint
	if cfg.MetricsInternalOnly {
		app.Get("/metrics", middleware.InternalOnly(), middleware.PrometheusHandler())
	} else {
		app.Get("/metrics", middleware.PrometheusHandler())
	}

	// API v1 group
	v1 := app.Group("/api/" + cfg.APIVersion)
	handlers.SetupHealthRoutes(v1.Group("/health", middleware.RouteGroup(middleware.GroupHealth)), health)

	// 헬스체크 이외의 API에만 요청 제한 적용
	limited := limiter.New(limiter.Config{
		Max:        cfg.RateLimitMaxRequests,
		Expiration: cfg.RateLimitWindow,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(handlers.ErrorResponse{
				Success: false,
				Error:   "Too many requests",
				Message: "요청이 너무 많습니다. 잠시 후 다시 시도해주세요.",
			})
		},
	})

	admin := middleware.AdminAuth(cfg.AdminAccessToken, deps.log)
	exposeInternal := cfg.IsDevelopment()

	smokingAreas := v1.Group("/smoking-areas", middleware.RouteGroup(middleware.GroupPublic), limited)
	handlers.SetupSmokingAreaRoutes(smokingAreas,
		handlers.NewSmokingAreaHandler(deps.areas, deps.moderation, deps.reports, exposeInternal, deps.log),
		admin)

	places := v1.Group("/places", middleware.RouteGroup(middleware.GroupPlaces), limited)
	handlers.SetupPlaceRoutes(places, handlers.NewPlaceHandler(deps.places, exposeInternal, deps.log))
}
