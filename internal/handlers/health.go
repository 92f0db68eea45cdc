package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/taehoonhoonn/where-smoking/internal/models"
	"github.com/taehoonhoonn/where-smoking/internal/repository"
	"go.uber.org/zap"
)

const healthCheckTimeout = 3 * time.Second

// PoolStatter 커넥션 풀 상태 (Postgres만 제공)
type PoolStatter interface {
	PoolStats() map[string]any
}

type HealthHandler struct {
	store       repository.SmokingAreaStore
	pool        PoolStatter
	version     string
	environment string
	startedAt   time.Time
	log         *zap.SugaredLogger
}

// NewHealthHandler builds the health handler. pool may be nil.
func NewHealthHandler(store repository.SmokingAreaStore, pool PoolStatter, version, environment string, log *zap.SugaredLogger) *HealthHandler {
	return &HealthHandler{
		store:       store,
		pool:        pool,
		version:     version,
		environment: environment,
		startedAt:   time.Now(),
		log:         log,
	}
}

func SetupHealthRoutes(router fiber.Router, h *HealthHandler) {
	router.Get("/", h.Health)
	router.Get("/database", h.Database)
}

// HealthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Router /healthz [get]
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "healthy",
	})
}

func (h *HealthHandler) poolStats() map[string]any {
	if h.pool == nil {
		return nil
	}
	return h.pool.PoolStats()
}

// Health godoc
// @Summary Service health with database status
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	dbErr := h.store.Ping(ctx)
	resp := fiber.Map{
		"status":      "ok",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"uptime":      time.Since(h.startedAt).Seconds(),
		"environment": h.environment,
		"version":     h.version,
		"database": fiber.Map{
			"connected":       dbErr == nil,
			"connection_pool": h.poolStats(),
		},
		"response_time": time.Since(start).Milliseconds(),
	}

	if dbErr != nil {
		h.log.Warnw("Health check degraded", "error", dbErr)
		resp["status"] = "degraded"
		resp["issues"] = []string{"Database connection failed"}
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// Database godoc
// @Summary Database health with active record count
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health/database [get]
func (h *HealthHandler) Database(c *fiber.Ctx) error {
	start := time.Now()
	ctx, cancel := context.WithTimeout(c.UserContext(), healthCheckTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.log.Warnw("Database health check failed", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "error",
			"message":   "Database connection failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	count, err := h.store.Count(ctx, repository.ListFilter{Status: models.StatusActive})
	if err != nil {
		h.log.Errorw("Database health check failed", "op", "Count", "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "error",
			"error":     "Database health check failed",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}

	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"connection": fiber.Map{
			"status":     "connected",
			"pool_stats": h.poolStats(),
		},
		"data": fiber.Map{
			"smoking_areas_count": count,
		},
		"response_time": time.Since(start).Milliseconds(),
	})
}

// Root godoc
// @Summary Service information
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"name":        "where-smoking API",
		"version":     h.version,
		"environment": h.environment,
		"endpoints": fiber.Map{
			"health":        "/api/v1/health",
			"smoking_areas": "/api/v1/smoking-areas",
			"nearby":        "/api/v1/smoking-areas/nearby?lat={lat}&lng={lng}&radius={radius}",
			"statistics":    "/api/v1/smoking-areas/statistics",
			"places":        "/api/v1/places/search?query={query}",
			"metrics":       "/metrics",
		},
	})
}
