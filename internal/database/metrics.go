package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

// slowQueryThreshold 느린 쿼리 기준
const slowQueryThreshold = time.Second

const startTimeKey = "metrics:start_time"

var (
	// DB 쿼리 실행 시간
	dbQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "where_smoking_db_query_duration_seconds",
			Help:    "Database query execution time in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation", "table", "status"},
	)

	// DB 에러 횟수
	dbErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_db_errors_total",
			Help: "Total number of database errors",
		},
		[]string{"operation", "table", "error_type"},
	)

	// 느린 쿼리 횟수
	dbSlowQueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "where_smoking_db_slow_queries_total",
			Help: "Total number of slow queries (>1 second)",
		},
		[]string{"operation", "table"},
	)

	dbConnectionPool = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "where_smoking_db_connection_pool",
			Help: "Database connection pool state",
		},
		[]string{"state"}, // max_open | idle | in_use
	)
)

// MetricsPlugin GORM metrics plugin
type MetricsPlugin struct{}

func (p *MetricsPlugin) Name() string {
	return "whereSmokingMetrics"
}

// Initialize registers before/after callbacks around every gorm processor.
func (p *MetricsPlugin) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	register := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"INSERT",
			func(n string) error { return cb.Create().Before("gorm:create").Register(n, markStart) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, observe("INSERT")) }},
		{"SELECT",
			func(n string) error { return cb.Query().Before("gorm:query").Register(n, markStart) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, observe("SELECT")) }},
		{"UPDATE",
			func(n string) error { return cb.Update().Before("gorm:update").Register(n, markStart) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, observe("UPDATE")) }},
		{"DELETE",
			func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, markStart) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, observe("DELETE")) }},
		{"ROW",
			func(n string) error { return cb.Row().Before("gorm:row").Register(n, markStart) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, observe("ROW")) }},
		{"RAW",
			func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, markStart) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, observe("RAW")) }},
	}

	for _, r := range register {
		if err := r.before("metrics:before_" + r.op); err != nil {
			return err
		}
		if err := r.after("metrics:after_" + r.op); err != nil {
			return err
		}
	}
	return nil
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startTimeKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}

		elapsed := time.Since(start)
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}

		status := "success"
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			status = "error"
			dbErrorsTotal.WithLabelValues(operation, table, fmt.Sprintf("%T", db.Error)).Inc()
		}

		dbQueryDuration.WithLabelValues(operation, table, status).Observe(elapsed.Seconds())
		if elapsed > slowQueryThreshold {
			dbSlowQueriesTotal.WithLabelValues(operation, table).Inc()
		}
	}
}

// UpdateConnectionPoolMetrics connection pool 메트릭 갱신
func UpdateConnectionPoolMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	stats := sqlDB.Stats()
	dbConnectionPool.WithLabelValues("max_open").Set(float64(stats.MaxOpenConnections))
	dbConnectionPool.WithLabelValues("idle").Set(float64(stats.Idle))
	dbConnectionPool.WithLabelValues("in_use").Set(float64(stats.InUse))
}

// StartConnectionPoolMetricsCollector connection pool 메트릭 수집 (ctx 취소 시 종료)
func StartConnectionPoolMetricsCollector(ctx context.Context, db *gorm.DB, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			UpdateConnectionPoolMetrics(db)
		}
	}
}
