package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	ServerPort string
	ServerEnv  string
	APIVersion string

	// Storage
	StoreDriver   string // postgres | mongo
	DatabaseURL   string
	RunMigrations bool
	MongoURI      string
	MongoDB       string

	// Redis (statistics cache, optional)
	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	StatisticsCacheTTL time.Duration

	// Admin - 비어 있으면 관리자 인증을 건너뜀
	AdminAccessToken string

	// Kakao Local API
	KakaoRESTAPIKey string
	KakaoTimeout    time.Duration

	// HTTP
	CORSOrigin           string
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration

	// Service area (citizen submissions only)
	ServiceArea ServiceArea

	// Observability
	SigNozEndpoint      string
	LogLevel            string
	MetricsInternalOnly bool
}

// ServiceArea is the rectangle citizen submissions must fall inside.
type ServiceArea struct {
	Name   string
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

func Load() *Config {
	return &Config{
		// Server (PORT도 허용)
		ServerPort: getEnvWithFallback("SERVER_PORT", "PORT", "3000"),
		ServerEnv:  getEnv("SERVER_ENV", "development"),
		APIVersion: getEnv("API_VERSION", "v1"),

		// Storage
		StoreDriver:   strings.ToLower(getEnv("STORE_DRIVER", "postgres")),
		DatabaseURL:   getDatabaseURL(),
		RunMigrations: getEnvAsBool("RUN_MIGRATIONS", true),
		MongoURI:      getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "where_smoking"),

		// Redis
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsInt("REDIS_DB", 0),
		StatisticsCacheTTL: getEnvAsDuration("STATISTICS_CACHE_TTL", time.Minute),

		// Admin
		AdminAccessToken: getEnv("ADMIN_ACCESS_TOKEN", ""),

		// Kakao
		KakaoRESTAPIKey: getEnv("KAKAO_REST_API_KEY", ""),
		KakaoTimeout:    getEnvAsDuration("KAKAO_TIMEOUT", 5*time.Second),

		// HTTP
		CORSOrigin:           getEnv("CORS_ORIGIN", "*"),
		RateLimitMaxRequests: getEnvAsInt("RATE_LIMIT_MAX_REQUESTS", 100),
		RateLimitWindow:      getEnvAsDuration("RATE_LIMIT_WINDOW", 15*time.Minute),

		// Service area - 서울 지역 대략적 범위
		ServiceArea: ServiceArea{
			Name:   getEnv("SERVICE_AREA_NAME", "서울특별시"),
			MinLat: getEnvAsFloat("SERVICE_AREA_MIN_LAT", 37.3),
			MaxLat: getEnvAsFloat("SERVICE_AREA_MAX_LAT", 37.8),
			MinLng: getEnvAsFloat("SERVICE_AREA_MIN_LNG", 126.5),
			MaxLng: getEnvAsFloat("SERVICE_AREA_MAX_LNG", 127.3),
		},

		// Observability
		SigNozEndpoint:      getEnv("SIGNOZ_ENDPOINT", ""),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		MetricsInternalOnly: getEnvAsBool("METRICS_INTERNAL_ONLY", false),
	}
}

// IsDevelopment reports whether internal error detail may be shown to clients.
func (c *Config) IsDevelopment() bool {
	return c.ServerEnv == "development"
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvWithFallback tries primary key first, then fallback key
func getEnvWithFallback(primary, fallback, defaultValue string) string {
	if value, exists := os.LookupEnv(primary); exists && value != "" {
		return value
	}
	if value, exists := os.LookupEnv(fallback); exists && value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	switch strings.ToLower(value) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// getDatabaseURL returns DATABASE_URL or builds it from individual env vars
func getDatabaseURL() string {
	// 1. DATABASE_URL이 있으면 그대로 사용
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	// 2. 개별 환경변수로 구성 (DB_* 키 이름도 허용)
	host := getEnvWithFallback("POSTGRES_HOST", "DB_HOST", "localhost")
	port := getEnvWithFallback("POSTGRES_PORT", "DB_PORT", "5432")
	user := getEnvWithFallback("POSTGRES_USER", "DB_USER", "postgres")
	password := getEnvWithFallback("POSTGRES_PASSWORD", "DB_PASSWORD", "")
	dbname := getEnvWithFallback("POSTGRES_DB", "DB_NAME", "where_smoking")
	sslmode := getEnv("POSTGRES_SSLMODE", "disable")

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		user, password, host, port, dbname, sslmode)
}
