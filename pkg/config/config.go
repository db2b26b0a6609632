package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Timeline TimelineConfig
	Resolver ResolverConfig
	Forecast ForecastConfig
	Export   ExportConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// TimelineConfig governs the booking calendar surface.
type TimelineConfig struct {
	// RefreshInterval is the cadence the UI is told to re-fetch bookings at.
	// The server holds no timers; this is advisory metadata.
	RefreshInterval time.Duration
	// HorizonDays is the number of days a timeline response spans.
	HorizonDays int
	// Location is the IANA timezone the segment grid is anchored to.
	Location string
}

// ResolverConfig tunes topology resolution and recommendation ranking.
type ResolverConfig struct {
	MaxOptions int
	// Weights for the performance, availability, efficiency and reliability
	// axes. Equal weighting unless overridden.
	PerformanceWeight  float64
	AvailabilityWeight float64
	EfficiencyWeight   float64
	ReliabilityWeight  float64
	// HistoryDays bounds the booking history consulted for reliability.
	HistoryDays int
}

// ForecastConfig configures the availability-forecast collaborator client.
type ForecastConfig struct {
	BaseURL string
	Timeout time.Duration
	Retries int
}

// ExportConfig controls calendar/report export output.
type ExportConfig struct {
	Enabled    bool
	StorageDir string
	// ResultTTL bounds how long rendered artifacts and their download
	// tokens stay valid.
	ResultTTL time.Duration
	Workers   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Timeline = TimelineConfig{
		RefreshInterval: parseDuration(v.GetString("TIMELINE_REFRESH_INTERVAL"), 2*time.Minute),
		HorizonDays:     v.GetInt("TIMELINE_HORIZON_DAYS"),
		Location:        v.GetString("TIMELINE_LOCATION"),
	}

	cfg.Resolver = ResolverConfig{
		MaxOptions:         v.GetInt("RESOLVER_MAX_OPTIONS"),
		PerformanceWeight:  v.GetFloat64("RESOLVER_PERFORMANCE_WEIGHT"),
		AvailabilityWeight: v.GetFloat64("RESOLVER_AVAILABILITY_WEIGHT"),
		EfficiencyWeight:   v.GetFloat64("RESOLVER_EFFICIENCY_WEIGHT"),
		ReliabilityWeight:  v.GetFloat64("RESOLVER_RELIABILITY_WEIGHT"),
		HistoryDays:        v.GetInt("RESOLVER_HISTORY_DAYS"),
	}

	cfg.Forecast = ForecastConfig{
		BaseURL: v.GetString("FORECAST_BASE_URL"),
		Timeout: parseDuration(v.GetString("FORECAST_TIMEOUT"), 5*time.Second),
		Retries: v.GetInt("FORECAST_RETRIES"),
	}

	cfg.Export = ExportConfig{
		Enabled:    v.GetBool("ENABLE_EXPORTS"),
		StorageDir: v.GetString("EXPORTS_STORAGE_DIR"),
		ResultTTL:  parseDuration(v.GetString("EXPORTS_RESULT_TTL"), 24*time.Hour),
		Workers:    v.GetInt("EXPORTS_WORKERS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lab_reservations")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("TIMELINE_REFRESH_INTERVAL", "2m")
	v.SetDefault("TIMELINE_HORIZON_DAYS", 7)
	v.SetDefault("TIMELINE_LOCATION", "Local")

	v.SetDefault("RESOLVER_MAX_OPTIONS", 3)
	v.SetDefault("RESOLVER_PERFORMANCE_WEIGHT", 0.25)
	v.SetDefault("RESOLVER_AVAILABILITY_WEIGHT", 0.25)
	v.SetDefault("RESOLVER_EFFICIENCY_WEIGHT", 0.25)
	v.SetDefault("RESOLVER_RELIABILITY_WEIGHT", 0.25)
	v.SetDefault("RESOLVER_HISTORY_DAYS", 90)

	v.SetDefault("FORECAST_BASE_URL", "")
	v.SetDefault("FORECAST_TIMEOUT", "5s")
	v.SetDefault("FORECAST_RETRIES", 2)

	v.SetDefault("ENABLE_EXPORTS", false)
	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_RESULT_TTL", "24h")
	v.SetDefault("EXPORTS_WORKERS", 2)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
