// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Cache     CacheConfig
	Storage   StorageConfig
	Forecast  ForecastConfig
	Metrics   MetricsConfig
	LogLevel  string
	LogFormat string
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // "postgres" (lib/pq) or "pgx"
	URL      string // takes precedence over the discrete fields when set
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	ForecastTTLSeconds int
}

// StorageConfig points at an S3-compatible bucket for batch run reports.
type StorageConfig struct {
	Enabled      bool
	Endpoint     string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Region       string
	UseSSL       bool
	ReportPrefix string
}

type ForecastConfig struct {
	HistoryDays      int
	HorizonDays      int
	Workers          int
	MinTrainingRows  int
	TestFraction     float64
	DropLagWarmup    bool
	ForestTrees      int
	ForestMaxDepth   int
	ForestSeed       int64
	GrowthMultiplier float64
	GrowthFloor      float64
}

type MetricsConfig struct {
	Addr string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 120)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("LOG_LEVEL", "info")
		viper.SetDefault("LOG_FORMAT", "console")
		viper.SetDefault("DB_DRIVER", "postgres")
		viper.SetDefault("DATABASE_URL", "")
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "shop")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_FORECAST_TTL_SECONDS", 300)
		viper.SetDefault("STORAGE_ENABLED", false)
		viper.SetDefault("STORAGE_ENDPOINT", "")
		viper.SetDefault("STORAGE_ACCESS_KEY", "")
		viper.SetDefault("STORAGE_SECRET_KEY", "")
		viper.SetDefault("STORAGE_BUCKET", "forecast-reports")
		viper.SetDefault("STORAGE_REGION", "us-east-1")
		viper.SetDefault("STORAGE_USE_SSL", true)
		viper.SetDefault("STORAGE_REPORT_PREFIX", "forecast-runs")
		viper.SetDefault("FORECAST_HISTORY_DAYS", 60)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_WORKERS", 4)
		viper.SetDefault("FORECAST_MIN_TRAINING_ROWS", 20)
		viper.SetDefault("FORECAST_TEST_FRACTION", 0.2)
		viper.SetDefault("FORECAST_DROP_LAG_WARMUP", true)
		viper.SetDefault("FORECAST_FOREST_TREES", 100)
		viper.SetDefault("FORECAST_FOREST_MAX_DEPTH", 10)
		viper.SetDefault("FORECAST_FOREST_SEED", 42)
		viper.SetDefault("FORECAST_GROWTH_MULTIPLIER", 1.8)
		viper.SetDefault("FORECAST_GROWTH_FLOOR", 10)
		viper.SetDefault("METRICS_ADDR", "")

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Driver:   viper.GetString("DB_DRIVER"),
				URL:      viper.GetString("DATABASE_URL"),
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				ForecastTTLSeconds: viper.GetInt("CACHE_FORECAST_TTL_SECONDS"),
			},
			Storage: StorageConfig{
				Enabled:      viper.GetBool("STORAGE_ENABLED"),
				Endpoint:     viper.GetString("STORAGE_ENDPOINT"),
				AccessKey:    viper.GetString("STORAGE_ACCESS_KEY"),
				SecretKey:    viper.GetString("STORAGE_SECRET_KEY"),
				Bucket:       viper.GetString("STORAGE_BUCKET"),
				Region:       viper.GetString("STORAGE_REGION"),
				UseSSL:       viper.GetBool("STORAGE_USE_SSL"),
				ReportPrefix: viper.GetString("STORAGE_REPORT_PREFIX"),
			},
			Forecast: ForecastConfig{
				HistoryDays:      viper.GetInt("FORECAST_HISTORY_DAYS"),
				HorizonDays:      viper.GetInt("FORECAST_HORIZON_DAYS"),
				Workers:          viper.GetInt("FORECAST_WORKERS"),
				MinTrainingRows:  viper.GetInt("FORECAST_MIN_TRAINING_ROWS"),
				TestFraction:     viper.GetFloat64("FORECAST_TEST_FRACTION"),
				DropLagWarmup:    viper.GetBool("FORECAST_DROP_LAG_WARMUP"),
				ForestTrees:      viper.GetInt("FORECAST_FOREST_TREES"),
				ForestMaxDepth:   viper.GetInt("FORECAST_FOREST_MAX_DEPTH"),
				ForestSeed:       viper.GetInt64("FORECAST_FOREST_SEED"),
				GrowthMultiplier: viper.GetFloat64("FORECAST_GROWTH_MULTIPLIER"),
				GrowthFloor:      viper.GetFloat64("FORECAST_GROWTH_FLOOR"),
			},
			Metrics: MetricsConfig{
				Addr: viper.GetString("METRICS_ADDR"),
			},
			LogLevel:  viper.GetString("LOG_LEVEL"),
			LogFormat: viper.GetString("LOG_FORMAT"),
		}
	})

	return instance
}
