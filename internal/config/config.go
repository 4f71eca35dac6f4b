package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration values
type Config struct {
	Server      ServerConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	UETR        UETRConfig
	CoreBanking CoreBankingConfig
	Fraud       FraudConfig
	Scheduler   SchedulerConfig
	Cache       CacheConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// URL returns the database connection URL
func (c DatabaseConfig) URL() string {
	return "postgres://" + c.User + ":" + c.Password + "@" + c.Host + ":" + strconv.Itoa(c.Port) + "/" + c.DBName + "?sslmode=" + c.SSLMode + "&prepare_threshold=0"
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL      string
	Password string
}

// UETRConfig holds UETR generation parameters
type UETRConfig struct {
	// SystemID is the 4-char system identifier embedded in every UETR.
	SystemID string
}

// CoreBankingConfig holds defaults for the core banking adapter
type CoreBankingConfig struct {
	DefaultAdapter string
	BaseURL        string
	TimeoutMs      int
	RetryAttempts  int
}

// FraudConfig holds fraud pipeline defaults
type FraudConfig struct {
	ExternalAPITimeoutMs  int
	ReviewExpiry          time.Duration
	DefaultDecisionReason string
}

// SchedulerConfig holds background job cadences
type SchedulerConfig struct {
	RepairRetryInterval   time.Duration
	RepairTimeoutInterval time.Duration
	SelfHealInterval      time.Duration
	BatchDispatchInterval time.Duration
}

// CacheConfig holds read-through cache behavior
type CacheConfig struct {
	TTL time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Env:  getEnv("SERVER_ENV", "development"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "paymenthub"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", "redis://localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		UETR: UETRConfig{
			SystemID: getEnv("UETR_SYSTEM_ID", "PHUB"),
		},
		CoreBanking: CoreBankingConfig{
			DefaultAdapter: getEnv("CORE_BANKING_ADAPTER", "INTERNAL"),
			BaseURL:        getEnv("CORE_BANKING_BASE_URL", "http://localhost:9090"),
			TimeoutMs:      getEnvAsInt("CORE_BANKING_TIMEOUT_MS", 5000),
			RetryAttempts:  getEnvAsInt("CORE_BANKING_RETRY_ATTEMPTS", 3),
		},
		Fraud: FraudConfig{
			ExternalAPITimeoutMs:  getEnvAsInt("FRAUD_API_TIMEOUT_MS", 3000),
			ReviewExpiry:          getEnvAsDuration("FRAUD_REVIEW_EXPIRY", 24*time.Hour),
			DefaultDecisionReason: getEnv("FRAUD_DEFAULT_REASON", "no fraud configuration found"),
		},
		Scheduler: SchedulerConfig{
			RepairRetryInterval:   getEnvAsDuration("REPAIR_RETRY_INTERVAL", time.Minute),
			RepairTimeoutInterval: getEnvAsDuration("REPAIR_TIMEOUT_INTERVAL", 5*time.Minute),
			SelfHealInterval:      getEnvAsDuration("SELF_HEAL_INTERVAL", 30*time.Second),
			BatchDispatchInterval: getEnvAsDuration("BATCH_DISPATCH_INTERVAL", time.Minute),
		},
		Cache: CacheConfig{
			TTL: getEnvAsDuration("CONFIG_CACHE_TTL", 5*time.Minute),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
