// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Auth source modes
const (
	AuthModeRemote = "remote"
	AuthModeLocal  = "local"
)

// Product source modes
const (
	CatalogModeRemote   = "remote"
	CatalogModePostgres = "postgres"
)

// Config holds all configuration for our application
type Config struct {
	App        AppConfig
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	Security   SecurityConfig
	Storefront StorefrontConfig
	Pricing    PricingConfig
	Checkout   CheckoutConfig
	Logging    LoggingConfig
}

// AppConfig contains application-level configuration
type AppConfig struct {
	Name        string
	Version     string
	Environment string
	Debug       bool
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig contains the optional Postgres catalog mirror configuration
type DatabaseConfig struct {
	Host         string
	Port         string
	Name         string
	User         string
	Password     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// RedisConfig contains Redis configuration
type RedisConfig struct {
	Host         string
	Port         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	KeyPrefix    string
}

// JWTConfig contains token settings for the local auth source
type JWTConfig struct {
	Secret            string
	AccessTokenExpiry time.Duration
}

// SecurityConfig contains security-related configuration
type SecurityConfig struct {
	BcryptCost         int
	RateLimitPerMinute int
	CORSAllowedOrigins []string
	CORSAllowedMethods []string
	CORSAllowedHeaders []string
}

// StorefrontConfig contains the external collaborators of the storefront
type StorefrontConfig struct {
	ProductSourceURL  string
	CatalogMode       string
	AuthMode          string
	LocalUsername     string
	LocalPasswordHash string
	RequestTimeout    time.Duration
	CatalogCacheTTL   time.Duration
	BreakerFailures   uint32
	BreakerCooldown   time.Duration
}

// PricingConfig contains shipping and coupon rules
type PricingConfig struct {
	ShippingFee           string
	FreeShippingThreshold string
	Coupons               string
}

// CheckoutConfig contains the simulated payment step settings
type CheckoutConfig struct {
	Delay     time.Duration
	CouponTTL time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	config := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Storefront"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			Environment: getEnv("APP_ENV", "development"),
			Debug:       getEnvAsBool("APP_DEBUG", true),
		},
		Server: ServerConfig{
			Port:         getEnv("APP_PORT", "8080"),
			ReadTimeout:  getEnvAsDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout: getEnvAsDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:  getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			Name:         getEnv("DB_NAME", "storefront_db"),
			User:         getEnv("DB_USER", "storefront_user"),
			Password:     getEnv("DB_PASSWORD", "storefront_password"),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 300*time.Second),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     getEnvAsInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getEnvAsInt("REDIS_MIN_IDLE_CONNS", 5),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "storefront"),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", "your-super-secret-jwt-key-change-in-production"),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRE", 24*time.Hour),
		},
		Security: SecurityConfig{
			BcryptCost:         getEnvAsInt("BCRYPT_COST", 12),
			RateLimitPerMinute: getEnvAsInt("RATE_LIMIT_PER_MINUTE", 300),
			CORSAllowedOrigins: getEnvAsSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),
			CORSAllowedMethods: getEnvAsSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			CORSAllowedHeaders: getEnvAsSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "X-Context-ID"}),
		},
		Storefront: StorefrontConfig{
			ProductSourceURL:  getEnv("PRODUCT_SOURCE_URL", "https://fakestoreapi.com"),
			CatalogMode:       getEnv("CATALOG_MODE", CatalogModeRemote),
			AuthMode:          getEnv("AUTH_MODE", AuthModeRemote),
			LocalUsername:     getEnv("LOCAL_AUTH_USERNAME", ""),
			LocalPasswordHash: getEnv("LOCAL_AUTH_PASSWORD_HASH", ""),
			RequestTimeout:    getEnvAsDuration("SOURCE_REQUEST_TIMEOUT", 10*time.Second),
			CatalogCacheTTL:   getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),
			BreakerFailures:   uint32(getEnvAsInt("SOURCE_BREAKER_FAILURES", 5)),
			BreakerCooldown:   getEnvAsDuration("SOURCE_BREAKER_COOLDOWN", 30*time.Second),
		},
		Pricing: PricingConfig{
			ShippingFee:           getEnv("SHIPPING_FEE", "5.99"),
			FreeShippingThreshold: getEnv("FREE_SHIPPING_THRESHOLD", "100"),
			Coupons:               getEnv("COUPONS", "SAVE10:0.10,SAVE20:0.20"),
		},
		Checkout: CheckoutConfig{
			Delay:     getEnvAsDuration("CHECKOUT_DELAY", 2*time.Second),
			CouponTTL: getEnvAsDuration("COUPON_TTL", 24*time.Hour),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "debug"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Redis.Host == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("APP_PORT is required")
	}

	if c.Storefront.ProductSourceURL == "" {
		return fmt.Errorf("PRODUCT_SOURCE_URL is required")
	}

	switch c.Storefront.CatalogMode {
	case CatalogModeRemote:
	case CatalogModePostgres:
		if c.Database.Host == "" || c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("DB_HOST, DB_NAME and DB_USER are required when CATALOG_MODE=postgres")
		}
	default:
		return fmt.Errorf("CATALOG_MODE must be %q or %q", CatalogModeRemote, CatalogModePostgres)
	}

	switch c.Storefront.AuthMode {
	case AuthModeRemote:
	case AuthModeLocal:
		if len(c.JWT.Secret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
		}
		if c.Storefront.LocalUsername == "" || c.Storefront.LocalPasswordHash == "" {
			return fmt.Errorf("LOCAL_AUTH_USERNAME and LOCAL_AUTH_PASSWORD_HASH are required when AUTH_MODE=local")
		}
	default:
		return fmt.Errorf("AUTH_MODE must be %q or %q", AuthModeRemote, AuthModeLocal)
	}

	if c.Checkout.Delay < 0 {
		return fmt.Errorf("CHECKOUT_DELAY cannot be negative")
	}

	return nil
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns the database connection string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddr returns the Redis address
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
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

func getEnvAsSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		return strings.Split(value, ",")
	}
	return defaultValue
}
