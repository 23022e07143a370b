// Package config loads service configuration from the environment, an optional
// YAML overlay file and, for local runs, a .env file.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`

	// AWS configuration
	AWSRegion        string `yaml:"aws_region"`
	DynamoDBEndpoint string `yaml:"dynamodb_endpoint"`
	NotesTable       string `yaml:"notes_table"`
	CategoriesTable  string `yaml:"categories_table"`
	CategoryIndex    string `yaml:"category_index"`
	EventBusName     string `yaml:"event_bus_name"`

	// StoreDriver selects "dynamodb" or "memory"
	StoreDriver string `yaml:"store_driver"`

	// CascadeConcurrency bounds parallel note deletions during a category delete
	CascadeConcurrency int `yaml:"cascade_concurrency"`

	Breaker BreakerConfig `yaml:"breaker"`

	// Authentication for the local server
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableTracing bool   `yaml:"enable_tracing"`
	OTelEndpoint  string `yaml:"otel_endpoint"`
	EnableXRay    bool   `yaml:"enable_xray"`
	EnableCORS    bool   `yaml:"enable_cors"`
}

// BreakerConfig configures the circuit breaker in front of DynamoDB
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests"`
	Interval         time.Duration `yaml:"interval"`
	Timeout          time.Duration `yaml:"timeout"`
	FailureThreshold float64       `yaml:"failure_threshold"`
	MinRequests      uint32        `yaml:"min_requests"`
}

// LoadConfig loads configuration from defaults, the optional CONFIG_FILE overlay
// and environment variables, in that order of precedence (lowest first).
func LoadConfig() (*Config, error) {
	return load(os.Getenv("CONFIG_FILE"))
}

func load(path string) (*Config, error) {
	cfg := defaults()

	if path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
	}

	cfg.overlayEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv reads .env style files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("failed to load %s: %w", f, err)
		}
	}
	return nil
}

func defaults() *Config {
	return &Config{
		ServerAddress:      ":8080",
		Environment:        "development",
		AWSRegion:          "us-east-2",
		NotesTable:         "notesTable",
		CategoriesTable:    "categoriesTable",
		CategoryIndex:      "categoryId-index",
		StoreDriver:        "dynamodb",
		CascadeConcurrency: 8,
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		JWTIssuer:  "notes-backend",
		LogLevel:   "info",
		EnableCORS: true,
	}
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) overlayEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.DynamoDBEndpoint = getEnv("DYNAMODB_ENDPOINT", c.DynamoDBEndpoint)
	c.NotesTable = getEnv("STORAGE_NOTESTABLE_NAME", c.NotesTable)
	c.CategoriesTable = getEnv("STORAGE_CATEGORIESTABLE_NAME", c.CategoriesTable)
	c.CategoryIndex = getEnv("NOTES_CATEGORY_INDEX", c.CategoryIndex)
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)
	c.StoreDriver = getEnv("STORE_DRIVER", c.StoreDriver)
	c.CascadeConcurrency = getEnvInt("CASCADE_CONCURRENCY", c.CascadeConcurrency)

	c.Breaker.MaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.Breaker.MaxRequests)))
	c.Breaker.Interval = getEnvDuration("BREAKER_INTERVAL", c.Breaker.Interval)
	c.Breaker.Timeout = getEnvDuration("BREAKER_TIMEOUT", c.Breaker.Timeout)
	c.Breaker.FailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.Breaker.FailureThreshold)
	c.Breaker.MinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.Breaker.MinRequests)))

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTelEndpoint = getEnv("OTEL_ENDPOINT", c.OTelEndpoint)
	c.EnableXRay = getEnvBool("ENABLE_XRAY", c.EnableXRay)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.CascadeConcurrency < 1 {
		return fmt.Errorf("CASCADE_CONCURRENCY must be at least 1, got %d", c.CascadeConcurrency)
	}
	switch c.StoreDriver {
	case "dynamodb", "memory":
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.Breaker.FailureThreshold <= 0 || c.Breaker.FailureThreshold > 1 {
		return fmt.Errorf("breaker failure threshold must be in (0, 1], got %v", c.Breaker.FailureThreshold)
	}

	if c.IsProduction() && c.StoreDriver != "dynamodb" {
		return fmt.Errorf("STORE_DRIVER must be dynamodb in production")
	}
	if c.NotesTable == "" || c.CategoriesTable == "" || c.CategoryIndex == "" {
		return fmt.Errorf("table and index names must not be empty")
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsLambda reports whether the process runs inside AWS Lambda
func IsLambda() bool {
	return os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
