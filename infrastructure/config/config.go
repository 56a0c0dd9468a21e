package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string

	// Persistence selects the snapshot/layout backends: "memory" or "dynamodb"
	Persistence string

	// AWS configuration
	AWSRegion     string
	DynamoDBTable string
	EventBusName  string

	// Lambda configuration
	IsLambda bool

	// Telemetry
	DataDir          string
	MetricsNamespace string

	// Authentication
	EditorTokenSecret string

	// Graph seeding
	SeedNodeCount int

	// Logging
	LogLevel string

	// Feature flags
	EnableCloudWatch  bool
	EnableEventBridge bool
	EnableCORS        bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		Persistence:   getEnv("PERSISTENCE", "memory"),

		AWSRegion:     getEnv("AWS_REGION", "us-west-2"),
		DynamoDBTable: getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", "cdm-workspace")),
		EventBusName:  getEnv("EVENT_BUS_NAME", "cdm-events"),

		IsLambda: getEnvBool("IS_LAMBDA", false),

		DataDir:          getEnv("DATA_DIR", "data"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "CDM/Workspace"),

		EditorTokenSecret: getEnv("EDITOR_TOKEN_SECRET", ""),

		SeedNodeCount: getEnvInt("SEED_NODE_COUNT", 200),

		LogLevel:          getEnv("LOG_LEVEL", "info"),
		EnableCloudWatch:  getEnvBool("ENABLE_CLOUDWATCH", false),
		EnableEventBridge: getEnvBool("ENABLE_EVENTBRIDGE", false),
		EnableCORS:        getEnvBool("ENABLE_CORS", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Load is an alias for LoadConfig
func Load() (*Config, error) {
	return LoadConfig()
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.Persistence {
	case "memory", "dynamodb":
	default:
		return fmt.Errorf("PERSISTENCE must be memory or dynamodb, got %q", c.Persistence)
	}
	if c.SeedNodeCount <= 0 {
		return fmt.Errorf("SEED_NODE_COUNT must be positive, got %d", c.SeedNodeCount)
	}
	if c.Environment == "production" {
		if c.EditorTokenSecret == "" {
			return fmt.Errorf("EDITOR_TOKEN_SECRET is required in production")
		}
		if c.Persistence == "dynamodb" && c.DynamoDBTable == "" {
			return fmt.Errorf("DYNAMODB_TABLE is required")
		}
		if c.EnableEventBridge && c.EventBusName == "" {
			return fmt.Errorf("EVENT_BUS_NAME is required")
		}
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
