package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

const (
	StorageMemory   = "memory"
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"

	AIClientOpenAI = "openai"
	AIClientOllama = "ollama"
	AIClientGemini = "gemini"
)

var defaultModels = map[string]string{
	AIClientOpenAI: "gpt-4o",
	AIClientOllama: "llama3",
	AIClientGemini: "gemini-2.0-flash",
}

// Config holds the whole server configuration.
type Config struct {
	Env         string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding string `envconfig:"LOG_ENCODING" default:"json"`
	LogOutput   string `envconfig:"LOG_OUTPUT" default:"stdout"`
	SecretsDir  string `envconfig:"SECRETS_DIR" default:"/run/secrets"`

	// HTTP
	ServerPort         string        `envconfig:"SERVER_PORT" default:"5000"`
	CORSAllowedOrigins []string      `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	ReadTimeout        time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"10s"`
	WriteTimeout       time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"90s"`
	IdleTimeout        time.Duration `envconfig:"SERVER_IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout    time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"10s"`

	// Storage
	StorageDriver  string `envconfig:"STORAGE_DRIVER" default:"memory"`
	SQLitePath     string `envconfig:"SQLITE_PATH" default:"storycanvas.db"`
	SeedSampleData bool   `envconfig:"SEED_SAMPLE_DATA" default:"true"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"storycanvas"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret, read separately.
	DBPassword string `ignored:"true"`

	// Text generation
	AIClientType  string        `envconfig:"AI_CLIENT_TYPE" default:"openai"`
	AIBaseURL     string        `envconfig:"AI_BASE_URL"`
	AIModel       string        `envconfig:"AI_MODEL"`
	AITimeout     time.Duration `envconfig:"AI_TIMEOUT" default:"60s"`
	AITemperature float64       `envconfig:"AI_TEMPERATURE" default:"0.7"`
	AIMaxTokens   int           `envconfig:"AI_MAX_TOKENS" default:"500"`
	// Secret, read separately. Empty means the gateway runs in fallback mode.
	AIAPIKey string `ignored:"true"`

	// Generation guard
	RedisAddr          string        `envconfig:"REDIS_ADDR"`
	RedisDB            int           `envconfig:"REDIS_DB" default:"0"`
	RedisPassword      string        `ignored:"true"`
	GenerationCooldown time.Duration `envconfig:"GENERATION_COOLDOWN" default:"0s"`
	GenerateRateLimit  uint          `envconfig:"GENERATE_RATE_LIMIT" default:"0"`

	// Events
	RabbitMQURL           string `envconfig:"RABBITMQ_URL"`
	GenerationEventsQueue string `envconfig:"GENERATION_EVENTS_QUEUE" default:"storycanvas_generation_events"`

	RevealInterval time.Duration `envconfig:"REVEAL_INTERVAL" default:"30ms"`
}

// Load reads an optional .env file, the environment and the secret files.
func Load() (*Config, error) {
	// .env is optional.
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	var err error
	if cfg.AIAPIKey, err = ReadSecret(cfg.SecretsDir, "ai_api_key", "AI_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.DBPassword, err = ReadSecret(cfg.SecretsDir, "db_password", "DB_PASSWORD"); err != nil {
		return nil, err
	}
	if cfg.RedisPassword, err = ReadSecret(cfg.SecretsDir, "redis_password", "REDIS_PASSWORD"); err != nil {
		return nil, err
	}

	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.AIClientType = strings.ToLower(strings.TrimSpace(cfg.AIClientType))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageMemory, StorageSQLite, StoragePostgres:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER '%s'", c.StorageDriver)
	}
	if _, ok := defaultModels[c.AIClientType]; !ok {
		return fmt.Errorf("unknown AI_CLIENT_TYPE '%s'", c.AIClientType)
	}
	if c.AITemperature < 0 || c.AITemperature > 2 {
		return fmt.Errorf("AI_TEMPERATURE must be within [0, 2], got %v", c.AITemperature)
	}
	if c.AIMaxTokens <= 0 {
		return fmt.Errorf("AI_MAX_TOKENS must be positive, got %d", c.AIMaxTokens)
	}
	if c.GenerationCooldown < 0 {
		return fmt.Errorf("GENERATION_COOLDOWN must not be negative")
	}
	if c.AIBaseURL != "" {
		if _, err := url.Parse(c.AIBaseURL); err != nil {
			return fmt.Errorf("invalid AI_BASE_URL: %w", err)
		}
	}
	return nil
}

// ModelName is AI_MODEL or the default model of the client type.
func (c *Config) ModelName() string {
	if c.AIModel != "" {
		return c.AIModel
	}
	return defaultModels[c.AIClientType]
}

// LiveGeneration reports whether the gateway should call a model at all.
// The ollama client is keyless; the hosted clients need AI_API_KEY.
func (c *Config) LiveGeneration() bool {
	if c.AIClientType == AIClientOllama {
		return true
	}
	return c.AIAPIKey != ""
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, url.QueryEscape(c.DBPassword), c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// getMaskedDSN returns the DSN with the password replaced for logging.
func (c *Config) getMaskedDSN() string {
	return fmt.Sprintf("postgres://%s:********@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// LogSummary logs the effective configuration without secrets.
func (c *Config) LogSummary(logger *zap.Logger) {
	fields := []zap.Field{
		zap.String("env", c.Env),
		zap.String("port", c.ServerPort),
		zap.String("storage", c.StorageDriver),
		zap.Bool("seed", c.SeedSampleData),
		zap.String("aiClient", c.AIClientType),
		zap.String("aiModel", c.ModelName()),
		zap.Bool("aiLive", c.LiveGeneration()),
		zap.Duration("aiTimeout", c.AITimeout),
		zap.Duration("generationCooldown", c.GenerationCooldown),
		zap.Uint("generateRateLimit", c.GenerateRateLimit),
		zap.Bool("redisGuard", c.RedisAddr != ""),
		zap.Bool("events", c.RabbitMQURL != ""),
	}
	switch c.StorageDriver {
	case StoragePostgres:
		fields = append(fields, zap.String("dsn", c.getMaskedDSN()))
	case StorageSQLite:
		fields = append(fields, zap.String("sqlitePath", c.SQLitePath))
	}
	logger.Info("Configuration loaded", fields...)
}
