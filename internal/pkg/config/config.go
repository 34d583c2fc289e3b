// internal/pkg/config/config.go
package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Asynq    AsynqConfig
	AWS      AWSConfig
	Sync     SyncConfig
	Security SecurityConfig
	Server   ServerConfig
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	Name        string `required:"true"`
	Environment string // development, staging, production
	Version     string
	LogLevel    string
	LogFormat   string // json, text
	Debug       bool
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host               string `required:"true"`
	Port               string `required:"true"`
	User               string `required:"true"`
	Password           string
	Name               string `required:"true"`
	SSLMode            string
	MaxConnections     int32
	MinConnections     int32
	MaxConnLifetime    time.Duration
	MaxConnIdleTime    time.Duration
	HealthCheckPeriod  time.Duration
	ConnectTimeout     time.Duration
	StatementCacheMode string
	EnableQueryLogging bool
	MigrateOnStart     bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host            string `required:"true"`
	Port            string `required:"true"`
	Password        string
	DB              int
	MaxRetries      int
	MinRetryBackoff time.Duration
	MaxRetryBackoff time.Duration
	DialTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	PoolSize        int
	MinIdleConns    int
	PoolTimeout     time.Duration
	TTL             time.Duration
}

// AsynqConfig holds Asynq configuration
type AsynqConfig struct {
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	Concurrency     int
	Queues          map[string]int // queue name -> priority
	StrictPriority  bool
	RetryMax        int
	ShutdownTimeout time.Duration
	PruneSchedule   string
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region       string
	DBSecretName string // Secrets Manager secret holding DB_PASSWORD
}

// SyncConfig holds inventory synchronisation settings
type SyncConfig struct {
	DefaultPageSize int
	MaxPageSize     int
	AuditQueueSize  int
	JoinInFlight    bool
	ImportBatchSize int
	MaxImportRows   int
	SeedCatalog     string // empty means the compiled-in catalog
	AuditRetention  time.Duration
	ImportResultTTL time.Duration
}

// SecurityConfig holds security configuration
type SecurityConfig struct {
	RateLimitRequests int
	RateLimitDuration time.Duration
	AllowedOrigins    []string
	TrustedProxies    []string
	SecureHeaders     bool
	RequestIDHeader   string
	MaxBodyBytes      int64
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host              string
	Port              string `required:"true"`
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	GracefulTimeout   time.Duration
	EnableHealthCheck bool
	TLSEnabled        bool
	TLSCertFile       string
	TLSKeyFile        string
}

// Load loads configuration from environment variables and an optional
// CONFIG_FILE. Environment variables win over the file.
func Load(logger *slog.Logger) (*Config, error) {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Load .env file in development
	if env == "development" || env == "local" {
		if err := godotenv.Load(); err != nil {
			logger.Warn("no .env file found, using environment variables",
				slog.String("error", err.Error()))
		} else {
			logger.Info(".env file loaded successfully")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		logger.Info("config file loaded", slog.String("path", path))
	}

	cfg := fromViper(v, env)

	if cfg.AWS.DBSecretName != "" {
		sm, err := NewAWSSecretsManager(cfg.AWS.Region, cfg.AWS.DBSecretName, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create secrets manager: %w", err)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := cfg.ResolveSecrets(ctx, sm); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func fromViper(v *viper.Viper, env string) *Config {
	redisHost := v.GetString("REDIS_HOST")
	redisPort := v.GetString("REDIS_PORT")

	return &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: env,
			Version:     v.GetString("APP_VERSION"),
			LogLevel:    v.GetString("LOG_LEVEL"),
			LogFormat:   v.GetString("LOG_FORMAT"),
			Debug:       v.GetBool("APP_DEBUG") || (env == "development" && !v.IsSet("APP_DEBUG")),
		},
		Database: DatabaseConfig{
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetString("DB_PORT"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			Name:               v.GetString("DB_NAME"),
			SSLMode:            v.GetString("DB_SSL_MODE"),
			MaxConnections:     v.GetInt32("DB_MAX_CONNECTIONS"),
			MinConnections:     v.GetInt32("DB_MIN_CONNECTIONS"),
			MaxConnLifetime:    v.GetDuration("DB_CONNECTION_LIFETIME"),
			MaxConnIdleTime:    v.GetDuration("DB_IDLE_TIME"),
			HealthCheckPeriod:  v.GetDuration("DB_HEALTH_CHECK_PERIOD"),
			ConnectTimeout:     v.GetDuration("DB_CONNECT_TIMEOUT"),
			StatementCacheMode: v.GetString("DB_STATEMENT_CACHE_MODE"),
			EnableQueryLogging: v.GetBool("DB_QUERY_LOGGING"),
			MigrateOnStart:     v.GetBool("DB_MIGRATE_ON_START"),
		},
		Redis: RedisConfig{
			Host:            redisHost,
			Port:            redisPort,
			Password:        v.GetString("REDIS_PASSWORD"),
			DB:              v.GetInt("REDIS_DB"),
			MaxRetries:      v.GetInt("REDIS_MAX_RETRIES"),
			MinRetryBackoff: v.GetDuration("REDIS_MIN_RETRY_BACKOFF"),
			MaxRetryBackoff: v.GetDuration("REDIS_MAX_RETRY_BACKOFF"),
			DialTimeout:     v.GetDuration("REDIS_DIAL_TIMEOUT"),
			ReadTimeout:     v.GetDuration("REDIS_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("REDIS_WRITE_TIMEOUT"),
			PoolSize:        v.GetInt("REDIS_POOL_SIZE"),
			MinIdleConns:    v.GetInt("REDIS_MIN_IDLE_CONNS"),
			PoolTimeout:     v.GetDuration("REDIS_POOL_TIMEOUT"),
			TTL:             v.GetDuration("REDIS_TTL"),
		},
		Asynq: AsynqConfig{
			RedisAddr:       fmt.Sprintf("%s:%s", redisHost, redisPort),
			RedisPassword:   v.GetString("REDIS_PASSWORD"),
			RedisDB:         v.GetInt("ASYNQ_REDIS_DB"),
			Concurrency:     v.GetInt("ASYNQ_CONCURRENCY"),
			Queues:          parseQueues(v.GetString("ASYNQ_QUEUES")),
			StrictPriority:  v.GetBool("ASYNQ_STRICT_PRIORITY"),
			RetryMax:        v.GetInt("ASYNQ_RETRY_MAX"),
			ShutdownTimeout: v.GetDuration("ASYNQ_SHUTDOWN_TIMEOUT"),
			PruneSchedule:   v.GetString("ASYNQ_PRUNE_SCHEDULE"),
		},
		AWS: AWSConfig{
			Region:       v.GetString("AWS_REGION"),
			DBSecretName: v.GetString("DB_SECRET_NAME"),
		},
		Sync: SyncConfig{
			DefaultPageSize: v.GetInt("SYNC_DEFAULT_PAGE_SIZE"),
			MaxPageSize:     v.GetInt("SYNC_MAX_PAGE_SIZE"),
			AuditQueueSize:  v.GetInt("SYNC_AUDIT_QUEUE_SIZE"),
			JoinInFlight:    v.GetBool("SYNC_JOIN_IN_FLIGHT"),
			ImportBatchSize: v.GetInt("SYNC_IMPORT_BATCH_SIZE"),
			MaxImportRows:   v.GetInt("SYNC_MAX_IMPORT_ROWS"),
			SeedCatalog:     v.GetString("SYNC_SEED_CATALOG"),
			AuditRetention:  v.GetDuration("SYNC_AUDIT_RETENTION"),
			ImportResultTTL: v.GetDuration("SYNC_IMPORT_RESULT_TTL"),
		},
		Security: SecurityConfig{
			RateLimitRequests: v.GetInt("RATE_LIMIT_REQUESTS"),
			RateLimitDuration: v.GetDuration("RATE_LIMIT_DURATION"),
			AllowedOrigins:    splitList(v.GetString("ALLOWED_ORIGINS")),
			TrustedProxies:    splitList(v.GetString("TRUSTED_PROXIES")),
			SecureHeaders:     v.GetBool("SECURE_HEADERS") || (env == "production" && !v.IsSet("SECURE_HEADERS")),
			RequestIDHeader:   v.GetString("REQUEST_ID_HEADER"),
			MaxBodyBytes:      v.GetInt64("MAX_BODY_BYTES"),
		},
		Server: ServerConfig{
			Host:              v.GetString("SERVER_HOST"),
			Port:              v.GetString("SERVER_PORT"),
			ReadTimeout:       v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:      v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:       v.GetDuration("SERVER_IDLE_TIMEOUT"),
			MaxHeaderBytes:    v.GetInt("SERVER_MAX_HEADER_BYTES"),
			GracefulTimeout:   v.GetDuration("SERVER_GRACEFUL_TIMEOUT"),
			EnableHealthCheck: v.GetBool("ENABLE_HEALTH_CHECK"),
			TLSEnabled:        v.GetBool("TLS_ENABLED"),
			TLSCertFile:       v.GetString("TLS_CERT_FILE"),
			TLSKeyFile:        v.GetString("TLS_KEY_FILE"),
		},
	}
}

// Validate runs the basic validator, plus the production validator outside
// development.
func (c *Config) Validate() error {
	validators := []Validator{&BasicValidator{}}
	if c.IsProduction() {
		validators = append(validators, &ProductionValidator{})
	}

	for _, v := range validators {
		if err := v.Validate(c); err != nil {
			return err
		}
	}
	return nil
}

// GetDatabaseURL returns the formatted database connection string
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// GetRedisAddress returns host:port for the cache client
func (c *Config) GetRedisAddress() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// GetServerAddress returns the formatted server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// IsProduction returns true if running in production
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// IsDevelopment returns true if running in development
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development" || c.App.Environment == "local"
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "stockmirror")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "stockmirror")
	v.SetDefault("DB_PASSWORD", "stockmirror_dev")
	v.SetDefault("DB_NAME", "stockmirror")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_CONNECTIONS", 25)
	v.SetDefault("DB_MIN_CONNECTIONS", 5)
	v.SetDefault("DB_CONNECTION_LIFETIME", time.Hour)
	v.SetDefault("DB_IDLE_TIME", 30*time.Minute)
	v.SetDefault("DB_HEALTH_CHECK_PERIOD", time.Minute)
	v.SetDefault("DB_CONNECT_TIMEOUT", 10*time.Second)
	v.SetDefault("DB_STATEMENT_CACHE_MODE", "describe")
	v.SetDefault("DB_QUERY_LOGGING", false)
	v.SetDefault("DB_MIGRATE_ON_START", true)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_MAX_RETRIES", 3)
	v.SetDefault("REDIS_MIN_RETRY_BACKOFF", 8*time.Millisecond)
	v.SetDefault("REDIS_MAX_RETRY_BACKOFF", 512*time.Millisecond)
	v.SetDefault("REDIS_DIAL_TIMEOUT", 5*time.Second)
	v.SetDefault("REDIS_READ_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_WRITE_TIMEOUT", 3*time.Second)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("REDIS_MIN_IDLE_CONNS", 2)
	v.SetDefault("REDIS_POOL_TIMEOUT", 4*time.Second)
	v.SetDefault("REDIS_TTL", time.Hour)

	v.SetDefault("ASYNQ_REDIS_DB", 0)
	v.SetDefault("ASYNQ_CONCURRENCY", 10)
	v.SetDefault("ASYNQ_QUEUES", "critical:6,default:3,low:1")
	v.SetDefault("ASYNQ_RETRY_MAX", 3)
	v.SetDefault("ASYNQ_SHUTDOWN_TIMEOUT", 30*time.Second)
	v.SetDefault("ASYNQ_PRUNE_SCHEDULE", "@daily")

	v.SetDefault("AWS_REGION", "us-east-1")

	v.SetDefault("SYNC_DEFAULT_PAGE_SIZE", 20)
	v.SetDefault("SYNC_MAX_PAGE_SIZE", 200)
	v.SetDefault("SYNC_AUDIT_QUEUE_SIZE", 256)
	v.SetDefault("SYNC_JOIN_IN_FLIGHT", false)
	v.SetDefault("SYNC_IMPORT_BATCH_SIZE", 50)
	v.SetDefault("SYNC_MAX_IMPORT_ROWS", 10000)
	v.SetDefault("SYNC_AUDIT_RETENTION", 90*24*time.Hour)
	v.SetDefault("SYNC_IMPORT_RESULT_TTL", 24*time.Hour)

	v.SetDefault("RATE_LIMIT_REQUESTS", 100)
	v.SetDefault("RATE_LIMIT_DURATION", time.Minute)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("REQUEST_ID_HEADER", "X-Request-ID")
	v.SetDefault("MAX_BODY_BYTES", 10<<20)

	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_READ_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 15*time.Second)
	v.SetDefault("SERVER_IDLE_TIMEOUT", 60*time.Second)
	v.SetDefault("SERVER_MAX_HEADER_BYTES", 1<<20) // 1 MB
	v.SetDefault("SERVER_GRACEFUL_TIMEOUT", 30*time.Second)
	v.SetDefault("ENABLE_HEALTH_CHECK", true)
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseQueues(queuesStr string) map[string]int {
	queues := make(map[string]int)
	for _, pair := range strings.Split(queuesStr, ",") {
		name, prio, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		var priority int
		if _, err := fmt.Sscanf(strings.TrimSpace(prio), "%d", &priority); err == nil {
			queues[strings.TrimSpace(name)] = priority
		}
	}
	if len(queues) == 0 {
		queues["default"] = 1
	}
	return queues
}
