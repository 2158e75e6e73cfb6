package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Logging  LoggingConfig
	Matching MatchingConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	Env             string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string

	// Zero keeps the driver default.
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

type JWTConfig struct {
	AccessSecret string
}

type LoggingConfig struct {
	Level  string
	Format string
}

type MatchingConfig struct {
	// CacheBackend is "memory" or "redis".
	CacheBackend          string
	CacheTTL              time.Duration
	StaleGrace            time.Duration
	ComputeTimeout        time.Duration
	CandidateLimit        int
	DefaultLimit          int
	MaxLimit              int
	MutualThreshold       float64
	TimezoneAdjacentHours float64
}

const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_HOST", "0.0.0.0")
	v.SetDefault("SERVER_PORT", 8080)
	v.SetDefault("ENV", "development")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 100)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", time.Hour)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_POOL_SIZE", 10)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	v.SetDefault("MATCHING_CACHE_TTL", 6*time.Hour)
	v.SetDefault("MATCHING_STALE_GRACE", time.Hour)
	v.SetDefault("MATCHING_COMPUTE_TIMEOUT", 5*time.Second)
	v.SetDefault("MATCHING_CANDIDATE_LIMIT", 200)
	v.SetDefault("MATCHING_DEFAULT_LIMIT", 5)
	v.SetDefault("MATCHING_MAX_LIMIT", 10)
	v.SetDefault("MATCHING_MUTUAL_THRESHOLD", 0.0)
	v.SetDefault("MATCHING_TZ_ADJACENT_HOURS", 1.0)
}

// Load loads configuration from environment variables or .env file
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	// Try to read from .env file, but don't fail if it doesn't exist
	_ = v.ReadInConfig()

	config := fromViper(v)

	// Validate critical configuration
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			Env:             v.GetString("ENV"),
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSL_MODE"),

			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Redis: RedisConfig{
			Host:     v.GetString("REDIS_HOST"),
			Port:     v.GetInt("REDIS_PORT"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			PoolSize: v.GetInt("REDIS_POOL_SIZE"),
		},
		JWT: JWTConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
		Matching: MatchingConfig{
			CacheBackend:          v.GetString("CACHE_BACKEND"),
			CacheTTL:              v.GetDuration("MATCHING_CACHE_TTL"),
			StaleGrace:            v.GetDuration("MATCHING_STALE_GRACE"),
			ComputeTimeout:        v.GetDuration("MATCHING_COMPUTE_TIMEOUT"),
			CandidateLimit:        v.GetInt("MATCHING_CANDIDATE_LIMIT"),
			DefaultLimit:          v.GetInt("MATCHING_DEFAULT_LIMIT"),
			MaxLimit:              v.GetInt("MATCHING_MAX_LIMIT"),
			MutualThreshold:       v.GetFloat64("MATCHING_MUTUAL_THRESHOLD"),
			TimezoneAdjacentHours: v.GetFloat64("MATCHING_TZ_ADJACENT_HOURS"),
		},
	}
}

// Validate validates critical configuration values
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	if c.JWT.AccessSecret == "" {
		return fmt.Errorf("JWT access secret is required")
	}
	if len(c.JWT.AccessSecret) < 32 {
		return fmt.Errorf("JWT access secret must be at least 32 characters")
	}
	return c.Matching.Validate()
}

// Validate checks the matching tunables against each other.
func (m *MatchingConfig) Validate() error {
	switch m.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("cache backend must be %q or %q, got %q", CacheBackendMemory, CacheBackendRedis, m.CacheBackend)
	}
	if m.CacheTTL <= 0 {
		return fmt.Errorf("matching cache TTL must be positive")
	}
	if m.StaleGrace < 0 || m.ComputeTimeout <= 0 {
		return fmt.Errorf("matching stale grace must be >= 0 and compute timeout > 0")
	}
	if m.MaxLimit < 1 || m.DefaultLimit < 1 || m.DefaultLimit > m.MaxLimit {
		return fmt.Errorf("matching limits must satisfy 1 <= default (%d) <= max (%d)", m.DefaultLimit, m.MaxLimit)
	}
	if m.CandidateLimit < m.MaxLimit {
		return fmt.Errorf("matching candidate limit (%d) must be at least the max limit (%d)", m.CandidateLimit, m.MaxLimit)
	}
	if m.MutualThreshold < 0 || m.MutualThreshold >= 100 {
		return fmt.Errorf("matching mutual threshold must be in [0, 100)")
	}
	if m.TimezoneAdjacentHours < 0 {
		return fmt.Errorf("matching timezone adjacency must be >= 0")
	}
	return nil
}

// GetDSN returns PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// GetAddr returns Redis address
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *ServerConfig) IsProduction() bool {
	return c.Env == "production"
}
