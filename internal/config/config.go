package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bjpl/describe-it-sub001/internal/logger"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config represents the application configuration
type Config struct {
	Executor ExecutorConfig `yaml:"executor"`
	Cache    CacheConfig    `yaml:"cache"`
	Redis    RedisConfig    `yaml:"redis"`
	DynamoDB DynamoDBConfig `yaml:"dynamodb"`
	Output   OutputConfig   `yaml:"output"`
}

// ExecutorConfig represents request executor defaults
type ExecutorConfig struct {
	MaxAttempts   int     `yaml:"max_attempts"`
	BaseDelayMs   int     `yaml:"base_delay_ms"`
	BackoffFactor float64 `yaml:"backoff_factor"`
	TimeoutMs     int     `yaml:"timeout_ms"`
}

// CacheConfig represents tiered cache configuration
type CacheConfig struct {
	// KeyPrefix namespaces every durable-store key so gateway entries
	// cannot collide with unrelated data in a shared store.
	KeyPrefix string `yaml:"key_prefix"`

	// DurableBackend selects the durable tier: redis, dynamodb, or none.
	DurableBackend string `yaml:"durable_backend"`

	DescriptionsTTL int `yaml:"descriptions_ttl"`
	VocabularyTTL   int `yaml:"vocabulary_ttl"`
	ImagesTTL       int `yaml:"images_ttl"`
	DefaultTTL      int `yaml:"default_ttl"`
}

// RedisConfig represents the redis durable tier connection
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DynamoDBConfig represents the dynamodb durable tier connection
type DynamoDBConfig struct {
	Table   string `yaml:"table"`
	Region  string `yaml:"region"`
	Profile string `yaml:"profile"`
}

// OutputConfig represents CLI output configuration
type OutputConfig struct {
	Format string `yaml:"format"` // table, json
	Color  bool   `yaml:"color"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	// Set default values (these will be used if not specified in config file)
	viper.SetDefault("executor.max_attempts", 3)
	viper.SetDefault("executor.base_delay_ms", 1000)
	viper.SetDefault("executor.backoff_factor", 2.0)
	viper.SetDefault("executor.timeout_ms", 30000)
	viper.SetDefault("cache.key_prefix", "lingo:")
	viper.SetDefault("cache.durable_backend", "none")
	viper.SetDefault("cache.descriptions_ttl", 3600)
	viper.SetDefault("cache.vocabulary_ttl", 1800)
	viper.SetDefault("cache.images_ttl", 900)
	viper.SetDefault("cache.default_ttl", 600)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("dynamodb.table", "")
	viper.SetDefault("dynamodb.region", "")
	viper.SetDefault("dynamodb.profile", "")
	viper.SetDefault("output.format", "table")
	viper.SetDefault("output.color", true)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// Manual override for values viper.Unmarshal may have missed
	if config.Executor.MaxAttempts == 0 {
		config.Executor.MaxAttempts = viper.GetInt("executor.max_attempts")
	}
	if config.Executor.BaseDelayMs == 0 {
		config.Executor.BaseDelayMs = viper.GetInt("executor.base_delay_ms")
	}
	if config.Executor.BackoffFactor == 0 {
		config.Executor.BackoffFactor = viper.GetFloat64("executor.backoff_factor")
	}
	if config.Executor.TimeoutMs == 0 {
		config.Executor.TimeoutMs = viper.GetInt("executor.timeout_ms")
	}
	if config.Cache.KeyPrefix == "" {
		config.Cache.KeyPrefix = viper.GetString("cache.key_prefix")
	}
	if config.Cache.DurableBackend == "" {
		config.Cache.DurableBackend = viper.GetString("cache.durable_backend")
	}
	if config.Cache.DefaultTTL == 0 {
		config.Cache.DefaultTTL = viper.GetInt("cache.default_ttl")
	}

	logger.GetLogger().Debug("Configuration loaded",
		zap.Int("max_attempts", config.Executor.MaxAttempts),
		zap.Int("base_delay_ms", config.Executor.BaseDelayMs),
		zap.Float64("backoff_factor", config.Executor.BackoffFactor),
		zap.String("cache_key_prefix", config.Cache.KeyPrefix),
		zap.String("durable_backend", config.Cache.DurableBackend),
		zap.Int("default_ttl", config.Cache.DefaultTTL))

	return &config, nil
}

// DefaultTimeout returns the executor timeout as a duration
func (c *ExecutorConfig) DefaultTimeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// BaseDelay returns the executor base backoff delay as a duration
func (c *ExecutorConfig) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelayMs) * time.Millisecond
}

// TTLForClass returns the configured TTL for a cached data class
func (c *CacheConfig) TTLForClass(class string) time.Duration {
	ttl := c.DefaultTTL
	switch class {
	case "descriptions":
		ttl = c.DescriptionsTTL
	case "vocabulary":
		ttl = c.VocabularyTTL
	case "images":
		ttl = c.ImagesTTL
	}
	return time.Duration(ttl) * time.Second
}

// ExpandPath expands tilde (~) in file paths
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if len(path) == 1 {
		return homeDir
	}

	if path[1] == '/' {
		return filepath.Join(homeDir, path[2:])
	}

	return path
}
