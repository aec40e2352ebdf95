package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"equipment-booking-backend/internal/store"
)

// Config represents the overall application configuration.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	Database    DatabaseConfig    `yaml:"database"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Inventory   InventoryConfig   `yaml:"inventory"`
	Log         LogConfig         `yaml:"log"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
	MaxUploadMB     int     `yaml:"max_upload_mb"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	Driver string      `yaml:"driver"` // memory, sqlite, postgres, redis or s3
	Redis  RedisConfig `yaml:"redis"`
	S3     S3Config    `yaml:"s3"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// S3Config holds the bucket settings. Credentials come from the default AWS
// chain.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
	Prefix    string `yaml:"prefix"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	LogQueries             bool   `yaml:"log_queries"`
}

// PersistenceConfig controls the write-behind queue.
type PersistenceConfig struct {
	Async     bool `yaml:"async"`
	QueueSize int  `yaml:"queue_size"`
}

// InventoryConfig holds the hierarchy and booking policies.
type InventoryConfig struct {
	OrphanPolicy       string `yaml:"orphan_policy"` // promote or cascade
	MaxDepth           int    `yaml:"max_depth"`
	AllowDoubleBooking bool   `yaml:"allow_double_booking"`
}

// LogConfig holds the logger settings.
type LogConfig struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"` // console or json
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv lets secrets stay out of the YAML file. main loads a .env file
// into the environment before calling Load.
func (cfg *Config) applyEnv() {
	if v := os.Getenv("STORAGE_DRIVER"); v != "" {
		cfg.Storage.Driver = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Storage.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Storage.Redis.Password = v
	}
	if v := os.Getenv("S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
}

func (cfg *Config) applyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 20
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}
	if cfg.Server.MaxUploadMB <= 0 {
		cfg.Server.MaxUploadMB = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = store.DriverMemory
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "gearbook:"
	}
	if cfg.Storage.S3.Region == "" {
		cfg.Storage.S3.Region = "us-east-1"
	}
	if cfg.Database.DSN == "" && cfg.Storage.Driver == store.DriverSQLite {
		cfg.Database.DSN = "gearbook.db"
	}
	if cfg.Persistence.QueueSize <= 0 {
		cfg.Persistence.QueueSize = 64
	}
	if cfg.Inventory.OrphanPolicy == "" {
		cfg.Inventory.OrphanPolicy = "promote"
	}
	if cfg.Inventory.MaxDepth <= 0 {
		cfg.Inventory.MaxDepth = 32
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Encoding == "" {
		cfg.Log.Encoding = "console"
	}
}

func (cfg *Config) validate() error {
	switch cfg.Storage.Driver {
	case store.DriverMemory, store.DriverSQLite, store.DriverRedis:
	case store.DriverPostgres:
		if cfg.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres driver")
		}
	case store.DriverS3:
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unknown storage.driver %q", cfg.Storage.Driver)
	}
	switch cfg.Inventory.OrphanPolicy {
	case "promote", "cascade":
	default:
		return fmt.Errorf("unknown inventory.orphan_policy %q", cfg.Inventory.OrphanPolicy)
	}
	switch cfg.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.encoding %q", cfg.Log.Encoding)
	}
	return nil
}
