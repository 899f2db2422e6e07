package config

import (
	"errors"
	"fmt"
	"log"
	"strings"

	"postboard/internal/post/model"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

const (
	KeyPort          = "port"
	KeyLogLevel      = "log.level"
	KeyStorageDriver = "storage.driver"
	KeyStoragePath   = "storage.path"
	KeyStorageKey    = "storage.key"
	KeySQLitePath    = "sqlite.path"
	KeyDBHost        = "db.host"
	KeyDBPort        = "db.port"
	KeyDBUser        = "db.user"
	KeyDBPassword    = "db.password"
	KeyDBName        = "db.name"
	KeyDBSSLMode     = "db.sslmode"
	KeyRedisAddr     = "redis.addr"
	KeyRedisPassword = "redis.password"
	KeyRedisDB       = "redis.db"
	KeyCategories    = "categories"
	KeyCORSOrigins   = "cors.allowed_origins"
	KeyRateLimit     = "ratelimit.per_minute"
	KeyRateBurst     = "ratelimit.burst"
	KeyBackupCron    = "backup.schedule"
	KeyBackupDir     = "backup.dir"
)

type Config struct {
	Port               string
	LogLevel           string
	StorageDriver      string
	StoragePath        string
	StorageKey         string
	SQLitePath         string
	DB                 DBConfig
	Redis              RedisConfig
	Categories         []string
	CORSAllowedOrigins []string
	RateLimit          RateLimitConfig
	Backup             BackupConfig
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig bounds mutating API requests per client IP. PerMinute 0 disables it.
type RateLimitConfig struct {
	PerMinute int
	Burst     int
}

// BackupConfig schedules exports of the collection to Dir. An empty Schedule disables it.
type BackupConfig struct {
	Schedule string
	Dir      string
}

// Load reads .env (if present), an optional postboard.yaml and the environment.
// Environment variables use the upper-cased key with dots replaced by underscores,
// e.g. STORAGE_DRIVER or DB_HOST.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables from OS")
	}

	vp := viper.New()
	setDefaults(vp)
	vp.SetConfigName("postboard")
	vp.SetConfigType("yaml")
	vp.AddConfigPath(".")
	vp.AddConfigPath("./data")
	vp.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vp.AutomaticEnv()

	if err := vp.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{
		Port:          strings.TrimSpace(vp.GetString(KeyPort)),
		LogLevel:      strings.TrimSpace(vp.GetString(KeyLogLevel)),
		StorageDriver: strings.ToLower(strings.TrimSpace(vp.GetString(KeyStorageDriver))),
		StoragePath:   strings.TrimSpace(vp.GetString(KeyStoragePath)),
		StorageKey:    strings.TrimSpace(vp.GetString(KeyStorageKey)),
		SQLitePath:    strings.TrimSpace(vp.GetString(KeySQLitePath)),
		DB: DBConfig{
			Host:     strings.TrimSpace(vp.GetString(KeyDBHost)),
			Port:     strings.TrimSpace(vp.GetString(KeyDBPort)),
			User:     strings.TrimSpace(vp.GetString(KeyDBUser)),
			Password: vp.GetString(KeyDBPassword),
			Name:     strings.TrimSpace(vp.GetString(KeyDBName)),
			SSLMode:  strings.TrimSpace(vp.GetString(KeyDBSSLMode)),
		},
		Redis: RedisConfig{
			Addr:     strings.TrimSpace(vp.GetString(KeyRedisAddr)),
			Password: vp.GetString(KeyRedisPassword),
			DB:       vp.GetInt(KeyRedisDB),
		},
		Categories:         stringList(vp, KeyCategories),
		CORSAllowedOrigins: stringList(vp, KeyCORSOrigins),
		RateLimit: RateLimitConfig{
			PerMinute: vp.GetInt(KeyRateLimit),
			Burst:     vp.GetInt(KeyRateBurst),
		},
		Backup: BackupConfig{
			Schedule: strings.TrimSpace(vp.GetString(KeyBackupCron)),
			Dir:      strings.TrimSpace(vp.GetString(KeyBackupDir)),
		},
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(vp *viper.Viper) {
	vp.SetDefault(KeyPort, "8080")
	vp.SetDefault(KeyLogLevel, "info")
	vp.SetDefault(KeyStorageDriver, DriverFile)
	vp.SetDefault(KeyStoragePath, "data/posts.json")
	vp.SetDefault(KeyStorageKey, "blogPosts")
	vp.SetDefault(KeySQLitePath, "data/postboard.db")
	vp.SetDefault(KeyDBPort, "5432")
	vp.SetDefault(KeyDBSSLMode, "require")
	vp.SetDefault(KeyRedisDB, 0)
	vp.SetDefault(KeyCategories, strings.Join(model.DefaultCategories, ","))
	vp.SetDefault(KeyCORSOrigins, "*")
	vp.SetDefault(KeyRateLimit, 120)
	vp.SetDefault(KeyRateBurst, 30)
	vp.SetDefault(KeyBackupCron, "")
	vp.SetDefault(KeyBackupDir, "data/backups")
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case DriverFile:
		if c.StoragePath == "" {
			return errors.New("STORAGE_PATH is required for the file driver")
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case DriverPostgres:
		if c.DB.Host == "" || c.DB.User == "" || c.DB.Name == "" {
			return errors.New("DB_HOST, DB_USER and DB_NAME are required for the postgres driver")
		}
	case DriverRedis:
		if c.Redis.Addr == "" {
			return errors.New("REDIS_ADDR is required for the redis driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.StorageKey == "" {
		return errors.New("STORAGE_KEY must not be empty")
	}
	if len(c.Categories) == 0 {
		return errors.New("at least one category is required")
	}
	if c.RateLimit.PerMinute < 0 || c.RateLimit.Burst < 0 {
		return errors.New("RATELIMIT_PER_MINUTE and RATELIMIT_BURST must not be negative")
	}
	if c.Backup.Schedule != "" && c.Backup.Dir == "" {
		return errors.New("BACKUP_DIR is required when BACKUP_SCHEDULE is set")
	}

	seen := make(map[string]bool, len(c.Categories))
	for _, category := range c.Categories {
		if seen[category] {
			return fmt.Errorf("duplicate category %q", category)
		}
		seen[category] = true
	}
	return nil
}

// stringList accepts either a YAML list or a comma separated string.
func stringList(vp *viper.Viper, key string) []string {
	if value, ok := vp.Get(key).(string); ok {
		return splitCSV(value)
	}
	return splitCSV(strings.Join(vp.GetStringSlice(key), ","))
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
