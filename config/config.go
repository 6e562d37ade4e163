package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"quicker-admin/logger"
)

type Config struct {
	AppHost     string `mapstructure:"app_host"`
	AppPort     string `mapstructure:"app_port"`
	AppEnv      string `mapstructure:"app_env"`
	FrontendURL string `mapstructure:"frontend_url"`
	LogDir      string `mapstructure:"log_dir"`

	DBDriver   string `mapstructure:"db_driver"`
	DBPath     string `mapstructure:"db_path"`
	DBHost     string `mapstructure:"db_host"`
	DBPort     string `mapstructure:"db_port"`
	DBDatabase string `mapstructure:"db_database"`
	DBUsername string `mapstructure:"db_username"`
	DBPassword string `mapstructure:"db_password"`
	DBSSLMode  string `mapstructure:"db_sslmode"`

	SecretKey  string        `mapstructure:"secret_key"`
	SessionTTL time.Duration `mapstructure:"session_ttl"`

	AdminUsername        string `mapstructure:"admin_username"`
	AdminInitialPassword string `mapstructure:"admin_initial_password"`

	LoginMaxAttempts  int           `mapstructure:"login_max_attempts"`
	LoginLockDuration time.Duration `mapstructure:"login_lock_duration"`
	LoginRateLimit    int           `mapstructure:"login_rate_limit"`
	LoginRateWindow   time.Duration `mapstructure:"login_rate_window"`
	APIRateLimit      int           `mapstructure:"api_rate_limit"`
	APIRateWindow     time.Duration `mapstructure:"api_rate_window"`
	RedisAddr         string        `mapstructure:"redis_addr"`

	BackupDir         string `mapstructure:"backup_dir"`
	APIUsageThreshold int    `mapstructure:"api_usage_threshold"`
	ExpiryNoticeDays  int    `mapstructure:"expiry_notice_days"`
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Warning("No .env file loaded, using process environment")
	}

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.LoginMaxAttempts < 1 {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS must be positive")
	}
	if c.LoginLockDuration <= 0 {
		return fmt.Errorf("LOGIN_LOCK_DURATION must be positive")
	}
	if c.IsProduction() && c.SecretKey == defaultSecretKey {
		return fmt.Errorf("SECRET_KEY must be set in production")
	}
	return nil
}

const defaultSecretKey = "change-me-in-development"

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_host", "0.0.0.0")
	v.SetDefault("app_port", "5000")
	v.SetDefault("app_env", "development")
	v.SetDefault("frontend_url", "http://localhost:3000")
	v.SetDefault("log_dir", "log/app")

	v.SetDefault("db_driver", "sqlite")
	v.SetDefault("db_path", "quicker.db")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_database", "quicker")
	v.SetDefault("db_username", "")
	v.SetDefault("db_password", "")
	v.SetDefault("db_sslmode", "disable")

	v.SetDefault("secret_key", defaultSecretKey)
	v.SetDefault("session_ttl", "8h")

	v.SetDefault("admin_username", "admin")
	v.SetDefault("admin_initial_password", "4568")

	v.SetDefault("login_max_attempts", 5)
	v.SetDefault("login_lock_duration", "30m")
	v.SetDefault("login_rate_limit", 50)
	v.SetDefault("login_rate_window", "1h")
	v.SetDefault("api_rate_limit", 3000)
	v.SetDefault("api_rate_window", "1h")
	v.SetDefault("redis_addr", "")

	v.SetDefault("backup_dir", "backups")
	v.SetDefault("api_usage_threshold", 1000)
	v.SetDefault("expiry_notice_days", 7)
}
