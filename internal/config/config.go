// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const devJWTSecret = "dev_only_insecure_secret"

// Config is the resolved application configuration.
type Config struct {
	AppPort   string
	AppEnv    string
	LogLevel  string
	LogFormat string

	DBDriver    string
	DatabaseDSN string

	JWTSecret string
	TokenTTL  time.Duration

	RedisURL string

	RabbitMQURL         string
	NotificationQueue   string
	NotificationWorkers int
	NotificationBuffer  int

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	ExpoPushURL  string
	ShopEmail    string

	SeedCatalog   bool
	BakerEmail    string
	BakerPassword string
	BakerName     string
}

// IsDevelopment reports whether the service runs in a development setup.
func (c *Config) IsDevelopment() bool {
	switch strings.ToLower(c.AppEnv) {
	case "", "dev", "development", "local", "test":
		return true
	}
	return false
}

// SMTPEnabled reports whether outgoing mail is configured.
func (c *Config) SMTPEnabled() bool {
	return c.SMTPHost != "" && c.SMTPFrom != ""
}

// Load reads envFiles (missing files are ignored), then the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		// godotenv never overrides variables that are already set.
		_ = godotenv.Load(f)
	}

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:             v.GetString("APP_PORT"),
		AppEnv:              v.GetString("APP_ENV"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		DBDriver:            strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		TokenTTL:            v.GetDuration("TOKEN_TTL"),
		RedisURL:            v.GetString("REDIS_URL"),
		RabbitMQURL:         v.GetString("RABBITMQ_URL"),
		NotificationQueue:   v.GetString("NOTIFICATION_QUEUE"),
		NotificationWorkers: v.GetInt("NOTIFICATION_WORKERS"),
		NotificationBuffer:  v.GetInt("NOTIFICATION_BUFFER"),
		SMTPHost:            v.GetString("SMTP_HOST"),
		SMTPPort:            v.GetInt("SMTP_PORT"),
		SMTPUsername:        v.GetString("SMTP_USERNAME"),
		SMTPPassword:        v.GetString("SMTP_PASSWORD"),
		SMTPFrom:            v.GetString("SMTP_FROM"),
		ExpoPushURL:         v.GetString("EXPO_PUSH_URL"),
		ShopEmail:           v.GetString("SHOP_EMAIL"),
		SeedCatalog:         v.GetBool("SEED_CATALOG"),
		BakerEmail:          v.GetString("BAKER_EMAIL"),
		BakerPassword:       v.GetString("BAKER_PASSWORD"),
		BakerName:           v.GetString("BAKER_NAME"),
	}
	if !strings.HasPrefix(cfg.AppPort, ":") {
		cfg.AppPort = ":" + cfg.AppPort
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("DB_DRIVER", "sqlite")
	v.SetDefault("DATABASE_DSN", "bakehub.db")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("NOTIFICATION_QUEUE", "notification_queue")
	v.SetDefault("NOTIFICATION_WORKERS", 2)
	v.SetDefault("NOTIFICATION_BUFFER", 100)
	v.SetDefault("SMTP_PORT", 587)
	v.SetDefault("BAKER_NAME", "Head Baker")
}

func (c *Config) validate() error {
	if c.DBDriver != "sqlite" && c.DBDriver != "postgres" {
		return fmt.Errorf("unsupported DB_DRIVER %q (want sqlite or postgres)", c.DBDriver)
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = devJWTSecret
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive, got %s", c.TokenTTL)
	}
	if (c.BakerEmail == "") != (c.BakerPassword == "") {
		return errors.New("BAKER_EMAIL and BAKER_PASSWORD must be set together")
	}
	return nil
}
