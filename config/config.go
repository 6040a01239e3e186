// Package config resolves server settings from the environment, after
// loading a .env file outside production.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Env           string
	Addr          string
	DatabaseURL   string
	RedisURL      string
	SessionTTL    time.Duration
	AdminEmail    string
	AdminPassword string
	SeedDemo      bool
}

func (c Config) Production() bool {
	return c.Env == "production"
}

// Load reads .env (unless APP_ENV is production) and then the environment.
func Load(envFiles ...string) (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(envFiles...); err != nil {
			log.Println("No .env file found, continuing with the environment")
		}
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("app_env", "development")
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "redis://localhost:6379/0")
	v.SetDefault("session_ttl", "24h")
	v.SetDefault("admin_email", "")
	v.SetDefault("admin_password", "")
	v.SetDefault("seed_demo", true)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		Env:           v.GetString("app_env"),
		Addr:          v.GetString("addr"),
		DatabaseURL:   v.GetString("database_url"),
		RedisURL:      v.GetString("redis_url"),
		SessionTTL:    v.GetDuration("session_ttl"),
		AdminEmail:    v.GetString("admin_email"),
		AdminPassword: v.GetString("admin_password"),
		SeedDemo:      v.GetBool("seed_demo"),
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("SESSION_TTL must be positive, got %q", v.GetString("session_ttl"))
	}
	if cfg.DatabaseURL == "" && cfg.AdminEmail == "" {
		return Config{}, fmt.Errorf("either DATABASE_URL or ADMIN_EMAIL must be set")
	}
	return cfg, nil
}
