package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"APP_ENV"`
	Port           string        `mapstructure:"PORT"`
	CatalogURL     string        `mapstructure:"CATALOG_URL"`
	CatalogGRPC    string        `mapstructure:"CATALOG_GRPC_ADDR"`
	CatalogTimeout time.Duration `mapstructure:"CATALOG_TIMEOUT"`
	CatalogRetries int           `mapstructure:"CATALOG_RETRIES"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"`
	RedisAddr      string        `mapstructure:"REDIS_ADDR"`
	SessionSecret  string        `mapstructure:"SESSION_SECRET"`
	SessionTTL     time.Duration `mapstructure:"SESSION_TTL"`
	SecureCookies  bool          `mapstructure:"SECURE_COOKIES"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
}

// Origins splits ALLOWED_ORIGINS on commas.
func (c Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", ":8080")
	v.SetDefault("CATALOG_URL", "http://localhost:3000")
	v.SetDefault("CATALOG_GRPC_ADDR", "localhost:50051")
	v.SetDefault("CATALOG_TIMEOUT", "5s")
	v.SetDefault("CATALOG_RETRIES", 2)
	v.SetDefault("ALLOWED_ORIGINS", "http://localhost:3001")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SECURE_COOKIES", false)
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	for _, key := range []string{
		"APP_ENV", "PORT", "CATALOG_URL", "CATALOG_GRPC_ADDR", "CATALOG_TIMEOUT", "CATALOG_RETRIES",
		"ALLOWED_ORIGINS", "REDIS_ADDR", "SESSION_SECRET", "SESSION_TTL", "SECURE_COOKIES", "LOG_LEVEL",
	} {
		_ = v.BindEnv(key)
	}

	err = v.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
	}

	err = v.Unmarshal(&config)
	return
}
