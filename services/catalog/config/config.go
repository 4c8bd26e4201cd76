package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env          string        `mapstructure:"APP_ENV"`
	DBHost       string        `mapstructure:"DB_HOST"`
	DBPort       string        `mapstructure:"DB_PORT"`
	DBUser       string        `mapstructure:"DB_USER"`
	DBPassword   string        `mapstructure:"DB_PASSWORD"`
	DBName       string        `mapstructure:"DB_NAME"`
	RedisAddr    string        `mapstructure:"REDIS_ADDR"`
	AccessSecret string        `mapstructure:"ACCESS_SECRET"`
	TokenTTL     time.Duration `mapstructure:"TOKEN_TTL"`
	HTTPPort     string        `mapstructure:"HTTP_PORT"`
	GRPCPort     string        `mapstructure:"GRPC_PORT"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`
}

func (c Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_NAME", "learnhub")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("TOKEN_TTL", "24h")
	v.SetDefault("HTTP_PORT", ":3000")
	v.SetDefault("GRPC_PORT", ":50051")
	v.SetDefault("LOG_LEVEL", "info")

	v.AutomaticEnv()

	// Bind explicitly so env vars are seen without a config file.
	for _, key := range []string{
		"APP_ENV", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
		"REDIS_ADDR", "ACCESS_SECRET", "TOKEN_TTL", "HTTP_PORT", "GRPC_PORT", "LOG_LEVEL",
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
