package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port      string `mapstructure:"port"`
	Mode      string `mapstructure:"mode"`
	WebOrigin string `mapstructure:"webOrigin"`
}

type DBConfig struct {
	Host     string `mapstructure:"host"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	Port     string `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type MailConfig struct {
	SendGridAPIKey string `mapstructure:"sendgridAPIKey"`
	FromEmail      string `mapstructure:"fromEmail"`
	HostEmail      string `mapstructure:"hostEmail"` // admin copy of every notification
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LendingConfig struct {
	// Grace period applied when a request is completed; return_deadline =
	// fulfillment time + this.
	ReturnGraceDays int `mapstructure:"returnGraceDays"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	DB      DBConfig      `mapstructure:"db"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Mail    MailConfig    `mapstructure:"mail"`
	Session SessionConfig `mapstructure:"session"`
	Lending LendingConfig `mapstructure:"lending"`
}

// Load reads config.yaml if present and overrides every key from the
// environment. A missing file is fine; env-only deployments are the norm.
func Load(path string) (config Config, err error) {
	// .env is only meaningful on a developer machine, ignore errors.
	_ = godotenv.Load()

	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	viper.BindEnv("server.port", "PORT")
	viper.BindEnv("server.mode", "GIN_MODE")
	viper.BindEnv("server.webOrigin", "WEB_ORIGIN")
	viper.BindEnv("db.host", "DB_HOST")
	viper.BindEnv("db.user", "DB_USER")
	viper.BindEnv("db.password", "DB_PASSWORD")
	viper.BindEnv("db.name", "DB_NAME")
	viper.BindEnv("db.port", "DB_PORT")
	viper.BindEnv("redis.addr", "REDIS_ADDR")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("mail.sendgridAPIKey", "SENDGRID_API_KEY")
	viper.BindEnv("mail.fromEmail", "EMAIL_USER")
	viper.BindEnv("mail.hostEmail", "HOST_EMAIL")

	viper.SetDefault("server.port", "3001")
	viper.SetDefault("server.webOrigin", "http://localhost:5173")
	viper.SetDefault("db.host", "127.0.0.1")
	viper.SetDefault("db.port", "5432")
	viper.SetDefault("redis.addr", "127.0.0.1:6379")
	viper.SetDefault("session.ttl", 24*time.Hour)
	viper.SetDefault("lending.returnGraceDays", 30)

	if err = viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return
		}
		err = nil
	}

	if err = viper.Unmarshal(&config); err != nil {
		return
	}
	config.Server.WebOrigin = strings.TrimRight(config.Server.WebOrigin, "/")
	return
}
