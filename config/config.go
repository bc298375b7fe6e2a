package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env       string    `yaml:"env" env:"ENV" env-default:"development"`
	DbConfig  DbConfig  `yaml:"db" env-required:"true"`
	BotConfig BotConfig `yaml:"bot" env-required:"true"`
}

type DbConfig struct {
	Username string `yaml:"username" env:"DB_USERNAME"`
	Host     string `yaml:"host" env:"DB_HOST"`
	Port     string `yaml:"port" env:"DB_PORT"`
	DbName   string `yaml:"dbname" env:"DB_NAME"`
	SSLMode  string `yaml:"ssl_mode" env:"DB_SSL_MODE" env-default:"disable"`
}

type BotConfig struct {
	Token       string        `yaml:"token" env:"BOT_TOKEN" env-required:"true"`
	OwnerUserID int64         `yaml:"owner_user_id" env:"OWNER_USER_ID"`
	PollTimeout int           `yaml:"poll_timeout" env-default:"30"`
	SessionTTL  time.Duration `yaml:"session_ttl" env-default:"30m"`
}

func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/dev.yaml"
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("config file does not exist: %s", configPath)
	}

	var cfg Config
	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("error reading config file: %s. Error: %v", configPath, err)
	}

	return &cfg
}
