package config

import (
	"os"
	"strconv"

	"hqchat_backend/internal/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		Env  string `yaml:"env"`
	} `yaml:"server"`

	Database struct {
		DSN string `yaml:"url"`
	} `yaml:"database"`

	JWT struct {
		Secret string `yaml:"secret"`
		// Signing algorithm expected on inbound tokens. Tokens signed
		// with any other method are rejected.
		Alg string `yaml:"alg"`
		TTL int    `yaml:"ttl"` // minutes
	} `yaml:"jwt"`

	WebSocket struct {
		// Where the bearer credential is read from on the handshake:
		// "header", "query" or "both". Browser clients cannot set
		// custom headers on a websocket upgrade, so "both" is the
		// safe default.
		TokenSource string `yaml:"token_source"`
		// When true, inbound text frames are relayed to the room
		// as-is instead of going through the persisted send pipeline.
		RelayMessages bool `yaml:"relay_messages"`
	} `yaml:"websocket"`

	Chat struct {
		// When true, holding can_view_chat is enough to join a room
		// without a member row (public rooms).
		OpenRooms bool `yaml:"open_rooms"`
	} `yaml:"chat"`
}

var AppConfig *Config

const (
	TokenSourceHeader = "header"
	TokenSourceQuery  = "query"
	TokenSourceBoth   = "both"
)

// LoadConfig заполняет AppConfig из config.yaml либо из переменных
// окружения (тестовый/контейнерный режим, когда задан DATABASE_URL).
func LoadConfig() {
	var cfg Config

	_ = godotenv.Load()

	if os.Getenv("DATABASE_URL") == "" {
		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			logger.Fatal("Failed to open config file", "path", configPath, "error", err)
		}
		defer f.Close()

		if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
			logger.Fatal("Failed to parse config file", "path", configPath, "error", err)
		}

		applyDefaults(&cfg)
		AppConfig = &cfg
		return
	}

	cfg.Database.DSN = os.Getenv("DATABASE_URL")
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.Alg = os.Getenv("JWT_ALG")
	cfg.JWT.TTL = 60
	cfg.WebSocket.TokenSource = os.Getenv("WS_TOKEN_SOURCE")
	cfg.Chat.OpenRooms = os.Getenv("CHAT_OPEN_ROOMS") == "true"

	applyDefaults(&cfg)
	AppConfig = &cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.JWT.Alg == "" {
		cfg.JWT.Alg = "HS256"
	}
	if cfg.JWT.TTL == 0 {
		cfg.JWT.TTL = 60
	}
	if cfg.WebSocket.TokenSource == "" {
		cfg.WebSocket.TokenSource = TokenSourceBoth
	}
}

// GetConfig возвращает загруженную конфигурацию.
func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
