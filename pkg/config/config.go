package config

import (
	"os"
	"strconv"
)

// Shared configuration sections. Each service composes the ones it needs
// and applies the matching Override*FromEnv so environment variables win
// over anything the yaml files said.

// DBConfig holds PostgreSQL settings for the failed-event journal.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// MQConfig holds the broker URL for the direct AMQP ingress. Empty URL
// disables the AMQP consumer and leaves only the sidecar HTTP ingress.
type MQConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// BusConfig locates the pub/sub sidecar and names the task-owning
// backend for service invocation.
type BusConfig struct {
	SidecarPort  string `yaml:"sidecar_port"`
	BackendAppID string `yaml:"backend_app_id"`
	PubSubName   string `yaml:"pubsub_name"`
}

// AuthConfig carries the secret for minting service-to-service tokens.
// Empty secret means outbound calls go unauthenticated.
type AuthConfig struct {
	ServiceSecret string `yaml:"service_secret"`
}

type ServerConfig struct {
	Port string `yaml:"port"`
}

func OverrideDBFromEnv(cfg *DBConfig) {
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Port = p
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.User = user
	}
	if password := os.Getenv("DB_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Name = name
	}
}

func OverrideMQFromEnv(cfg *MQConfig) {
	if url := os.Getenv("MQ_URL"); url != "" {
		cfg.URL = url
	}
}

func OverrideRedisFromEnv(cfg *RedisConfig) {
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Addr = addr
	}
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		cfg.Password = password
	}
}

func OverrideBusFromEnv(cfg *BusConfig) {
	if port := os.Getenv("DAPR_HTTP_PORT"); port != "" {
		cfg.SidecarPort = port
	}
	if appID := os.Getenv("BACKEND_APP_ID"); appID != "" {
		cfg.BackendAppID = appID
	}
	if name := os.Getenv("PUBSUB_NAME"); name != "" {
		cfg.PubSubName = name
	}
}

func OverrideAuthFromEnv(cfg *AuthConfig) {
	if secret := os.Getenv("SERVICE_JWT_SECRET"); secret != "" {
		cfg.ServiceSecret = secret
	}
}

func OverrideServerFromEnv(cfg *ServerConfig) {
	if port := os.Getenv("SERVER_PORT"); port != "" {
		cfg.Port = port
	}
}
