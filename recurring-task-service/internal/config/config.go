package config

import (
	"log"
	"os"
	"strconv"

	"puretasks/pkg/config"
)

type RedeliveryConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	MaxRetries      int `yaml:"max_retries"`
}

type Config struct {
	Server     config.ServerConfig `yaml:"server"`
	Bus        config.BusConfig    `yaml:"bus"`
	MQ         config.MQConfig     `yaml:"mq"`
	Redis      config.RedisConfig  `yaml:"redis"`
	DB         config.DBConfig     `yaml:"db"`
	Auth       config.AuthConfig   `yaml:"auth"`
	Redelivery RedeliveryConfig    `yaml:"redelivery"`
}

func Load() *Config {
	env := config.GetConfigEnv()
	configDir := config.GetEnv("CONFIG_DIR", "config")

	cfgMap, err := config.LoadConfig(env, configDir)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var cfg Config
	if err := config.Decode(cfgMap, &cfg); err != nil {
		log.Fatalf("failed to decode config: %v", err)
	}

	config.OverrideServerFromEnv(&cfg.Server)
	config.OverrideBusFromEnv(&cfg.Bus)
	config.OverrideMQFromEnv(&cfg.MQ)
	config.OverrideRedisFromEnv(&cfg.Redis)
	config.OverrideDBFromEnv(&cfg.DB)
	config.OverrideAuthFromEnv(&cfg.Auth)
	if v := os.Getenv("REDELIVERY_INTERVAL_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redelivery.IntervalSeconds = n
		}
	}
	if v := os.Getenv("REDELIVERY_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Redelivery.MaxRetries = n
		}
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8002"
	}
	if cfg.Bus.SidecarPort == "" {
		cfg.Bus.SidecarPort = "3500"
	}
	if cfg.Bus.BackendAppID == "" {
		cfg.Bus.BackendAppID = "backend"
	}
	if cfg.Bus.PubSubName == "" {
		cfg.Bus.PubSubName = "kafka-pubsub"
	}
	if cfg.Redelivery.IntervalSeconds <= 0 {
		cfg.Redelivery.IntervalSeconds = 60
	}
	if cfg.Redelivery.MaxRetries <= 0 {
		cfg.Redelivery.MaxRetries = 3
	}

	return &cfg
}
