package config

import (
	"log"

	"puretasks/pkg/config"
)

type Config struct {
	Server config.ServerConfig `yaml:"server"`
	Bus    config.BusConfig    `yaml:"bus"`
	MQ     config.MQConfig     `yaml:"mq"`
	Auth   config.AuthConfig   `yaml:"auth"`
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
	config.OverrideAuthFromEnv(&cfg.Auth)

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8001"
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

	return &cfg
}
