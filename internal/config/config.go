package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ContentStore ContentStoreConfig `yaml:"content_store"`
	Restaurant   RestaurantConfig   `yaml:"restaurant"`
	Monitor      MonitorConfig      `yaml:"monitor"`
	Sound        SoundConfig        `yaml:"sound"`
	RabbitMQ     RabbitMQConfig     `yaml:"rabbitmq"`
}

type ContentStoreConfig struct {
	ProjectID  string `yaml:"project_id"`
	Dataset    string `yaml:"dataset"`
	APIVersion string `yaml:"api_version"`
	Token      string `yaml:"token"`
	// BaseURL overrides the derived API host, mainly for tests.
	BaseURL string `yaml:"base_url"`
}

type RestaurantConfig struct {
	ID string `yaml:"id"`
}

type MonitorConfig struct {
	PollIntervalSeconds    int `yaml:"poll_interval_seconds"`
	ResumeSettleSeconds    int `yaml:"resume_settle_seconds"`
	DecisionTimeoutSeconds int `yaml:"decision_timeout_seconds"`
}

type SoundConfig struct {
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type RabbitMQConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.ContentStore.APIVersion == "" {
		c.ContentStore.APIVersion = "2023-05-03"
	}
	if c.ContentStore.Dataset == "" {
		c.ContentStore.Dataset = "production"
	}
	if c.Monitor.PollIntervalSeconds <= 0 {
		c.Monitor.PollIntervalSeconds = 10
	}
	if c.Monitor.ResumeSettleSeconds <= 0 {
		c.Monitor.ResumeSettleSeconds = 3
	}
	if c.Monitor.DecisionTimeoutSeconds <= 0 {
		c.Monitor.DecisionTimeoutSeconds = 60
	}
}

func (c *Config) validate() error {
	if c.ContentStore.ProjectID == "" && c.ContentStore.BaseURL == "" {
		return fmt.Errorf("content_store.project_id is required")
	}
	if c.Restaurant.ID == "" {
		return fmt.Errorf("restaurant.id is required")
	}
	return nil
}

func (c *MonitorConfig) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *MonitorConfig) ResumeSettle() time.Duration {
	return time.Duration(c.ResumeSettleSeconds) * time.Second
}

func (c *MonitorConfig) DecisionTimeout() time.Duration {
	return time.Duration(c.DecisionTimeoutSeconds) * time.Second
}
