// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration loaded from YAML.
type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Reader   ReaderConfig   `yaml:"reader"`
	AI       AIConfig       `yaml:"ai"`
	Storage  StorageConfig  `yaml:"storage"`
	Quota    QuotaConfig    `yaml:"quota"`
}

// ProviderConfig holds credentials and endpoints for the content board API.
type ProviderConfig struct {
	BaseURL     string `yaml:"base_url"`
	AccessToken string `yaml:"access_token"`
}

// ReaderConfig points at the article reader service used for document
// extraction. Token is optional; the extractor falls back to
// unauthenticated requests when the authenticated call fails.
type ReaderConfig struct {
	BaseURL string `yaml:"base_url"`
	Token   string `yaml:"token"`
}

// AIConfig holds embedding and vision endpoint settings.
type AIConfig struct {
	EmbeddingHost  string `yaml:"embedding_host"`
	VisionHost     string `yaml:"vision_host"`
	EmbeddingModel string `yaml:"embedding_model"`
	VisionModel    string `yaml:"vision_model"`
	APIToken       string `yaml:"api_token"`
}

// StorageConfig names the badger database location.
type StorageConfig struct {
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

// QuotaConfig allows overriding the built-in tier ceilings. Zero values
// keep the defaults.
type QuotaConfig struct {
	FreeLifetimeLimit int `yaml:"free_lifetime_limit"`
	FreeChannelLimit  int `yaml:"free_channel_limit"`
	StarterMonthly    int `yaml:"starter_monthly"`
	ProMonthly        int `yaml:"pro_monthly"`
}

// Load reads a YAML configuration file, applies defaults and
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.setDefaults()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration usable without a file, suitable for
// local development against an Ollama instance.
func Default() *Config {
	cfg := &Config{}
	cfg.setDefaults()
	cfg.applyEnv()
	return cfg
}

func (c *Config) setDefaults() {
	if c.AI.EmbeddingHost == "" {
		c.AI.EmbeddingHost = "http://localhost:11434/v1"
	}
	if c.AI.VisionHost == "" {
		c.AI.VisionHost = c.AI.EmbeddingHost
	}
	if c.AI.EmbeddingModel == "" {
		c.AI.EmbeddingModel = "embeddinggemma"
	}
	if c.AI.VisionModel == "" {
		c.AI.VisionModel = "llava"
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "boardvec.db"
	}
	if c.Quota.FreeLifetimeLimit == 0 {
		c.Quota.FreeLifetimeLimit = 50
	}
	if c.Quota.FreeChannelLimit == 0 {
		c.Quota.FreeChannelLimit = 25
	}
	if c.Quota.StarterMonthly == 0 {
		c.Quota.StarterMonthly = 500
	}
	if c.Quota.ProMonthly == 0 {
		c.Quota.ProMonthly = 2000
	}
}

// applyEnv lets secrets come in through the environment so config
// files can be committed without tokens.
func (c *Config) applyEnv() {
	if v := os.Getenv("BOARDVEC_PROVIDER_TOKEN"); v != "" {
		c.Provider.AccessToken = v
	}
	if v := os.Getenv("BOARDVEC_READER_TOKEN"); v != "" {
		c.Reader.Token = v
	}
	if v := os.Getenv("BOARDVEC_AI_TOKEN"); v != "" {
		c.AI.APIToken = v
	}
}

// Validate checks required fields and rejects nonsensical limits.
func (c *Config) Validate() error {
	if c.Provider.BaseURL == "" {
		return fmt.Errorf("provider base_url is required")
	}
	if c.AI.EmbeddingHost == "" {
		return fmt.Errorf("ai embedding_host is required")
	}
	if c.Quota.FreeLifetimeLimit < 0 || c.Quota.FreeChannelLimit < 0 {
		return fmt.Errorf("quota limits must be non-negative")
	}
	if c.Quota.StarterMonthly < 0 || c.Quota.ProMonthly < 0 {
		return fmt.Errorf("quota limits must be non-negative")
	}
	return nil
}
