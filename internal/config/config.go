// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	BaseURL string        `yaml:"base_url"` // e.g. https://host/api
	Timeout time.Duration `yaml:"timeout"`  // non-stream requests only
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type AdminConfig struct {
	Port   int    `yaml:"port"`    // 0 disables the status server
	APIKey string `yaml:"api_key"` // guards /api/v1 when set
}

type AuthConfig struct {
	CredentialsFile string `yaml:"credentials_file"`
	EncryptionKey   string `yaml:"encryption_key"` // optional, 16/24/32 bytes
}

type ChatConfig struct {
	ProjectID           string  `yaml:"project_id"`
	PromptID            int     `yaml:"prompt_id"`
	KnowledgeBaseID     string  `yaml:"knowledge_base_id"`
	UseKnowledgeBase    *bool   `yaml:"use_knowledge_base"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"` // 0.0-1.0
	TopK                int     `yaml:"top_k"`                // 1-20
	TokenizerModel      string  `yaml:"tokenizer_model"`      // pre-send estimate encoding
}

type Config struct {
	Server ServerConfig `yaml:"server"`
	Log    LogConfig    `yaml:"log"`
	Admin  AdminConfig  `yaml:"admin"`
	Auth   AuthConfig   `yaml:"auth"`
	Chat   ChatConfig   `yaml:"chat"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Timeout <= 0 {
		cfg.Server.Timeout = 30 * time.Second
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Chat.UseKnowledgeBase == nil {
		t := true
		cfg.Chat.UseKnowledgeBase = &t
	}
	if cfg.Chat.SimilarityThreshold <= 0 {
		cfg.Chat.SimilarityThreshold = 0.3
	}
	if cfg.Chat.TopK <= 0 {
		cfg.Chat.TopK = 5
	}
	if cfg.Chat.TokenizerModel == "" {
		cfg.Chat.TokenizerModel = "gpt-4o-mini"
	}
	if cfg.Auth.CredentialsFile == "" {
		cfg.Auth.CredentialsFile = defaultCredentialsFile()
	}

	// Minimal validation
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}
	cfg.Server.BaseURL = strings.TrimRight(cfg.Server.BaseURL, "/")
	if k := len(cfg.Auth.EncryptionKey); k != 0 && k != 16 && k != 24 && k != 32 {
		return nil, fmt.Errorf("auth.encryption_key must be 16, 24, or 32 bytes; got %d", k)
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func defaultCredentialsFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "agentloop-chat", "credentials.json")
}
