package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr     string `yaml:"listen_addr"`
	DBPath         string `yaml:"db_path"`
	ImagePath      string `yaml:"image_path"`
	SiteDir        string `yaml:"site_dir"`
	SessionBackend string `yaml:"session_backend"` // sqlite | memory
	SessionKey     string `yaml:"session_key"`
	MaxImageBytes  int64  `yaml:"max_image_bytes"`
	DraftBackend   string `yaml:"draft_backend"` // none | claude | ollama
	OllamaHost     string `yaml:"ollama_host"`
	OllamaModel    string `yaml:"ollama_model"`
	ClaudeAPIKey   string `yaml:"claude_api_key"`
	ClaudeModel    string `yaml:"claude_model"`
	ClaudeBaseURL  string `yaml:"claude_base_url"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"` // json | text
	LogFile        string `yaml:"log_file"`
}

func defaults() *Config {
	return &Config{
		ListenAddr:     ":8080",
		DBPath:         "/data/explainui.db",
		ImagePath:      "/data/images",
		SessionBackend: "sqlite",
		SessionKey:     "explain-this-ui:v1",
		MaxImageBytes:  50 << 20,
		DraftBackend:   "none",
		OllamaHost:     "http://localhost:11434",
		OllamaModel:    "llava",
		ClaudeModel:    "claude-sonnet-4-5",
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE if set, then environment variables.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ListenAddr = getEnv("LISTEN_ADDR", cfg.ListenAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.ImagePath = getEnv("IMAGE_PATH", cfg.ImagePath)
	cfg.SiteDir = getEnv("SITE_DIR", cfg.SiteDir)
	cfg.SessionBackend = getEnv("SESSION_BACKEND", cfg.SessionBackend)
	cfg.SessionKey = getEnv("SESSION_KEY", cfg.SessionKey)
	cfg.DraftBackend = getEnv("DRAFT_BACKEND", cfg.DraftBackend)
	cfg.OllamaHost = getEnv("OLLAMA_HOST", cfg.OllamaHost)
	cfg.OllamaModel = getEnv("OLLAMA_MODEL", cfg.OllamaModel)
	cfg.ClaudeAPIKey = getEnv("CLAUDE_API_KEY", cfg.ClaudeAPIKey)
	cfg.ClaudeModel = getEnv("CLAUDE_MODEL", cfg.ClaudeModel)
	cfg.ClaudeBaseURL = getEnv("CLAUDE_BASE_URL", cfg.ClaudeBaseURL)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.LogFile = getEnv("LOG_FILE", cfg.LogFile)

	if v, ok := os.LookupEnv("MAX_IMAGE_BYTES"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_IMAGE_BYTES %q: %w", v, err)
		}
		cfg.MaxImageBytes = n
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeFile overlays the keys present in a YAML file; absent keys keep
// their current value.
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	switch c.SessionBackend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown session backend %q", c.SessionBackend)
	}
	switch c.DraftBackend {
	case "", "none", "ollama":
	case "claude":
		if c.ClaudeAPIKey == "" {
			return fmt.Errorf("CLAUDE_API_KEY is required for the claude draft backend")
		}
	default:
		return fmt.Errorf("unknown draft backend %q", c.DraftBackend)
	}
	switch c.LogFormat {
	case "json", "text":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max image bytes must be positive, got %d", c.MaxImageBytes)
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val, exists := os.LookupEnv(key); exists {
		return val
	}
	return defaultVal
}
