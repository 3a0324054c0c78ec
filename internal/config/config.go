// Package config provides application configuration.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Port          string
	GRPCPort      string
	AppEnv        string
	LogLevel      string
	CatalogPath   string
	AWSRegion     string
	CORSOrigins   []string
	ChatRateLimit int // requests per minute per client IP, 0 disables
	MCPEnabled    bool
	LLM           LLMConfig
	Rates         RatesConfig
	ChatLog       ChatLogConfig
}

// LLMConfig selects the model provider.
type LLMConfig struct {
	Provider string
	Model    string
	BaseURL  string
	APIKey   string
	Timeout  time.Duration
}

// RatesConfig configures the exchange rates API.
type RatesConfig struct {
	AppID   string
	BaseURL string
	Timeout time.Duration
}

// ChatLogConfig controls the NDJSON chat transcript.
type ChatLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// SetDefaults registers every key with its default and binds it to the
// environment variable of the same name in upper case.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", "3000")
	v.SetDefault("grpc_port", "")
	v.SetDefault("app_env", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("catalog_path", "assets/product_list_fixed.csv")
	v.SetDefault("aws_region", "")
	v.SetDefault("cors_origins", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("chat_rate_limit", 30)
	v.SetDefault("mcp_enabled", true)

	v.SetDefault("llm_provider", "openai")
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_base_url", "")
	v.SetDefault("llm_timeout", 60*time.Second)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("anthropic_api_key", "")

	v.SetDefault("open_exchange_app_id", "")
	v.SetDefault("open_exchange_base_url", "https://openexchangerates.org/api")
	v.SetDefault("rates_timeout", 10*time.Second)

	v.SetDefault("chat_log_enabled", false)
	v.SetDefault("chat_log_dir", "./data/logs/chat")
	v.SetDefault("chat_log_queue_size", 1000)

	v.AutomaticEnv()
}

// Load reads configuration from v. When configFile is set it is read first;
// environment variables and bound flags take precedence over it.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	provider := strings.ToLower(strings.TrimSpace(v.GetString("llm_provider")))
	apiKey := v.GetString("openai_api_key")
	if provider == "anthropic" {
		apiKey = v.GetString("anthropic_api_key")
	}

	cfg := &Config{
		Port:          v.GetString("port"),
		GRPCPort:      v.GetString("grpc_port"),
		AppEnv:        v.GetString("app_env"),
		LogLevel:      v.GetString("log_level"),
		CatalogPath:   v.GetString("catalog_path"),
		AWSRegion:     v.GetString("aws_region"),
		CORSOrigins:   splitList(v.GetString("cors_origins")),
		ChatRateLimit: v.GetInt("chat_rate_limit"),
		MCPEnabled:    v.GetBool("mcp_enabled"),
		LLM: LLMConfig{
			Provider: provider,
			Model:    v.GetString("llm_model"),
			BaseURL:  v.GetString("llm_base_url"),
			APIKey:   apiKey,
			Timeout:  v.GetDuration("llm_timeout"),
		},
		Rates: RatesConfig{
			AppID:   v.GetString("open_exchange_app_id"),
			BaseURL: v.GetString("open_exchange_base_url"),
			Timeout: v.GetDuration("rates_timeout"),
		},
		ChatLog: ChatLogConfig{
			Enabled:   v.GetBool("chat_log_enabled"),
			Dir:       v.GetString("chat_log_dir"),
			QueueSize: v.GetInt("chat_log_queue_size"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
// API keys are checked when the model client is built.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.CatalogPath == "" {
		return fmt.Errorf("CATALOG_PATH cannot be empty")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("LLM_PROVIDER must be openai or anthropic, got %q", c.LLM.Provider)
	}
	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be > 0")
	}
	if c.Rates.Timeout <= 0 {
		return fmt.Errorf("RATES_TIMEOUT must be > 0")
	}
	if c.ChatRateLimit < 0 {
		return fmt.Errorf("CHAT_RATE_LIMIT must be >= 0")
	}
	if c.ChatLog.Enabled && c.ChatLog.Dir == "" {
		return fmt.Errorf("CHAT_LOG_DIR cannot be empty")
	}
	if c.ChatLog.QueueSize <= 0 {
		return fmt.Errorf("CHAT_LOG_QUEUE_SIZE must be > 0")
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	if c.AppEnv != "" {
		return c.AppEnv == "development"
	}
	for _, o := range c.CORSOrigins {
		if !strings.Contains(o, "localhost") && !strings.Contains(o, "127.0.0.1") {
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
