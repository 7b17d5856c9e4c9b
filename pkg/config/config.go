// Package config loads the application configuration from a YAML file,
// with defaults, ${VAR} expansion for secrets and per-vendor settings
// maps decoded into the typed provider configs.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/fauzanhilmi/vocalis/pkg/configutil"
	"github.com/fauzanhilmi/vocalis/pkg/embeddings"
	"github.com/fauzanhilmi/vocalis/pkg/llm"
	"github.com/fauzanhilmi/vocalis/pkg/search"
	"github.com/fauzanhilmi/vocalis/pkg/stt"
	"github.com/fauzanhilmi/vocalis/pkg/tts"
)

type Config struct {
	Server    ServerConfig  `mapstructure:"server"`
	Vendors   VendorsConfig `mapstructure:"vendors"`
	Cache     CacheConfig   `mapstructure:"cache"`
	Prewarm   bool          `mapstructure:"prewarm"`
	LogLevel  string        `mapstructure:"log_level"`
	LogFormat string        `mapstructure:"log_format"`
}

type ServerConfig struct {
	Addr                string `mapstructure:"addr"`
	HeartbeatIntervalMS int    `mapstructure:"heartbeat_interval_ms"`
}

// VendorConfig is one provider's free-form settings block.
type VendorConfig struct {
	Settings map[string]any `mapstructure:"settings"`
}

type VendorsConfig struct {
	STT        VendorConfig `mapstructure:"stt"`
	TTS        VendorConfig `mapstructure:"tts"`
	Groq       VendorConfig `mapstructure:"groq"`
	OpenAI     VendorConfig `mapstructure:"openai"`
	Search     VendorConfig `mapstructure:"search"`
	Embeddings VendorConfig `mapstructure:"embeddings"`
}

type CacheConfig struct {
	SimilarityThreshold float64 `mapstructure:"similarity_threshold"`
	TTLSeconds          int     `mapstructure:"ttl_seconds"`
}

func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.heartbeat_interval_ms", 15000)
	v.SetDefault("cache.similarity_threshold", 0.85)
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("prewarm", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}

	expandEnvStrings(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.HeartbeatIntervalMS <= 0 {
		return fmt.Errorf("server.heartbeat_interval_ms must be positive")
	}
	if c.Cache.SimilarityThreshold <= 0 || c.Cache.SimilarityThreshold > 1 {
		return fmt.Errorf("cache.similarity_threshold must be in (0, 1]")
	}
	return nil
}

// Every settings key is optional: an absent api_key selects the
// deterministic stand-in for that provider.

// STT decodes the STT vendor settings.
func (c *Config) STT() (stt.Config, error) {
	var out stt.Config
	err := decodeVendor("vendors.stt.settings", c.Vendors.STT.Settings, &out, configutil.Schema{
		Optional: []string{"api_key", "model", "language", "sample_rate", "encoding", "interim"},
	})
	return out, err
}

// TTS decodes the TTS vendor settings.
func (c *Config) TTS() (tts.Config, error) {
	var out tts.Config
	err := decodeVendor("vendors.tts.settings", c.Vendors.TTS.Settings, &out, configutil.Schema{
		Optional: []string{"api_key", "model", "sample_rate"},
	})
	return out, err
}

// Groq decodes the primary generation provider settings.
func (c *Config) Groq() (llm.Config, error) {
	var out llm.Config
	err := decodeVendor("vendors.groq.settings", c.Vendors.Groq.Settings, &out, llmSchema)
	return out, err
}

// OpenAI decodes the secondary generation provider settings.
func (c *Config) OpenAI() (llm.Config, error) {
	var out llm.Config
	err := decodeVendor("vendors.openai.settings", c.Vendors.OpenAI.Settings, &out, llmSchema)
	return out, err
}

// Search decodes the web search provider settings.
func (c *Config) Search() (search.Config, error) {
	var out search.Config
	err := decodeVendor("vendors.search.settings", c.Vendors.Search.Settings, &out, configutil.Schema{
		Optional: []string{"api_key", "max_results"},
	})
	return out, err
}

// Embeddings decodes the embedding provider settings.
func (c *Config) Embeddings() (embeddings.Config, error) {
	var out embeddings.Config
	err := decodeVendor("vendors.embeddings.settings", c.Vendors.Embeddings.Settings, &out, configutil.Schema{
		Optional: []string{"api_key", "model", "base_url"},
	})
	return out, err
}

var llmSchema = configutil.Schema{
	Optional: []string{"api_key", "model", "base_url", "use_circuit_breaker", "circuit_threshold", "circuit_cooldown_ms"},
}

func decodeVendor(path string, settings map[string]any, out any, schema configutil.Schema) error {
	if err := configutil.ValidateSettings(settings, schema); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return configutil.DecodeSettings(settings, out)
}

// expandEnvStrings resolves ${VAR} references so API keys can live in
// the environment rather than the config file.
func expandEnvStrings(cfg *Config) {
	cfg.Server.Addr = os.ExpandEnv(cfg.Server.Addr)
	cfg.LogLevel = os.ExpandEnv(cfg.LogLevel)
	cfg.LogFormat = os.ExpandEnv(cfg.LogFormat)
	cfg.Vendors.STT.Settings = expandSettings(cfg.Vendors.STT.Settings)
	cfg.Vendors.TTS.Settings = expandSettings(cfg.Vendors.TTS.Settings)
	cfg.Vendors.Groq.Settings = expandSettings(cfg.Vendors.Groq.Settings)
	cfg.Vendors.OpenAI.Settings = expandSettings(cfg.Vendors.OpenAI.Settings)
	cfg.Vendors.Search.Settings = expandSettings(cfg.Vendors.Search.Settings)
	cfg.Vendors.Embeddings.Settings = expandSettings(cfg.Vendors.Embeddings.Settings)
}

func expandSettings(settings map[string]any) map[string]any {
	if settings == nil {
		return nil
	}
	for k, v := range settings {
		settings[k] = expandAny(v)
	}
	return settings
}

func expandAny(v any) any {
	switch val := v.(type) {
	case string:
		return os.ExpandEnv(val)
	case []any:
		for i := range val {
			val[i] = expandAny(val[i])
		}
		return val
	case map[string]any:
		for k, inner := range val {
			val[k] = expandAny(inner)
		}
		return val
	default:
		return v
	}
}
