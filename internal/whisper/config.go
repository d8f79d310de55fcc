// File path: internal/whisper/config.go
package whisper

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures connection options for the LLMWhisperer OCR backend.
type Config struct {
	BaseURL        string        `json:"base_url"`
	APIKey         string        `json:"api_key"`
	Mode           string        `json:"mode"`
	OutputMode     string        `json:"output_mode"`
	MaxConnections int           `json:"max_connections"`
	Timeout        time.Duration `json:"-"`
	TimeoutString  string        `json:"timeout"`

	PollInterval    time.Duration `json:"-"`
	PollIntervalStr string        `json:"poll_interval"`
	PollTimeout     time.Duration `json:"-"`
	PollTimeoutStr  string        `json:"poll_timeout"`
}

// Merge overlays non-zero values from the override into the receiver.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.BaseURL) != "" {
		result.BaseURL = strings.TrimSpace(override.BaseURL)
	}
	if strings.TrimSpace(override.APIKey) != "" {
		result.APIKey = override.APIKey
	}
	if strings.TrimSpace(override.Mode) != "" {
		result.Mode = strings.TrimSpace(override.Mode)
	}
	if strings.TrimSpace(override.OutputMode) != "" {
		result.OutputMode = strings.TrimSpace(override.OutputMode)
	}
	if override.MaxConnections > 0 {
		result.MaxConnections = override.MaxConnections
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if strings.TrimSpace(override.TimeoutString) != "" {
		result.TimeoutString = strings.TrimSpace(override.TimeoutString)
	}
	if override.PollInterval > 0 {
		result.PollInterval = override.PollInterval
	}
	if strings.TrimSpace(override.PollIntervalStr) != "" {
		result.PollIntervalStr = strings.TrimSpace(override.PollIntervalStr)
	}
	if override.PollTimeout > 0 {
		result.PollTimeout = override.PollTimeout
	}
	if strings.TrimSpace(override.PollTimeoutStr) != "" {
		result.PollTimeoutStr = strings.TrimSpace(override.PollTimeoutStr)
	}
	return result
}

// LoadConfig reads configuration from the WHISPER_CONFIG_FILE if present and
// then applies environment variable overrides.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("WHISPER_CONFIG_FILE")); path != "" {
		fileCfg, err := loadFromFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg = cfg.Merge(fileCfg)
	}
	envCfg, err := loadFromEnv()
	if err != nil {
		return Config{}, err
	}
	cfg = cfg.Merge(envCfg)
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.BaseURL) == "" {
		c.BaseURL = "https://llmwhisperer-api.us-central.unstract.com/api/v2"
	}
	if strings.TrimSpace(c.Mode) == "" {
		c.Mode = "form"
	}
	if strings.TrimSpace(c.OutputMode) == "" {
		c.OutputMode = "layout_preserving"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 2
	}
	if c.Timeout <= 0 {
		if c.TimeoutString != "" {
			if parsed, err := time.ParseDuration(c.TimeoutString); err == nil {
				c.Timeout = parsed
			}
		}
		if c.Timeout <= 0 {
			c.Timeout = 30 * time.Second
		}
	}
	if c.PollInterval <= 0 {
		if c.PollIntervalStr != "" {
			if parsed, err := time.ParseDuration(c.PollIntervalStr); err == nil {
				c.PollInterval = parsed
			}
		}
		if c.PollInterval <= 0 {
			c.PollInterval = 5 * time.Second
		}
	}
	if c.PollTimeout <= 0 {
		if c.PollTimeoutStr != "" {
			if parsed, err := time.ParseDuration(c.PollTimeoutStr); err == nil {
				c.PollTimeout = parsed
			}
		}
		if c.PollTimeout <= 0 {
			c.PollTimeout = 3 * time.Minute
		}
	}
}

// Enabled reports whether the OCR backend has credentials to work with.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func loadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read whisper config: %w", err)
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse whisper config: %w", err)
	}
	return fileCfg, nil
}

func loadFromEnv() (Config, error) {
	cfg := Config{}
	if baseURL := strings.TrimSpace(os.Getenv("WHISPER_BASE_URL")); baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if apiKey := os.Getenv("WHISPER_API_KEY"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	if mode := strings.TrimSpace(os.Getenv("WHISPER_MODE")); mode != "" {
		cfg.Mode = mode
	}
	if outputMode := strings.TrimSpace(os.Getenv("WHISPER_OUTPUT_MODE")); outputMode != "" {
		cfg.OutputMode = outputMode
	}
	if max := strings.TrimSpace(os.Getenv("WHISPER_MAX_CONNECTIONS")); max != "" {
		value, err := strconv.Atoi(max)
		if err != nil {
			return Config{}, fmt.Errorf("parse WHISPER_MAX_CONNECTIONS: %w", err)
		}
		if value > 0 {
			cfg.MaxConnections = value
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("WHISPER_TIMEOUT")); timeout != "" {
		cfg.TimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = parsed
		}
	}
	if interval := strings.TrimSpace(os.Getenv("WHISPER_POLL_INTERVAL")); interval != "" {
		cfg.PollIntervalStr = interval
		if parsed, err := time.ParseDuration(interval); err == nil {
			cfg.PollInterval = parsed
		}
	}
	if pollTimeout := strings.TrimSpace(os.Getenv("WHISPER_POLL_TIMEOUT")); pollTimeout != "" {
		cfg.PollTimeoutStr = pollTimeout
		if parsed, err := time.ParseDuration(pollTimeout); err == nil {
			cfg.PollTimeout = parsed
		}
	}
	return cfg, nil
}
