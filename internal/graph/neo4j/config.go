// File path: internal/graph/neo4j/config.go
package neo4j

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config captures connection options for the Neo4j requirement graph.
type Config struct {
	URI           string        `json:"uri"`
	Username      string        `json:"username"`
	Password      string        `json:"password"`
	Database      string        `json:"database"`
	MaxPoolSize   int           `json:"max_pool_size"`
	Timeout       time.Duration `json:"-"`
	TimeoutString string        `json:"timeout"`
}

// Merge overlays non-zero values from the override into the receiver.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.URI) != "" {
		result.URI = strings.TrimSpace(override.URI)
	}
	if strings.TrimSpace(override.Username) != "" {
		result.Username = strings.TrimSpace(override.Username)
	}
	if strings.TrimSpace(override.Password) != "" {
		result.Password = override.Password
	}
	if strings.TrimSpace(override.Database) != "" {
		result.Database = strings.TrimSpace(override.Database)
	}
	if override.MaxPoolSize > 0 {
		result.MaxPoolSize = override.MaxPoolSize
	}
	if override.Timeout > 0 {
		result.Timeout = override.Timeout
	}
	if strings.TrimSpace(override.TimeoutString) != "" {
		result.TimeoutString = strings.TrimSpace(override.TimeoutString)
	}
	return result
}

// LoadConfig reads configuration from the NEO4J_CONFIG_FILE if present and
// then applies environment variable overrides.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if path := strings.TrimSpace(os.Getenv("NEO4J_CONFIG_FILE")); path != "" {
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
	if strings.TrimSpace(c.Username) == "" {
		c.Username = "neo4j"
	}
	if c.MaxPoolSize <= 0 {
		c.MaxPoolSize = 10
	}
	if c.Timeout <= 0 {
		if c.TimeoutString != "" {
			if parsed, err := time.ParseDuration(c.TimeoutString); err == nil {
				c.Timeout = parsed
			}
		}
		if c.Timeout <= 0 {
			c.Timeout = 10 * time.Second
		}
	}
}

// Enabled reports whether a graph endpoint was configured at all.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.URI) != ""
}

func loadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read neo4j config: %w", err)
	}
	var fileCfg Config
	if err := json.Unmarshal(data, &fileCfg); err != nil {
		return Config{}, fmt.Errorf("parse neo4j config: %w", err)
	}
	return fileCfg, nil
}

func loadFromEnv() (Config, error) {
	cfg := Config{}
	if uri := strings.TrimSpace(os.Getenv("NEO4J_URI")); uri != "" {
		cfg.URI = uri
	}
	if username := strings.TrimSpace(os.Getenv("NEO4J_USERNAME")); username != "" {
		cfg.Username = username
	}
	if password := os.Getenv("NEO4J_PASSWORD"); password != "" {
		cfg.Password = password
	}
	if database := strings.TrimSpace(os.Getenv("NEO4J_DATABASE")); database != "" {
		cfg.Database = database
	}
	if max := strings.TrimSpace(os.Getenv("NEO4J_MAX_POOL_SIZE")); max != "" {
		value, err := strconv.Atoi(max)
		if err != nil {
			return Config{}, fmt.Errorf("parse NEO4J_MAX_POOL_SIZE: %w", err)
		}
		if value > 0 {
			cfg.MaxPoolSize = value
		}
	}
	if timeout := strings.TrimSpace(os.Getenv("NEO4J_TIMEOUT")); timeout != "" {
		cfg.TimeoutString = timeout
		if parsed, err := time.ParseDuration(timeout); err == nil {
			cfg.Timeout = parsed
		}
	}
	return cfg, nil
}
