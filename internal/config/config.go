package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cardio-risk-server/internal/domain"
)

// Manager loads and validates application configuration using Viper.
type Manager struct {
	config *domain.Config
}

// NewManager creates a new configuration manager
func NewManager() (*Manager, error) {
	m := &Manager{}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig() error {
	// Set configuration file name and paths
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("/etc/cardio-risk-server/")

	// Set environment variable prefix and enable automatic env binding
	viper.SetEnvPrefix("CARDIO")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	m.setDefaults()

	// Read configuration file (optional - will use defaults and env vars if not found)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; using defaults and environment variables
	}

	config := &domain.Config{}
	if err := viper.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.config = config
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")
	viper.SetDefault("server.idle_timeout", "120s")
	viper.SetDefault("server.rate_limit", 50.0)
	viper.SetDefault("server.rate_burst", 100)
	viper.SetDefault("server.cache_size", 256)

	// Engine defaults
	viper.SetDefault("engine.diseases", []string{
		string(domain.CORONARY_ARTERY_DISEASE),
		string(domain.HEART_ATTACK),
		string(domain.ARRHYTHMIA),
		string(domain.GENERAL_CARDIOVASCULAR),
	})
	viper.SetDefault("engine.model_timeout", "2s")
	viper.SetDefault("engine.workers", 4)
	viper.SetDefault("engine.top_factors", 5)

	// Remote algorithm service defaults
	viper.SetDefault("remote.enabled", false)
	viper.SetDefault("remote.base_url", "")
	viper.SetDefault("remote.timeout", "10s")
	viper.SetDefault("remote.rate_limit", 10)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *domain.Config {
	return m.config
}

// GetServerConfig returns server configuration
func (m *Manager) GetServerConfig() *domain.ServerConfig {
	return &m.config.Server
}

// GetEngineConfig returns scoring engine configuration
func (m *Manager) GetEngineConfig() *domain.EngineConfig {
	return &m.config.Engine
}

// GetRemoteConfig returns the remote algorithm service configuration
func (m *Manager) GetRemoteConfig() *domain.RemoteConfig {
	return &m.config.Remote
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}
	if config.Server.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit: %v", config.Server.RateLimit)
	}
	if config.Server.CacheSize <= 0 {
		return fmt.Errorf("invalid cache size: %d", config.Server.CacheSize)
	}

	if len(config.Engine.Diseases) == 0 {
		return fmt.Errorf("at least one disease must be configured")
	}
	for _, d := range config.Engine.Diseases {
		if !d.IsValid() {
			return fmt.Errorf("unknown disease in engine configuration: %s", d)
		}
	}
	if config.Engine.Workers < 0 {
		return fmt.Errorf("invalid worker count: %d", config.Engine.Workers)
	}
	for disease, table := range config.Engine.ModelWeights {
		for factor, w := range table {
			if w <= 0 {
				return fmt.Errorf("non-positive weight %v for %s/%s", w, disease, factor)
			}
		}
	}
	for disease, w := range config.Engine.AggregationWeights {
		if w <= 0 {
			return fmt.Errorf("non-positive aggregation weight %v for %s", w, disease)
		}
	}

	if config.Remote.Enabled && config.Remote.BaseURL == "" {
		return fmt.Errorf("remote scoring enabled but base URL is empty")
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}

	return nil
}

// IsProduction returns true if running in production mode
func (m *Manager) IsProduction() bool {
	return strings.ToLower(viper.GetString("environment")) == "production"
}

// IsDevelopment returns true if running in development mode
func (m *Manager) IsDevelopment() bool {
	env := strings.ToLower(viper.GetString("environment"))
	return env == "development" || env == "dev" || env == ""
}
