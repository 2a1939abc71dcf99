package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/util"
)

const (
	defaultConfigName = ".batchexec"
	defaultConfigDir  = ".batchexec"
	envPrefix         = "BATCHEXEC"
)

// Default values applied when the config file and environment leave a key unset
const (
	DefaultAddr                 = ":8080"
	DefaultMaxConcurrentBatches = 16
	DefaultMemoryBlockSize      = 1000
	DefaultShutdownTimeout      = 10 * time.Second
	DefaultLogLevel             = "info"
	DefaultLogFormat            = "text"
)

// Manager handles batchexec configuration
type Manager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
}

// NewManager creates a new configuration manager
func NewManager(configPath string) *Manager {
	v := viper.New()
	setDefaults(v)
	return &Manager{
		configPath: configPath,
		viper:      v,
		config:     &Config{},
	}
}

// setDefaults registers defaults with viper so that environment overrides
// are picked up by Unmarshal even when no config file exists
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", DefaultAddr)
	v.SetDefault("server.maxConcurrentBatches", DefaultMaxConcurrentBatches)
	v.SetDefault("server.memoryBlockSize", DefaultMemoryBlockSize)
	v.SetDefault("server.shutdownTimeout", DefaultShutdownTimeout)
	v.SetDefault("shared.workers", 0)
	v.SetDefault("shared.queueSize", 0)
	v.SetDefault("batch.poolSize", 0)
	v.SetDefault("batch.timeout", executor.DefaultTimeout)
	v.SetDefault("batch.namePrefix", executor.DefaultNamePrefix)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
}

// Load loads the batchexec configuration from file and environment
func (m *Manager) Load() (*Config, error) {
	// Set up config file path
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	} else {
		// Try multiple locations
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		// ~/.batchexec/config.yaml wins over ~/.batchexec.yaml
		dirConfig := filepath.Join(home, defaultConfigDir, "config.yaml")
		if _, err := os.Stat(dirConfig); err == nil {
			m.viper.SetConfigFile(dirConfig)
		} else {
			m.viper.AddConfigPath(home)
			m.viper.SetConfigName(defaultConfigName)
			m.viper.SetConfigType("yaml")
		}
	}

	// BATCHEXEC_BATCH_TIMEOUT overrides batch.timeout
	m.viper.SetEnvPrefix(envPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	m.config = &Config{}

	if err := m.viper.ReadInConfig(); err != nil {
		// It's okay if config file doesn't exist, we'll use defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := m.viper.Unmarshal(m.config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	m.applyDefaults()

	if err := m.config.Validate(); err != nil {
		return nil, err
	}

	return m.config, nil
}

// Save saves the current configuration to file
func (m *Manager) Save() error {
	if m.configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		m.configPath = filepath.Join(home, defaultConfigDir, "config.yaml")
	}

	// Ensure directory exists
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := m.viper.WriteConfigAs(m.configPath); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfig returns the current configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// Set overrides a single key, e.g. from a command-line flag
func (m *Manager) Set(key string, value interface{}) {
	m.viper.Set(key, value)
}

// applyDefaults fills values that Unmarshal left at their zero value,
// for instance when a config file sets a key to an empty string
func (m *Manager) applyDefaults() {
	if m.config == nil {
		return
	}

	if m.config.Server.Addr == "" {
		m.config.Server.Addr = DefaultAddr
	}
	if m.config.Server.MaxConcurrentBatches == 0 {
		m.config.Server.MaxConcurrentBatches = DefaultMaxConcurrentBatches
	}
	if m.config.Server.MemoryBlockSize == 0 {
		m.config.Server.MemoryBlockSize = DefaultMemoryBlockSize
	}
	if m.config.Server.ShutdownTimeout == 0 {
		m.config.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if m.config.Batch.Timeout == 0 {
		m.config.Batch.Timeout = executor.DefaultTimeout
	}
	if strings.TrimSpace(m.config.Batch.NamePrefix) == "" {
		m.config.Batch.NamePrefix = executor.DefaultNamePrefix
	}
	if m.config.Log.Level == "" {
		m.config.Log.Level = DefaultLogLevel
	}
	if m.config.Log.Format == "" {
		m.config.Log.Format = DefaultLogFormat
	}
}

// Validate checks the configuration for values that cannot be used
func (c *Config) Validate() error {
	var errs util.MultiError

	if c.Server.MaxConcurrentBatches < 0 {
		errs.Add(util.NewValidationError("server.maxConcurrentBatches", c.Server.MaxConcurrentBatches, "must not be negative"))
	}
	if c.Server.MemoryBlockSize < 0 {
		errs.Add(util.NewValidationError("server.memoryBlockSize", c.Server.MemoryBlockSize, "must not be negative"))
	}
	if c.Shared.Workers < 0 {
		errs.Add(util.NewValidationError("shared.workers", c.Shared.Workers, "must not be negative"))
	}
	if c.Shared.QueueSize < 0 {
		errs.Add(util.NewValidationError("shared.queueSize", c.Shared.QueueSize, "must not be negative"))
	}
	if c.Batch.PoolSize < 0 {
		errs.Add(util.NewValidationError("batch.poolSize", c.Batch.PoolSize, "must not be negative"))
	}
	if c.Batch.Timeout < 0 {
		errs.Add(util.NewValidationError("batch.timeout", c.Batch.Timeout, "must not be negative"))
	} else if c.Batch.Timeout > 0 && c.Batch.Timeout < time.Millisecond {
		// A bare number decodes as nanoseconds
		errs.Add(util.NewValidationError("batch.timeout", c.Batch.Timeout, "must be at least 1ms; use a duration string such as 3000ms"))
	}
	if c.Server.ShutdownTimeout > 0 && c.Server.ShutdownTimeout < time.Millisecond {
		errs.Add(util.NewValidationError("server.shutdownTimeout", c.Server.ShutdownTimeout, "must be at least 1ms; use a duration string such as 10s"))
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs.Add(util.NewValidationError("log.level", c.Log.Level, "must be one of debug, info, warn, error"))
	}

	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs.Add(util.NewValidationError("log.format", c.Log.Format, "must be text or json"))
	}

	return errs.ErrorOrNil()
}

// SharedExecutorConfig converts the shared section to executor settings
func (c *Config) SharedExecutorConfig() executor.SharedConfig {
	return executor.SharedConfig{
		Workers:   c.Shared.Workers,
		QueueSize: c.Shared.QueueSize,
	}
}

// BatchOptions converts the batch section to invoker options
func (c *Config) BatchOptions() []executor.Option {
	return []executor.Option{
		executor.WithPoolSize(c.Batch.PoolSize),
		executor.WithTimeout(c.Batch.Timeout),
		executor.WithNamePrefix(c.Batch.NamePrefix),
	}
}
