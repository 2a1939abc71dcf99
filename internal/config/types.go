package config

import "time"

// Config represents the batchexec configuration file structure
type Config struct {
	// Server configures the HTTP shell started by `batchexec serve`
	Server ServerConfig `yaml:"server" json:"server" mapstructure:"server"`

	// Shared sizes the process-wide shared executor
	Shared SharedConfig `yaml:"shared" json:"shared" mapstructure:"shared"`

	// Batch contains defaults for per-call batch invocations
	Batch BatchConfig `yaml:"batch" json:"batch" mapstructure:"batch"`

	// Log configures the slog handler
	Log LogConfig `yaml:"log" json:"log" mapstructure:"log"`
}

// ServerConfig represents configuration for the HTTP shell
type ServerConfig struct {
	// Addr is the listen address
	Addr string `yaml:"addr" json:"addr" mapstructure:"addr"`

	// MaxConcurrentBatches bounds how many /v1/batch requests run at once
	MaxConcurrentBatches int64 `yaml:"maxConcurrentBatches" json:"maxConcurrentBatches" mapstructure:"maxConcurrentBatches"`

	// MemoryBlockSize is the number of records retained per /v1/memory/add call
	MemoryBlockSize int `yaml:"memoryBlockSize" json:"memoryBlockSize" mapstructure:"memoryBlockSize"`

	// ShutdownTimeout bounds graceful shutdown of the server and shared executor
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" json:"shutdownTimeout" mapstructure:"shutdownTimeout"`
}

// SharedConfig sizes the shared executor. Zero means "derive from CPU count".
type SharedConfig struct {
	Workers   int `yaml:"workers,omitempty" json:"workers,omitempty" mapstructure:"workers"`
	QueueSize int `yaml:"queueSize,omitempty" json:"queueSize,omitempty" mapstructure:"queueSize"`
}

// BatchConfig contains default values for batch invocations
type BatchConfig struct {
	// PoolSize is the worker count of each dedicated pool. Zero means 2x CPU.
	PoolSize int `yaml:"poolSize,omitempty" json:"poolSize,omitempty" mapstructure:"poolSize"`

	// Timeout is the overall and per-fetch timeout. It must be a duration
	// string such as "3000ms"; bare numbers are nanoseconds and are rejected.
	Timeout time.Duration `yaml:"timeout" json:"timeout" mapstructure:"timeout"`

	// NamePrefix names the worker goroutines of dedicated pools
	NamePrefix string `yaml:"namePrefix" json:"namePrefix" mapstructure:"namePrefix"`
}

// LogConfig configures logging
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level" json:"level" mapstructure:"level"`

	// Format is text or json
	Format string `yaml:"format" json:"format" mapstructure:"format"`
}
