package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aryankumar/batchexec/internal/executor"
	"github.com/aryankumar/batchexec/internal/util"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), ".batchexec.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestManager_Load(t *testing.T) {
	tests := []struct {
		name          string
		configContent string
		wantErr       bool
		wantAddr      string
		wantTimeout   time.Duration
		wantPoolSize  int
		wantPrefix    string
		wantMaxBatch  int64
	}{
		{
			name: "full config",
			configContent: `
server:
  addr: 127.0.0.1:9090
  maxConcurrentBatches: 4
  memoryBlockSize: 10
shared:
  workers: 8
  queueSize: 64
batch:
  poolSize: 6
  timeout: 1500ms
  namePrefix: fanout
log:
  level: debug
  format: json
`,
			wantAddr:     "127.0.0.1:9090",
			wantTimeout:  1500 * time.Millisecond,
			wantPoolSize: 6,
			wantPrefix:   "fanout",
			wantMaxBatch: 4,
		},
		{
			name: "minimal config with defaults",
			configContent: `
batch:
  poolSize: 3
`,
			wantAddr:     DefaultAddr,
			wantTimeout:  executor.DefaultTimeout,
			wantPoolSize: 3,
			wantPrefix:   executor.DefaultNamePrefix,
			wantMaxBatch: DefaultMaxConcurrentBatches,
		},
		{
			name:          "blank prefix falls back to default",
			configContent: "batch:\n  namePrefix: \"   \"\n",
			wantAddr:      DefaultAddr,
			wantTimeout:   executor.DefaultTimeout,
			wantPrefix:    executor.DefaultNamePrefix,
			wantMaxBatch:  DefaultMaxConcurrentBatches,
		},
		{
			name:          "empty config",
			configContent: "",
			wantAddr:      DefaultAddr,
			wantTimeout:   executor.DefaultTimeout,
			wantPrefix:    executor.DefaultNamePrefix,
			wantMaxBatch:  DefaultMaxConcurrentBatches,
		},
		{
			name:          "negative pool size",
			configContent: "batch:\n  poolSize: -2\n",
			wantErr:       true,
		},
		{
			name:          "bare number timeout",
			configContent: "batch:\n  timeout: 3000\n",
			wantErr:       true,
		},
		{
			name:          "unknown log level",
			configContent: "log:\n  level: loud\n",
			wantErr:       true,
		},
		{
			name:          "malformed yaml",
			configContent: "batch: [unclosed",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(writeConfig(t, tt.configContent))
			config, err := manager.Load()

			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if config.Server.Addr != tt.wantAddr {
				t.Errorf("got addr %q, want %q", config.Server.Addr, tt.wantAddr)
			}
			if config.Batch.Timeout != tt.wantTimeout {
				t.Errorf("got timeout %v, want %v", config.Batch.Timeout, tt.wantTimeout)
			}
			if config.Batch.PoolSize != tt.wantPoolSize {
				t.Errorf("got pool size %d, want %d", config.Batch.PoolSize, tt.wantPoolSize)
			}
			if config.Batch.NamePrefix != tt.wantPrefix {
				t.Errorf("got prefix %q, want %q", config.Batch.NamePrefix, tt.wantPrefix)
			}
			if config.Server.MaxConcurrentBatches != tt.wantMaxBatch {
				t.Errorf("got max batches %d, want %d", config.Server.MaxConcurrentBatches, tt.wantMaxBatch)
			}
			if manager.GetConfig() != config {
				t.Error("GetConfig should return the loaded config")
			}
		})
	}
}

func TestManager_LoadMissingFile(t *testing.T) {
	manager := NewManager(filepath.Join(t.TempDir(), "missing.yaml"))

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
	if config.Batch.Timeout != executor.DefaultTimeout {
		t.Errorf("got timeout %v, want default %v", config.Batch.Timeout, executor.DefaultTimeout)
	}
}

func TestManager_LoadEnvOverride(t *testing.T) {
	t.Setenv("BATCHEXEC_BATCH_TIMEOUT", "250ms")
	t.Setenv("BATCHEXEC_SERVER_ADDR", ":7070")

	manager := NewManager(writeConfig(t, "batch:\n  timeout: 5s\n"))
	config, err := manager.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if config.Batch.Timeout != 250*time.Millisecond {
		t.Errorf("env should override file timeout, got %v", config.Batch.Timeout)
	}
	if config.Server.Addr != ":7070" {
		t.Errorf("env should override addr, got %q", config.Server.Addr)
	}
}

func TestManager_LoadHomeDirectory(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".batchexec")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("batch:\n  namePrefix: home\n"), 0644); err != nil {
		t.Fatal(err)
	}

	config, err := NewManager("").Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Batch.NamePrefix != "home" {
		t.Errorf("expected ~/.batchexec/config.yaml to be read, got prefix %q", config.Batch.NamePrefix)
	}
}

func TestManager_Set(t *testing.T) {
	manager := NewManager(writeConfig(t, "batch:\n  poolSize: 2\n"))
	manager.Set("batch.poolSize", 9)

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if config.Batch.PoolSize != 9 {
		t.Errorf("Set should override file value, got %d", config.Batch.PoolSize)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name       string
		config     Config
		wantFields []string
	}{
		{
			name:   "zero config is valid",
			config: Config{},
		},
		{
			name: "multiple problems",
			config: Config{
				Shared: SharedConfig{Workers: -1},
				Batch:  BatchConfig{Timeout: -time.Second},
				Log:    LogConfig{Format: "xml"},
			},
			wantFields: []string{"shared.workers", "batch.timeout", "log.format"},
		},
		{
			name: "sub-millisecond timeouts",
			config: Config{
				Server: ServerConfig{ShutdownTimeout: 10 * time.Nanosecond},
				Batch:  BatchConfig{Timeout: 3000 * time.Nanosecond},
			},
			wantFields: []string{"batch.timeout", "server.shutdownTimeout"},
		},
		{
			name:   "one millisecond is accepted",
			config: Config{Batch: BatchConfig{Timeout: time.Millisecond}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			if !errors.Is(err, util.ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got %v", err)
			}

			var multi *util.MultiError
			if !errors.As(err, &multi) {
				t.Fatalf("expected MultiError, got %T", err)
			}
			if multi.Len() != len(tt.wantFields) {
				t.Fatalf("got %d errors, want %d: %v", multi.Len(), len(tt.wantFields), err)
			}
			for i, field := range tt.wantFields {
				var verr *util.ValidationError
				if !errors.As(multi.Errors[i], &verr) || verr.Field != field {
					t.Errorf("error %d: expected field %q, got %v", i, field, multi.Errors[i])
				}
			}
		})
	}
}

func TestConfig_ExecutorSettings(t *testing.T) {
	cfg := Config{
		Shared: SharedConfig{Workers: 3, QueueSize: 12},
		Batch:  BatchConfig{PoolSize: 2, Timeout: time.Second, NamePrefix: "cfg"},
	}

	shared := cfg.SharedExecutorConfig()
	if shared.Workers != 3 || shared.QueueSize != 12 {
		t.Errorf("unexpected shared config %+v", shared)
	}

	if got := len(cfg.BatchOptions()); got != 3 {
		t.Errorf("expected 3 batch options, got %d", got)
	}
}

func TestManager_Save(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "nested", "config.yaml")

	manager := NewManager(configPath)
	manager.Set("batch.namePrefix", "saved")
	manager.Set("batch.timeout", "5s")

	if err := manager.Save(); err != nil {
		t.Fatalf("failed to save config: %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("config file was not created")
	}

	// Load it back and verify
	config, err := NewManager(configPath).Load()
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}

	if config.Batch.NamePrefix != "saved" {
		t.Errorf("got prefix %q, want %q", config.Batch.NamePrefix, "saved")
	}
	if config.Batch.Timeout != 5*time.Second {
		t.Errorf("got timeout %v, want 5s", config.Batch.Timeout)
	}
}
