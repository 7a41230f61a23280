package vfskit

import (
	"time"

	"github.com/gobeaver/beaver-kit/config"
)

// Config carries process-wide settings, loaded from the environment.
type Config struct {
	// Driver is the scheme of the default backend (memory, native).
	Driver string `env:"VFSKIT_DRIVER,default:memory"`

	// RegistryPath is the location of the persisted root registry store.
	RegistryPath string `env:"VFSKIT_REGISTRY_PATH,default:./vfskit.db"`

	// DebounceMillis is the notification batcher's quiet window in
	// milliseconds.
	DebounceMillis int `env:"VFSKIT_DEBOUNCE_MS,default:5"`

	// NativeAutoGrant grants native permission requests without prompting.
	NativeAutoGrant bool `env:"VFSKIT_NATIVE_AUTO_GRANT,default:false"`

	// MemoryMaxSize caps total bytes stored by the memory backend
	// (0 = unlimited).
	MemoryMaxSize int64 `env:"VFSKIT_MEMORY_MAX_SIZE,default:0"`

	// SearchConcurrency bounds the search engine's directory fan-out.
	SearchConcurrency int `env:"VFSKIT_SEARCH_CONCURRENCY,default:8"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"VFSKIT_LOG_LEVEL,default:info"`
}

// GetConfig returns config loaded from environment
func GetConfig() (*Config, error) {
	cfg := &Config{}
	if err := config.Load(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DebounceWindow returns the configured debounce window as a duration.
func (c *Config) DebounceWindow() time.Duration {
	if c.DebounceMillis <= 0 {
		return DefaultDebounceWindow
	}
	return time.Duration(c.DebounceMillis) * time.Millisecond
}
