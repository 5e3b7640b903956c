package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Library LibraryConfig `mapstructure:"library"`
	Thumbs  ThumbsConfig  `mapstructure:"thumbs"`
	Engine  EngineConfig  `mapstructure:"engine"`
	Player  PlayerConfig  `mapstructure:"player"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// LibraryConfig holds the video library location
type LibraryConfig struct {
	Root            string `mapstructure:"root"`             // Library root directory
	WatchDebounceMS int    `mapstructure:"watch_debounce_ms"` // Quiet period before a rescan
}

// ThumbsConfig holds thumbnail extraction configuration
type ThumbsConfig struct {
	CacheDir   string  `mapstructure:"cache_dir"`
	MaxCacheMB int64   `mapstructure:"max_cache_mb"`
	Width      int     `mapstructure:"width"`
	PerSecond  float64 `mapstructure:"per_second"` // Extraction rate limit
}

// EngineConfig holds grid engine tunables
type EngineConfig struct {
	MaxActive        int `mapstructure:"max_active"`         // Concurrent thumbnail cap
	MaxAttempts      int `mapstructure:"max_attempts"`       // Automatic retries per item
	BaseRetryMS      int `mapstructure:"base_retry_ms"`      // Backoff base, doubled per attempt
	StuckTimeoutSec  int `mapstructure:"stuck_timeout_sec"`  // In-flight load considered lost after
	AuditIntervalSec int `mapstructure:"audit_interval_sec"` // Recovery pass period
}

// PlayerConfig holds media player configuration
type PlayerConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// UIConfig holds grid layout configuration
type UIConfig struct {
	Columns         int `mapstructure:"columns"`
	AdmissionBuffer int `mapstructure:"admission_buffer"` // Extra rows preloaded past the viewport
	RetentionBuffer int `mapstructure:"retention_buffer"` // Extra rows kept rendered past the viewport
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Library: LibraryConfig{
			Root:            defaultLibraryPath(),
			WatchDebounceMS: 2000,
		},
		Thumbs: ThumbsConfig{
			CacheDir:   defaultCachePath(),
			MaxCacheMB: 512,
			Width:      1280,
			PerSecond:  4,
		},
		Engine: EngineConfig{
			MaxActive:        12,
			MaxAttempts:      3,
			BaseRetryMS:      1000,
			StuckTimeoutSec:  15,
			AuditIntervalSec: 2,
		},
		Player: PlayerConfig{
			Command: "mpv",
			Args:    []string{},
		},
		UI: UIConfig{
			Columns:         4,
			AdmissionBuffer: 2,
			RetentionBuffer: 10,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

func defaultLibraryPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Videos")
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vidwall", "vidwall.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vidwall", "vidwall.log")
	}
}

// defaultConfigPath returns the default config file path for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "vidwall")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "vidwall")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vidwall", "cache")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vidwall", "cache")
	}
}

// DataPath returns the directory holding the metadata database.
func DataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "vidwall")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "vidwall")
	}
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(defaultConfigPath())
	viper.AddConfigPath(".")

	// Environment variable overrides
	viper.SetEnvPrefix("VIDWALL")
	viper.AutomaticEnv()

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	configPath := defaultConfigPath()

	if err := os.MkdirAll(configPath, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Set fields individually to ensure correct key names (snake_case)
	viper.Set("library.root", cfg.Library.Root)
	viper.Set("library.watch_debounce_ms", cfg.Library.WatchDebounceMS)

	viper.Set("thumbs.cache_dir", cfg.Thumbs.CacheDir)
	viper.Set("thumbs.max_cache_mb", cfg.Thumbs.MaxCacheMB)
	viper.Set("thumbs.width", cfg.Thumbs.Width)
	viper.Set("thumbs.per_second", cfg.Thumbs.PerSecond)

	viper.Set("engine.max_active", cfg.Engine.MaxActive)
	viper.Set("engine.max_attempts", cfg.Engine.MaxAttempts)
	viper.Set("engine.base_retry_ms", cfg.Engine.BaseRetryMS)
	viper.Set("engine.stuck_timeout_sec", cfg.Engine.StuckTimeoutSec)
	viper.Set("engine.audit_interval_sec", cfg.Engine.AuditIntervalSec)

	viper.Set("player.command", cfg.Player.Command)
	viper.Set("player.args", cfg.Player.Args)

	viper.Set("ui.columns", cfg.UI.Columns)
	viper.Set("ui.admission_buffer", cfg.UI.AdmissionBuffer)
	viper.Set("ui.retention_buffer", cfg.UI.RetentionBuffer)

	viper.Set("logging.file", cfg.Logging.File)
	viper.Set("logging.level", cfg.Logging.Level)

	configFile := filepath.Join(configPath, "config.yaml")
	if err := viper.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ClearCache removes all cached thumbnails
func ClearCache(cfg *Config) error {
	if err := os.RemoveAll(cfg.Thumbs.CacheDir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
