package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Trigger  TriggerConfig
	Alerts   AlertsConfig
	Scanner  ScannerConfig
	Registry RegistryConfig
	Display  DisplayConfig
	Storage  StorageConfig
	Logging  LoggingConfig
}

type TriggerConfig struct {
	FilePath             string `toml:"file_path"`
	LivenessSweepSeconds int    `toml:"liveness_sweep_seconds"`
}

type AlertsConfig struct {
	AutoDismissEnabled      bool               `toml:"auto_dismiss_enabled"`
	AutoDismissDelaySeconds int                `toml:"auto_dismiss_delay_seconds"`
	SoundEnabled            bool               `toml:"sound_enabled"`
	SoundName               string             `toml:"sound_name"`
	RingBaseThickness       int                `toml:"ring_base_thickness"`
	RingThicknessIncrement  int                `toml:"ring_thickness_increment"`
	Notifications           NotificationConfig `toml:"notifications"`
}

type NotificationConfig struct {
	SystemNotify bool `toml:"system_notify"`
}

type ScannerConfig struct {
	IntervalSeconds int  `toml:"interval_seconds"`
	Simulators      bool `toml:"simulators"`
}

type RegistryConfig struct {
	Path string `toml:"path"`
}

type DisplayConfig struct {
	RefreshRateMS  int `toml:"refresh_rate_ms"`
	FeedBufferSize int `toml:"feed_buffer_size"`
}

type StorageConfig struct {
	DBPath        string `toml:"db_path"`
	RetentionDays int    `toml:"retention_days"`
}

type LoggingConfig struct {
	Dir   string `toml:"dir"`
	Level string `toml:"level"`
}

type LoadResult struct {
	Config   Config
	Warnings []string
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "claude-buddy", "config.toml")
}

func Load() (*LoadResult, error) {
	return LoadFrom(DefaultPath())
}

// LoadFrom reads the config file at path, merging only the keys the user
// actually set over the defaults. A missing file yields pure defaults.
func LoadFrom(path string) (*LoadResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			return &LoadResult{Config: cfg}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromString(string(data))
}

// LoadFromString parses config from raw TOML. Unknown top-level keys
// produce warnings, not errors, so a typo never silently drops a section.
func LoadFromString(data string) (*LoadResult, error) {
	cfg := DefaultConfig()
	result := &LoadResult{Config: cfg}

	if data == "" {
		return result, nil
	}

	var raw map[string]any
	if _, err := toml.Decode(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	knownTopLevel := map[string]bool{
		"trigger":  true,
		"alerts":   true,
		"scanner":  true,
		"registry": true,
		"display":  true,
		"storage":  true,
		"logging":  true,
	}
	for key := range raw {
		if !knownTopLevel[key] {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unknown config key: %q", key))
		}
	}

	var tf tomlFile
	if _, err := toml.Decode(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	mergeFromRaw(&result.Config, &tf, raw)

	if err := validate(&result.Config); err != nil {
		return nil, err
	}

	return result, nil
}

type tomlFile struct {
	Trigger  *TriggerConfig  `toml:"trigger"`
	Alerts   *AlertsConfig   `toml:"alerts"`
	Scanner  *ScannerConfig  `toml:"scanner"`
	Registry *RegistryConfig `toml:"registry"`
	Display  *DisplayConfig  `toml:"display"`
	Storage  *StorageConfig  `toml:"storage"`
	Logging  *LoggingConfig  `toml:"logging"`
}

// mergeFromRaw overrides defaults only with keys present in the file, so
// a partial config section keeps the defaults for its other keys.
func mergeFromRaw(cfg *Config, tf *tomlFile, raw map[string]any) {
	if tf.Trigger != nil {
		if section, ok := rawSection(raw, "trigger"); ok {
			if _, exists := section["file_path"]; exists {
				cfg.Trigger.FilePath = tf.Trigger.FilePath
			}
			if _, exists := section["liveness_sweep_seconds"]; exists {
				cfg.Trigger.LivenessSweepSeconds = tf.Trigger.LivenessSweepSeconds
			}
		}
	}
	if tf.Alerts != nil {
		if section, ok := rawSection(raw, "alerts"); ok {
			if _, exists := section["auto_dismiss_enabled"]; exists {
				cfg.Alerts.AutoDismissEnabled = tf.Alerts.AutoDismissEnabled
			}
			if _, exists := section["auto_dismiss_delay_seconds"]; exists {
				cfg.Alerts.AutoDismissDelaySeconds = tf.Alerts.AutoDismissDelaySeconds
			}
			if _, exists := section["sound_enabled"]; exists {
				cfg.Alerts.SoundEnabled = tf.Alerts.SoundEnabled
			}
			if _, exists := section["sound_name"]; exists {
				cfg.Alerts.SoundName = tf.Alerts.SoundName
			}
			if _, exists := section["ring_base_thickness"]; exists {
				cfg.Alerts.RingBaseThickness = tf.Alerts.RingBaseThickness
			}
			if _, exists := section["ring_thickness_increment"]; exists {
				cfg.Alerts.RingThicknessIncrement = tf.Alerts.RingThicknessIncrement
			}
			if _, exists := section["notifications"]; exists {
				cfg.Alerts.Notifications = tf.Alerts.Notifications
			}
		}
	}
	if tf.Scanner != nil {
		if section, ok := rawSection(raw, "scanner"); ok {
			if _, exists := section["interval_seconds"]; exists {
				cfg.Scanner.IntervalSeconds = tf.Scanner.IntervalSeconds
			}
			if _, exists := section["simulators"]; exists {
				cfg.Scanner.Simulators = tf.Scanner.Simulators
			}
		}
	}
	if tf.Registry != nil {
		if section, ok := rawSection(raw, "registry"); ok {
			if _, exists := section["path"]; exists {
				cfg.Registry.Path = tf.Registry.Path
			}
		}
	}
	if tf.Display != nil {
		if section, ok := rawSection(raw, "display"); ok {
			if _, exists := section["refresh_rate_ms"]; exists {
				cfg.Display.RefreshRateMS = tf.Display.RefreshRateMS
			}
			if _, exists := section["feed_buffer_size"]; exists {
				cfg.Display.FeedBufferSize = tf.Display.FeedBufferSize
			}
		}
	}
	if tf.Storage != nil {
		if section, ok := rawSection(raw, "storage"); ok {
			if _, exists := section["db_path"]; exists {
				cfg.Storage.DBPath = tf.Storage.DBPath
			}
			if _, exists := section["retention_days"]; exists {
				cfg.Storage.RetentionDays = tf.Storage.RetentionDays
			}
		}
	}
	if tf.Logging != nil {
		if section, ok := rawSection(raw, "logging"); ok {
			if _, exists := section["dir"]; exists {
				cfg.Logging.Dir = tf.Logging.Dir
			}
			if _, exists := section["level"]; exists {
				cfg.Logging.Level = tf.Logging.Level
			}
		}
	}
}

func rawSection(raw map[string]any, key string) (map[string]any, bool) {
	v, ok := raw[key]
	if !ok {
		return nil, false
	}
	m, ok := v.(map[string]any)
	return m, ok
}

func validate(cfg *Config) error {
	var errs []string

	if cfg.Trigger.FilePath == "" {
		errs = append(errs, "trigger file_path must not be empty")
	}
	if cfg.Trigger.LivenessSweepSeconds < 1 {
		errs = append(errs, fmt.Sprintf("trigger liveness_sweep_seconds must be positive, got %d", cfg.Trigger.LivenessSweepSeconds))
	}

	if cfg.Alerts.AutoDismissDelaySeconds < 1 {
		errs = append(errs, fmt.Sprintf("auto_dismiss_delay_seconds must be positive, got %d", cfg.Alerts.AutoDismissDelaySeconds))
	}
	if cfg.Alerts.SoundName == "" {
		errs = append(errs, "sound_name must not be empty")
	}
	if cfg.Alerts.RingBaseThickness < 1 {
		errs = append(errs, fmt.Sprintf("ring_base_thickness must be positive, got %d", cfg.Alerts.RingBaseThickness))
	}
	if cfg.Alerts.RingThicknessIncrement < 0 {
		errs = append(errs, fmt.Sprintf("ring_thickness_increment must not be negative, got %d", cfg.Alerts.RingThicknessIncrement))
	}

	if cfg.Scanner.IntervalSeconds < 1 {
		errs = append(errs, fmt.Sprintf("scanner interval_seconds must be positive, got %d", cfg.Scanner.IntervalSeconds))
	}

	if cfg.Registry.Path == "" {
		errs = append(errs, "registry path must not be empty")
	}

	if cfg.Display.RefreshRateMS < 1 {
		errs = append(errs, fmt.Sprintf("refresh_rate_ms must be positive, got %d", cfg.Display.RefreshRateMS))
	}
	if cfg.Display.FeedBufferSize < 1 {
		errs = append(errs, fmt.Sprintf("feed_buffer_size must be positive, got %d", cfg.Display.FeedBufferSize))
	}

	if cfg.Storage.RetentionDays <= 0 {
		errs = append(errs, fmt.Sprintf("storage retention_days must be positive, got %d", cfg.Storage.RetentionDays))
	}

	switch cfg.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging level must be debug/info/warn/error, got %q", cfg.Logging.Level))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation error: %s", strings.Join(errs, "; "))
	}
	return nil
}
