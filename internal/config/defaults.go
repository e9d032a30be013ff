package config

import (
	"os"
	"path/filepath"
)

// DefaultConfig returns the built-in defaults, used when no config file
// exists and as the base every file merge starts from.
func DefaultConfig() Config {
	return Config{
		Trigger: TriggerConfig{
			FilePath:             filepath.Join(configDir(), "trigger"),
			LivenessSweepSeconds: 15,
		},
		Alerts: AlertsConfig{
			AutoDismissEnabled:      true,
			AutoDismissDelaySeconds: 30,
			SoundEnabled:            true,
			SoundName:               "Glass",
			RingBaseThickness:       4,
			RingThicknessIncrement:  2,
			Notifications: NotificationConfig{
				SystemNotify: true,
			},
		},
		Scanner: ScannerConfig{
			IntervalSeconds: 10,
			Simulators:      true,
		},
		Registry: RegistryConfig{
			Path: filepath.Join(configDir(), "resources.json"),
		},
		Display: DisplayConfig{
			RefreshRateMS:  1000,
			FeedBufferSize: 200,
		},
		Storage: StorageConfig{
			DBPath:        filepath.Join(configDir(), "stats.db"),
			RetentionDays: 90,
		},
		Logging: LoggingConfig{
			Dir:   "",
			Level: "info",
		},
	}
}

// configDir returns ~/.config/claude-buddy, falling back to a relative
// directory when the home directory cannot be determined.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".claude-buddy"
	}
	return filepath.Join(home, ".config", "claude-buddy")
}
