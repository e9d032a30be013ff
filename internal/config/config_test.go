package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFromString_Empty(t *testing.T) {
	result, err := LoadFromString("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := result.Config
	if !cfg.Alerts.AutoDismissEnabled {
		t.Error("expected auto dismiss enabled by default")
	}
	if cfg.Alerts.AutoDismissDelaySeconds != 30 {
		t.Errorf("expected default delay 30, got %d", cfg.Alerts.AutoDismissDelaySeconds)
	}
	if cfg.Alerts.SoundName != "Glass" {
		t.Errorf("expected default sound Glass, got %q", cfg.Alerts.SoundName)
	}
	if cfg.Alerts.RingBaseThickness != 4 || cfg.Alerts.RingThicknessIncrement != 2 {
		t.Errorf("unexpected ring defaults: base=%d increment=%d",
			cfg.Alerts.RingBaseThickness, cfg.Alerts.RingThicknessIncrement)
	}
	if cfg.Scanner.IntervalSeconds != 10 {
		t.Errorf("expected default scan interval 10, got %d", cfg.Scanner.IntervalSeconds)
	}
}

func TestLoadFromString_PartialSectionKeepsDefaults(t *testing.T) {
	result, err := LoadFromString(`
[alerts]
sound_name = "Ping"
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg := result.Config
	if cfg.Alerts.SoundName != "Ping" {
		t.Errorf("expected overridden sound Ping, got %q", cfg.Alerts.SoundName)
	}
	// Keys not present in the file keep their defaults.
	if cfg.Alerts.AutoDismissDelaySeconds != 30 {
		t.Errorf("expected default delay to survive partial section, got %d", cfg.Alerts.AutoDismissDelaySeconds)
	}
	if !cfg.Alerts.AutoDismissEnabled {
		t.Error("expected default auto_dismiss_enabled to survive partial section")
	}
}

func TestLoadFromString_FalseOverridesDefault(t *testing.T) {
	result, err := LoadFromString(`
[alerts]
auto_dismiss_enabled = false
sound_enabled = false
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Config.Alerts.AutoDismissEnabled {
		t.Error("expected auto_dismiss_enabled=false to override the default")
	}
	if result.Config.Alerts.SoundEnabled {
		t.Error("expected sound_enabled=false to override the default")
	}
}

func TestLoadFromString_UnknownKeyWarns(t *testing.T) {
	result, err := LoadFromString(`
[alertz]
sound_name = "Ping"
`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Warnings) != 1 || !strings.Contains(result.Warnings[0], "alertz") {
		t.Errorf("expected unknown-key warning for alertz, got %v", result.Warnings)
	}
}

func TestLoadFromString_ValidationErrors(t *testing.T) {
	tests := []struct {
		name string
		toml string
		want string
	}{
		{
			name: "zero dismiss delay",
			toml: "[alerts]\nauto_dismiss_delay_seconds = 0\n",
			want: "auto_dismiss_delay_seconds",
		},
		{
			name: "zero ring base",
			toml: "[alerts]\nring_base_thickness = 0\n",
			want: "ring_base_thickness",
		},
		{
			name: "negative ring increment",
			toml: "[alerts]\nring_thickness_increment = -1\n",
			want: "ring_thickness_increment",
		},
		{
			name: "zero scan interval",
			toml: "[scanner]\ninterval_seconds = 0\n",
			want: "interval_seconds",
		},
		{
			name: "empty trigger path",
			toml: "[trigger]\nfile_path = \"\"\n",
			want: "file_path",
		},
		{
			name: "bad log level",
			toml: "[logging]\nlevel = \"loud\"\n",
			want: "logging level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromString(tt.toml)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error mentioning %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadFromString_MalformedTOML(t *testing.T) {
	_, err := LoadFromString("[alerts\nsound_name = ")
	if err == nil {
		t.Fatal("expected parse error for malformed TOML")
	}
}

func TestLoadFrom_MissingFileYieldsDefaults(t *testing.T) {
	result, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Display.RefreshRateMS != 1000 {
		t.Errorf("expected defaults for missing file, got refresh=%d", result.Config.Display.RefreshRateMS)
	}
}

func TestLoadFrom_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[trigger]
file_path = "/tmp/buddy-trigger"

[storage]
retention_days = 7
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Config.Trigger.FilePath != "/tmp/buddy-trigger" {
		t.Errorf("expected trigger path override, got %q", result.Config.Trigger.FilePath)
	}
	if result.Config.Storage.RetentionDays != 7 {
		t.Errorf("expected retention override 7, got %d", result.Config.Storage.RetentionDays)
	}
}

func TestProvider_GetAndManualReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[alerts]\nsound_name = \"Ping\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	result, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	p := NewProvider(result.Config, path, nil)
	defer p.Close()

	if got := p.Get().Alerts.SoundName; got != "Ping" {
		t.Errorf("expected Ping, got %q", got)
	}

	if err := os.WriteFile(path, []byte("[alerts]\nsound_name = \"Basso\"\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p.reload()

	if got := p.Get().Alerts.SoundName; got != "Basso" {
		t.Errorf("expected Basso after reload, got %q", got)
	}
}

func TestProvider_ReloadKeepsOldConfigOnError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	p := NewProvider(DefaultConfig(), path, nil)
	defer p.Close()

	if err := os.WriteFile(path, []byte("[alerts]\nring_base_thickness = 0\n"), 0644); err != nil {
		t.Fatal(err)
	}
	p.reload()

	if got := p.Get().Alerts.RingBaseThickness; got != 4 {
		t.Errorf("invalid reload must keep previous config, got base=%d", got)
	}
}
