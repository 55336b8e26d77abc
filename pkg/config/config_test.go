package config

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadSettingsDefaults(t *testing.T) {
	cfg, err := LoadSettings([]string{filepath.Join(t.TempDir(), "missing.toml")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if cfg != DefaultSettings() {
		t.Errorf("got %+v, want defaults", cfg)
	}
}

func TestLoadSettingsLaterFilesOverride(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"system.toml": "output = \"system.sf2\"\nvalidation = \"warn\"\n",
		"local.toml":  "output = \"local.sf2\"\n",
	})

	cfg, err := LoadSettings([]string{
		filepath.Join(dir, "system.toml"),
		filepath.Join(dir, "local.toml"),
	}, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	if cfg.Output != "local.sf2" {
		t.Errorf("output = %q, want local.sf2", cfg.Output)
	}
	if cfg.Validation != ValidationWarn {
		t.Errorf("validation = %q, want warn", cfg.Validation)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Settings)
		wantErr bool
	}{
		{"defaults", func(*Settings) {}, false},
		{"unknown policy", func(s *Settings) { s.Validation = "lenient" }, true},
		{"empty output", func(s *Settings) { s.Output = "" }, true},
		{"bad log level", func(s *Settings) { s.LogLevel = "loud" }, true},
		{"log level without a threshold", func(s *Settings) { s.LogLevel = "6" }, true},
		{"empty log level defaults to info", func(s *Settings) { s.LogLevel = "" }, false},
		{"negative queue", func(s *Settings) { s.AuditionQueue = -1 }, true},
		{"empty policy defaults to strict", func(s *Settings) { s.Validation = "" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			err := s.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && s.Validation != ValidationStrict && s.Validation != ValidationWarn {
				t.Errorf("validation left as %q", s.Validation)
			}
		})
	}
}

func TestLoadSettingsEmptyLogLevel(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"sfc.toml": "log_level = \"\"\n"})

	cfg, err := LoadSettings([]string{filepath.Join(dir, "sfc.toml")}, zerolog.Nop())
	if err != nil {
		t.Fatalf("LoadSettings failed: %v", err)
	}
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level != zerolog.InfoLevel {
		t.Errorf("log_level = %q (%v), want info", cfg.LogLevel, err)
	}
}

func TestLoadSettingsRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"sfc.toml": "validation = \"sometimes\"\n"})

	if _, err := LoadSettings([]string{filepath.Join(dir, "sfc.toml")}, zerolog.Nop()); err == nil {
		t.Fatal("expected error for unknown validation policy")
	}
}
