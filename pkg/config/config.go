package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// ValidationPolicy decides what happens when a sample header breaks the
// loop/length rules.
type ValidationPolicy string

const (
	// ValidationStrict aborts compilation.
	ValidationStrict ValidationPolicy = "strict"
	// ValidationWarn logs the problem and keeps the sample.
	ValidationWarn ValidationPolicy = "warn"
)

// Settings holds the compiler configuration.
type Settings struct {
	Output     string           `toml:"output"`     // Output .sf2 path
	Software   string           `toml:"software"`   // ISFT value, empty for the built-in one
	Validation ValidationPolicy `toml:"validation"` // strict or warn
	LogLevel   string           `toml:"log_level"`  // zerolog level name

	AuditionQueue int `toml:"audition_queue"` // Pending samples held by the audition queue
}

// DefaultSettings returns the settings used when no file overrides them.
func DefaultSettings() Settings {
	return Settings{
		Output:     "out.sf2",
		Validation: ValidationStrict,
		LogLevel:   "info",

		AuditionQueue: 16,
	}
}

// Validate checks if the settings are valid.
func (s *Settings) Validate() error {
	switch s.Validation {
	case ValidationStrict, ValidationWarn:
	case "":
		s.Validation = ValidationStrict // Default to strict if not specified
	default:
		return fmt.Errorf("validation must be %q or %q, got %q", ValidationStrict, ValidationWarn, s.Validation)
	}
	if s.Output == "" {
		return fmt.Errorf("output cannot be empty")
	}
	if s.AuditionQueue < 0 {
		return fmt.Errorf("audition_queue cannot be negative")
	}
	if s.AuditionQueue == 0 {
		s.AuditionQueue = 1 // Default to 1 if not specified
	}
	if s.LogLevel == "" {
		s.LogLevel = zerolog.InfoLevel.String()
	}
	level, err := zerolog.ParseLevel(s.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}
	if level == zerolog.NoLevel {
		return fmt.Errorf("invalid log_level: %q disables all logging", s.LogLevel)
	}
	return nil
}

// LoadSettings merges the given settings files over the defaults. Later files
// override earlier ones; missing files are skipped.
func LoadSettings(files []string, log zerolog.Logger) (Settings, error) {
	cfg := DefaultSettings()

	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if !os.IsNotExist(err) {
				log.Warn().Err(err).Str("path", file).Msg("Error checking settings file")
			}
			continue
		}
		md, err := toml.DecodeFile(file, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("failed to load settings file '%s': %w", file, err)
		}
		warnUndecoded(log, file, md)
		log.Debug().Str("path", file).Msg("Loaded settings")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid settings: %w", err)
	}
	return cfg, nil
}
