// Package config provides the configuration structure for the voice-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host        string   `toml:"host"`
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// NATSConfig holds the settings for NATS messaging and artifact storage.
type NATSConfig struct {
	URL                       string `toml:"url"`
	SynthesisRequestedSubject string `toml:"synthesis_requested_subject"`
	SynthesisCompletedSubject string `toml:"synthesis_completed_subject"`
	ArtifactBucket            string `toml:"artifact_bucket"`
}

// EngineConfig holds the settings for the neural speech engine sidecar.
type EngineConfig struct {
	BaseURL         string   `toml:"base_url"`
	TimeoutSeconds  int      `toml:"timeout_seconds"`
	MaxTextChars    int      `toml:"max_text_chars"`
	Languages       []string `toml:"languages"`
	DefaultPresetID string   `toml:"default_preset_id"`
}

// ValidationConfig holds the audio quality acceptance thresholds.
type ValidationConfig struct {
	MinDurationSeconds float64 `toml:"min_duration_seconds"`
	MaxDurationSeconds float64 `toml:"max_duration_seconds"`
	MaxSilenceRatio    float64 `toml:"max_silence_ratio"`
	MaxClippingRatio   float64 `toml:"max_clipping_ratio"`
	MinSNRDB           float64 `toml:"min_snr_db"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	BaseLogsDir       string `toml:"base_logs_dir"`
	CatalogDBPath     string `toml:"catalog_db_path"`
	GeneratedAudioDir string `toml:"generated_audio_dir"`
	PresetsFile       string `toml:"presets_file"`
}

// Config is the root configuration structure.
type Config struct {
	Server     ServerConfig     `toml:"server"`
	NATS       NATSConfig       `toml:"nats"`
	Engine     EngineConfig     `toml:"engine"`
	Validation ValidationConfig `toml:"validation"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the voice-service.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	return &cfg, nil
}
