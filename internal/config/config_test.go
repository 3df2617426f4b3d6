// Package config_test tests the configuration loading for the voice-service.
package config_test

import (
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicestudio/voice-service/internal/config"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[server]
host = "0.0.0.0"
port = 8000
cors_origins = ["http://localhost:5173", "http://localhost:3000"]

[nats]
url = "nats://127.0.0.1:4222"
synthesis_requested_subject = "voice.synthesis.requested"
synthesis_completed_subject = "voice.synthesis.completed"
artifact_bucket = "VOICE_ARTIFACTS"

[engine]
base_url = "http://127.0.0.1:9100"
timeout_seconds = 300
max_text_chars = 1000
languages = ["en", "es", "de"]
default_preset_id = "preset-narrator"

[validation]
min_duration_seconds = 10.0
max_duration_seconds = 60.0
max_silence_ratio = 0.85
max_clipping_ratio = 0.01
min_snr_db = 10.0

[paths]
base_logs_dir = "/var/log/voice-service"
catalog_db_path = "/var/lib/voice-service/catalog.db"
generated_audio_dir = "/var/lib/voice-service/outputs"
presets_file = "/etc/voice-service/presets.toml"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8000", cfg.Server.Addr())
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "voice.synthesis.requested", cfg.NATS.SynthesisRequestedSubject)
	assert.Equal(t, "voice.synthesis.completed", cfg.NATS.SynthesisCompletedSubject)
	assert.Equal(t, "VOICE_ARTIFACTS", cfg.NATS.ArtifactBucket)
	assert.Equal(t, "http://127.0.0.1:9100", cfg.Engine.BaseURL)
	assert.Equal(t, 300, cfg.Engine.TimeoutSeconds)
	assert.Equal(t, 1000, cfg.Engine.MaxTextChars)
	assert.Equal(t, []string{"en", "es", "de"}, cfg.Engine.Languages)
	assert.Equal(t, "preset-narrator", cfg.Engine.DefaultPresetID)
	assert.InEpsilon(t, 10.0, cfg.Validation.MinDurationSeconds, 0.001)
	assert.InEpsilon(t, 60.0, cfg.Validation.MaxDurationSeconds, 0.001)
	assert.InEpsilon(t, 0.85, cfg.Validation.MaxSilenceRatio, 0.001)
	assert.Equal(t, "/var/lib/voice-service/catalog.db", cfg.Paths.CatalogDBPath)
	assert.Equal(t, "/etc/voice-service/presets.toml", cfg.Paths.PresetsFile)
}
