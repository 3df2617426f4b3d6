package catalog

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/voicestudio/voice-service/internal/core"
)

// Preset describes one built-in voice in the presets file.
type Preset struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Description string `toml:"description"`
	EngineVoice string `toml:"engine_voice"`
}

// PresetsFile is the root structure of the presets TOML file.
type PresetsFile struct {
	Presets []Preset `toml:"preset"`
}

// LoadPresets parses the fixed preset list from a TOML file.
func LoadPresets(path string) ([]Preset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets file %q: %w", path, err)
	}

	var file PresetsFile

	err = toml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("failed to parse presets file %q: %w", path, err)
	}

	return file.Presets, nil
}

// SeedPresets registers the fixed preset list at process start. Seeding is
// idempotent: a preset already present keeps its original record, so restart
// never rewrites created_at.
func (c *Catalog) SeedPresets(ctx context.Context, presets []Preset) error {
	now := time.Now().UTC().Format(time.RFC3339Nano)

	for _, preset := range presets {
		if preset.ID == "" || preset.Name == "" {
			return fmt.Errorf("%w: preset entries need an id and a name", core.ErrInvalidArgument)
		}

		_, err := c.db.ExecContext(ctx,
			`INSERT INTO voice_models (id, name, description, type, created_at, updated_at, engine_voice)
			 VALUES (?, ?, ?, ?, ?, ?, ?)
			 ON CONFLICT(id) DO NOTHING`,
			preset.ID, preset.Name, preset.Description,
			string(core.ModelTypePreset), now, now, preset.EngineVoice,
		)
		if err != nil {
			return fmt.Errorf("failed to seed preset %q: %w", preset.ID, err)
		}
	}

	return nil
}
