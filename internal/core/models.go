// Package core defines the domain model, collaborator interfaces, and error
// taxonomy for the voice service.
package core

import "time"

// ModelType distinguishes user-created voice models from built-in presets.
type ModelType string

const (
	// ModelTypeCustom marks a model derived from a user-uploaded recording.
	ModelTypeCustom ModelType = "custom"
	// ModelTypePreset marks a built-in, read-only, non-deletable model.
	ModelTypePreset ModelType = "preset"
)

// QualityMetrics describes the measured quality of a source recording.
type QualityMetrics struct {
	DurationSeconds float64 `json:"duration_seconds"`
	SNRDB           float64 `json:"snr_db"`
	ClippingRatio   float64 `json:"clipping_ratio"`
	SilenceRatio    float64 `json:"silence_ratio"`
	SampleRate      int     `json:"sample_rate"`
}

// VoiceModel is a persisted record representing a speaker's voice.
//
// Custom models carry artifact keys into the object store; preset models
// carry only EngineVoice, the engine-side name of the built-in speaker.
type VoiceModel struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Type            ModelType      `json:"type"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DurationSeconds float64        `json:"duration_seconds,omitempty"`
	Metrics         QualityMetrics `json:"quality_metrics,omitzero"`
	EmbeddingKey    string         `json:"embedding_ref,omitempty"`
	SourceAudioKey  string         `json:"source_audio_ref,omitempty"`
	EngineVoice     string         `json:"engine_voice,omitempty"`
}

// IsPreset reports whether the model is a built-in preset.
func (m *VoiceModel) IsPreset() bool {
	return m.Type == ModelTypePreset
}

// ModelUpdate carries a partial update of user-editable model fields.
// A nil field leaves the stored value unchanged.
type ModelUpdate struct {
	Name        *string
	Description *string
}
