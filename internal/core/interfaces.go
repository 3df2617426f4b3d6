package core

import "context"

// ObjectStore is a key-addressed blob store holding model artifacts: the
// stored source recording and the derived voice embedding.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

// SynthesisRequest carries one synthesis call into the speech engine.
// Exactly one of Embedding or Voice identifies the speaker: Embedding is a
// derived voice embedding for custom models, Voice is the engine-side name
// of a built-in preset speaker.
type SynthesisRequest struct {
	Text      string
	Language  string
	Embedding []byte
	Voice     string
}

// SpeechEngine wraps the opaque neural capability. Both calls are blocking
// and potentially slow; callers bound them with a context deadline.
type SpeechEngine interface {
	// Embed derives a reusable voice embedding from decoded PCM samples.
	Embed(ctx context.Context, samples []float64, sampleRate int) ([]byte, error)
	// Synthesize renders text as WAV audio in the requested voice.
	Synthesize(ctx context.Context, req SynthesisRequest) ([]byte, error)
}

// Catalog is the durable mapping from model id to VoiceModel record.
// List returns records in insertion order. Mutation of preset models fails
// with ErrForbidden.
type Catalog interface {
	Create(ctx context.Context, model *VoiceModel) (*VoiceModel, error)
	Get(ctx context.Context, id string) (*VoiceModel, error)
	List(ctx context.Context) ([]*VoiceModel, error)
	Update(ctx context.Context, id string, update ModelUpdate) (*VoiceModel, error)
	Delete(ctx context.Context, id string) error
}

// GeneratedAudioStore manages the lifecycle of synthesized output blobs.
// Write never overwrites an existing token, even under concurrent calls.
type GeneratedAudioStore interface {
	Write(data []byte) (string, error)
	Read(token string) ([]byte, error)
}

// VoiceService is the contract the core exposes to its HTTP and messaging
// collaborators.
type VoiceService interface {
	UploadAndCreate(ctx context.Context, audio []byte, name, description string) (*VoiceModel, error)
	ListModels(ctx context.Context) ([]*VoiceModel, error)
	GetModel(ctx context.Context, id string) (*VoiceModel, error)
	UpdateModel(ctx context.Context, id string, update ModelUpdate) (*VoiceModel, error)
	DeleteModel(ctx context.Context, id string) error
	Synthesize(ctx context.Context, modelID, text, language string) (string, error)
	FetchAudio(ctx context.Context, token string) ([]byte, error)
}
