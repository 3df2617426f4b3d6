// Package service implements the voice model lifecycle and synthesis
// orchestration engine: upload validation, model creation, per-model
// exclusivity, and coordination of the speech engine and audio stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/voicestudio/voice-service/internal/audio"
	"github.com/voicestudio/voice-service/internal/core"
	"github.com/voicestudio/voice-service/internal/objectstore"
)

// Options wires the collaborators of a Service.
type Options struct {
	Catalog         core.Catalog
	Engine          core.SpeechEngine
	Artifacts       core.ObjectStore
	Generated       core.GeneratedAudioStore
	Validator       *audio.Validator
	DefaultPresetID string
	Logger          *logger.Logger
}

// Service implements core.VoiceService. It owns the per-model exclusivity
// tokens: synthesis against a model and any mutation of it are mutually
// exclusive, while operations on different models never block each other.
type Service struct {
	catalog         core.Catalog
	engine          core.SpeechEngine
	artifacts       core.ObjectStore
	generated       core.GeneratedAudioStore
	validator       *audio.Validator
	locks           *modelLocks
	defaultPresetID string
	log             *logger.Logger
}

// New creates a Service from its collaborators.
func New(opts Options) *Service {
	return &Service{
		catalog:         opts.Catalog,
		engine:          opts.Engine,
		artifacts:       opts.Artifacts,
		generated:       opts.Generated,
		validator:       opts.Validator,
		locks:           newModelLocks(),
		defaultPresetID: opts.DefaultPresetID,
		log:             opts.Logger,
	}
}

// UploadAndCreate validates an uploaded recording, derives its voice
// embedding, persists both artifacts, and inserts the catalog record. The
// record becomes visible only after its embedding is stored and readable, so
// read and list callers never observe a partially-initialized model.
func (s *Service) UploadAndCreate(ctx context.Context, audioBytes []byte, name, description string) (*core.VoiceModel, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", core.ErrInvalidArgument)
	}

	samples, sampleRate, err := audio.DecodeWAV(audioBytes)
	if err != nil {
		return nil, err
	}

	result := s.validator.Validate(samples, sampleRate)
	if !result.Accepted {
		return nil, &core.ValidationError{
			Reason:  result.Reason,
			Metrics: result.Metrics,
		}
	}

	embedding, err := s.engine.Embed(ctx, samples, sampleRate)
	if err != nil {
		return nil, err
	}

	modelID := uuid.NewString()
	sourceKey, embeddingKey := objectstore.ArtifactKeys(modelID)

	err = s.uploadArtifacts(ctx, sourceKey, audio.EncodeWAV(samples, sampleRate), embeddingKey, embedding)
	if err != nil {
		return nil, err
	}

	model := &core.VoiceModel{
		ID:             modelID,
		Name:           name,
		Description:    strings.TrimSpace(description),
		Type:           core.ModelTypeCustom,
		Metrics:        result.Metrics,
		EmbeddingKey:   embeddingKey,
		SourceAudioKey: sourceKey,
	}

	created, err := s.catalog.Create(ctx, model)
	if err != nil {
		s.releaseArtifacts(ctx, sourceKey, embeddingKey)

		return nil, fmt.Errorf("%w: failed to persist model record: %w", core.ErrStorageFailed, err)
	}

	s.log.Info("Created voice model %s (%q, %.1fs, %.1f dB SNR)",
		created.ID, created.Name, created.Metrics.DurationSeconds, created.Metrics.SNRDB)

	return created, nil
}

func (s *Service) uploadArtifacts(ctx context.Context, sourceKey string, source []byte, embeddingKey string, embedding []byte) error {
	err := s.artifacts.Upload(ctx, sourceKey, source)
	if err != nil {
		return fmt.Errorf("%w: failed to store source recording: %w", core.ErrStorageFailed, err)
	}

	err = s.artifacts.Upload(ctx, embeddingKey, embedding)
	if err != nil {
		s.releaseArtifacts(ctx, sourceKey, "")

		return fmt.Errorf("%w: failed to store voice embedding: %w", core.ErrStorageFailed, err)
	}

	return nil
}

// releaseArtifacts is best-effort cleanup after a failed creation; an
// orphaned blob is recoverable garbage, not a correctness violation.
func (s *Service) releaseArtifacts(ctx context.Context, keys ...string) {
	for _, key := range keys {
		if key == "" {
			continue
		}

		err := s.artifacts.Delete(ctx, key)
		if err != nil {
			s.log.Warn("Failed to release artifact %q: %v", key, err)
		}
	}
}

// ListModels returns all models, presets and custom alike, in insertion order.
func (s *Service) ListModels(ctx context.Context) ([]*core.VoiceModel, error) {
	return s.catalog.List(ctx)
}

// GetModel returns a single model by id.
func (s *Service) GetModel(ctx context.Context, id string) (*core.VoiceModel, error) {
	return s.catalog.Get(ctx, id)
}

// UpdateModel applies a partial rename/description update under the model's
// exclusivity token.
func (s *Service) UpdateModel(ctx context.Context, id string, update core.ModelUpdate) (*core.VoiceModel, error) {
	lock := s.locks.acquire(id)
	lock.Lock()
	defer lock.Unlock()

	return s.catalog.Update(ctx, id, update)
}

// DeleteModel removes a custom model under its exclusivity token, so an
// in-flight synthesis against the same model finishes before its artifacts
// are released. The lock entry is dropped together with the model.
func (s *Service) DeleteModel(ctx context.Context, id string) error {
	lock := s.locks.acquire(id)
	lock.Lock()
	defer lock.Unlock()

	err := s.catalog.Delete(ctx, id)
	if err != nil {
		return err
	}

	s.locks.remove(id)
	s.log.Info("Deleted voice model %s", id)

	return nil
}

// Synthesize resolves the requested model (or the default preset when
// modelID is empty), renders the text through the speech engine, and
// publishes the result to the generated-audio store, returning its token.
func (s *Service) Synthesize(ctx context.Context, modelID, text, language string) (string, error) {
	if modelID == "" {
		modelID = s.defaultPresetID
	}

	model, err := s.catalog.Get(ctx, modelID)
	if err != nil {
		return "", err
	}

	audioData, err := s.renderSpeech(ctx, model, text, language)
	if err != nil {
		return "", err
	}

	token, err := s.generated.Write(audioData)
	if err != nil {
		return "", err
	}

	s.log.Info("Synthesized %d chars with model %s -> %s", len(text), model.ID, token)

	return token, nil
}

// renderSpeech performs the engine call. For custom models the model's
// exclusivity token is held for the critical section only: embedding access
// and the engine call, never for the full request round trip. Presets have
// no mutable artifacts and take no lock.
func (s *Service) renderSpeech(ctx context.Context, model *core.VoiceModel, text, language string) ([]byte, error) {
	request := core.SynthesisRequest{
		Text:      text,
		Language:  language,
		Embedding: nil,
		Voice:     model.EngineVoice,
	}

	if !model.IsPreset() {
		lock := s.locks.acquire(model.ID)
		lock.Lock()
		defer lock.Unlock()

		embedding, err := s.artifacts.Download(ctx, model.EmbeddingKey)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to load voice embedding: %w", core.ErrStorageFailed, err)
		}

		request.Embedding = embedding
		request.Voice = ""
	}

	audioData, err := s.engine.Synthesize(ctx, request)
	if err != nil {
		return nil, mapSynthesisError(ctx, err)
	}

	return audioData, nil
}

// FetchAudio resolves a generated-audio token to its bytes.
func (s *Service) FetchAudio(_ context.Context, token string) ([]byte, error) {
	return s.generated.Read(token)
}

// mapSynthesisError keeps the closed taxonomy: deadline expiry becomes
// Timeout, taxonomy errors pass through unchanged, and any other engine
// fault is reported as a synthesis-stage storage failure rather than leaked
// raw.
func mapSynthesisError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", core.ErrTimeout, err)
	}

	for _, sentinel := range []error{
		core.ErrUnsupportedLanguage,
		core.ErrTextTooLong,
		core.ErrEmbeddingFailed,
		core.ErrInvalidArgument,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	return fmt.Errorf("%w: %w", core.ErrStorageFailed, err)
}
