// Package catalog_test tests the SQLite voice model catalog.
package catalog_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/book-expert/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicestudio/voice-service/internal/catalog"
	"github.com/voicestudio/voice-service/internal/core"
)

var errMockDelete = errors.New("mock delete error")

// mockObjectStore records artifact releases requested by the catalog.
type mockObjectStore struct {
	mu             sync.Mutex
	deletedKeys    []string
	deleteShouldFail bool
}

func (m *mockObjectStore) Download(_ context.Context, _ string) ([]byte, error) {
	return nil, nil
}

func (m *mockObjectStore) Upload(_ context.Context, _ string, _ []byte) error {
	return nil
}

func (m *mockObjectStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.deleteShouldFail {
		return errMockDelete
	}

	m.deletedKeys = append(m.deletedKeys, key)

	return nil
}

func setupCatalog(t *testing.T) (*catalog.Catalog, *mockObjectStore) {
	t.Helper()

	store := &mockObjectStore{}

	testLogger, err := logger.New(t.TempDir(), "catalog-test.log")
	require.NoError(t, err)

	cat, err := catalog.Open(":memory:", store, testLogger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = cat.Close()
	})

	return cat, store
}

func createCustomModel(t *testing.T, cat *catalog.Catalog, name string) *core.VoiceModel {
	t.Helper()

	created, err := cat.Create(context.Background(), &core.VoiceModel{
		Name:        name,
		Description: "a test voice",
		Type:        core.ModelTypeCustom,
		Metrics: core.QualityMetrics{
			DurationSeconds: 15.2,
			SNRDB:           24.5,
			ClippingRatio:   0.001,
			SilenceRatio:    0.1,
			SampleRate:      22050,
		},
		EmbeddingKey:   "models/test/embedding.bin",
		SourceAudioKey: "models/test/source.wav",
	})
	require.NoError(t, err)

	return created
}

func TestCreateAndGet(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)
	created := createCustomModel(t, cat, "Alex")

	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Alex", created.Name)
	assert.False(t, created.CreatedAt.IsZero())
	assert.False(t, created.UpdatedAt.Before(created.CreatedAt))

	fetched, err := cat.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, core.ModelTypeCustom, fetched.Type)
	assert.InEpsilon(t, 15.2, fetched.Metrics.DurationSeconds, 0.001)
	assert.InEpsilon(t, 24.5, fetched.Metrics.SNRDB, 0.001)
	assert.Equal(t, "models/test/embedding.bin", fetched.EmbeddingKey)
}

func TestGet_UnknownID(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)

	_, err := cat.Get(context.Background(), "does-not-exist")

	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestList_InsertionOrder(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)
	first := createCustomModel(t, cat, "first")
	second := createCustomModel(t, cat, "second")
	third := createCustomModel(t, cat, "third")

	models, err := cat.List(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 3)
	assert.Equal(t, first.ID, models[0].ID)
	assert.Equal(t, second.ID, models[1].ID)
	assert.Equal(t, third.ID, models[2].ID)
}

func TestUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)
	created := createCustomModel(t, cat, "before")

	newName := "after"
	updated, err := cat.Update(context.Background(), created.ID, core.ModelUpdate{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "after", updated.Name)
	assert.Equal(t, "a test voice", updated.Description, "omitted field must be unchanged")
}

func TestUpdate_EmptyNameRejected(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)
	created := createCustomModel(t, cat, "keep-me")

	empty := "   "
	_, err := cat.Update(context.Background(), created.ID, core.ModelUpdate{Name: &empty})

	require.ErrorIs(t, err, core.ErrInvalidArgument)

	fetched, err := cat.Get(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, "keep-me", fetched.Name)
}

func TestUpdate_NoFieldsRefreshesUpdatedAt(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)
	created := createCustomModel(t, cat, "idle")

	time.Sleep(5 * time.Millisecond)

	updated, err := cat.Update(context.Background(), created.ID, core.ModelUpdate{})
	require.NoError(t, err)
	assert.Equal(t, created.Name, updated.Name)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
}

func TestDelete_ReleasesArtifacts(t *testing.T) {
	t.Parallel()

	cat, store := setupCatalog(t)
	created := createCustomModel(t, cat, "doomed")

	err := cat.Delete(context.Background(), created.ID)
	require.NoError(t, err)

	_, err = cat.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)

	assert.ElementsMatch(t,
		[]string{"models/test/source.wav", "models/test/embedding.bin"},
		store.deletedKeys)
}

func TestDelete_ArtifactReleaseFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	cat, store := setupCatalog(t)
	created := createCustomModel(t, cat, "doomed")
	store.deleteShouldFail = true

	err := cat.Delete(context.Background(), created.ID)
	require.NoError(t, err, "an orphaned artifact must not fail the delete")

	_, err = cat.Get(context.Background(), created.ID)
	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestDelete_UnknownID(t *testing.T) {
	t.Parallel()

	cat, _ := setupCatalog(t)

	err := cat.Delete(context.Background(), "does-not-exist")

	require.ErrorIs(t, err, core.ErrNotFound)
}

func TestPresets_SeededAndProtected(t *testing.T) {
	t.Parallel()

	cat, store := setupCatalog(t)
	ctx := context.Background()

	presets := []catalog.Preset{
		{ID: "preset-narrator", Name: "Narrator", Description: "Deep, steady voice", EngineVoice: "narrator"},
		{ID: "preset-guide", Name: "Guide", Description: "Bright, friendly voice", EngineVoice: "guide"},
	}

	require.NoError(t, cat.SeedPresets(ctx, presets))

	// Presets read identically to custom models.
	model, err := cat.Get(ctx, "preset-narrator")
	require.NoError(t, err)
	assert.Equal(t, core.ModelTypePreset, model.Type)
	assert.Equal(t, "Narrator", model.Name)
	assert.Equal(t, "narrator", model.EngineVoice)

	models, err := cat.List(ctx)
	require.NoError(t, err)
	assert.Len(t, models, 2)

	// All mutation is rejected.
	name := "renamed"
	_, err = cat.Update(ctx, "preset-narrator", core.ModelUpdate{Name: &name})
	require.ErrorIs(t, err, core.ErrForbidden)

	err = cat.Delete(ctx, "preset-narrator")
	require.ErrorIs(t, err, core.ErrForbidden)
	assert.Empty(t, store.deletedKeys)

	// Re-seeding is idempotent and preserves the original record.
	seeded, err := cat.Get(ctx, "preset-narrator")
	require.NoError(t, err)
	require.NoError(t, cat.SeedPresets(ctx, presets))

	reseeded, err := cat.Get(ctx, "preset-narrator")
	require.NoError(t, err)
	assert.Equal(t, seeded.CreatedAt, reseeded.CreatedAt)
}
