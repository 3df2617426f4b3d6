// Package catalog provides the durable SQLite-backed voice model catalog.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/voicestudio/voice-service/internal/core"
)

// schema is applied at open. Listing order follows rowid, which preserves
// insertion order for the lifetime of the store.
const schema = `
CREATE TABLE IF NOT EXISTS voice_models (
	id               TEXT PRIMARY KEY,
	name             TEXT NOT NULL,
	description      TEXT NOT NULL DEFAULT '',
	type             TEXT NOT NULL CHECK (type IN ('custom', 'preset')),
	created_at       TEXT NOT NULL,
	updated_at       TEXT NOT NULL,
	duration_seconds REAL NOT NULL DEFAULT 0,
	snr_db           REAL NOT NULL DEFAULT 0,
	clipping_ratio   REAL NOT NULL DEFAULT 0,
	silence_ratio    REAL NOT NULL DEFAULT 0,
	sample_rate      INTEGER NOT NULL DEFAULT 0,
	embedding_key    TEXT NOT NULL DEFAULT '',
	source_audio_key TEXT NOT NULL DEFAULT '',
	engine_voice     TEXT NOT NULL DEFAULT ''
);
`

const modelColumns = `id, name, description, type, created_at, updated_at,
	duration_seconds, snr_db, clipping_ratio, silence_ratio, sample_rate,
	embedding_key, source_audio_key, engine_voice`

// Catalog implements core.Catalog on a SQLite database. Deleting a custom
// model also requests release of its backing artifacts from the object store
// collaborator; release failures are logged, never fatal.
type Catalog struct {
	db    *sql.DB
	store core.ObjectStore
	log   *logger.Logger
}

// Open opens (or creates) the catalog database at path and applies the
// schema. The path can be ":memory:" for an in-memory catalog.
func Open(path string, store core.ObjectStore, log *logger.Logger) (*Catalog, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	err = db.Ping()
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to ping catalog database: %w", err)
	}

	// Metadata writes are serialized by a single connection; SQLite is the
	// single-writer backend of the catalog.
	db.SetMaxOpenConns(1)

	_, err = db.Exec(schema)
	if err != nil {
		_ = db.Close()

		return nil, fmt.Errorf("failed to apply catalog schema: %w", err)
	}

	return &Catalog{
		db:    db,
		store: store,
		log:   log,
	}, nil
}

// Close closes the underlying database.
func (c *Catalog) Close() error {
	err := c.db.Close()
	if err != nil {
		return fmt.Errorf("failed to close catalog database: %w", err)
	}

	return nil
}

// Create assigns timestamps (and an id, unless the caller pre-assigned one
// to key the model's artifacts) to the supplied record and inserts it. The
// caller provides everything else already validated.
func (c *Catalog) Create(ctx context.Context, model *core.VoiceModel) (*core.VoiceModel, error) {
	now := time.Now().UTC()

	created := *model
	if created.ID == "" {
		created.ID = uuid.NewString()
	}

	created.CreatedAt = now
	created.UpdatedAt = now

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO voice_models (`+modelColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		created.ID, created.Name, created.Description, string(created.Type),
		created.CreatedAt.Format(time.RFC3339Nano),
		created.UpdatedAt.Format(time.RFC3339Nano),
		created.Metrics.DurationSeconds, created.Metrics.SNRDB,
		created.Metrics.ClippingRatio, created.Metrics.SilenceRatio,
		created.Metrics.SampleRate,
		created.EmbeddingKey, created.SourceAudioKey, created.EngineVoice,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert voice model: %w", err)
	}

	created.DurationSeconds = created.Metrics.DurationSeconds

	return &created, nil
}

// Get returns the model with the given id, or core.ErrNotFound.
func (c *Catalog) Get(ctx context.Context, id string) (*core.VoiceModel, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT `+modelColumns+` FROM voice_models WHERE id = ?`, id)

	model, err := scanModel(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: model %q", core.ErrNotFound, id)
		}

		return nil, fmt.Errorf("failed to read voice model %q: %w", id, err)
	}

	return model, nil
}

// List returns all models in insertion order.
func (c *Catalog) List(ctx context.Context) ([]*core.VoiceModel, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT `+modelColumns+` FROM voice_models ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list voice models: %w", err)
	}

	defer func() {
		closeErr := rows.Close()
		if closeErr != nil {
			c.log.Warn("Failed to close model rows: %v", closeErr)
		}
	}()

	var models []*core.VoiceModel

	for rows.Next() {
		model, scanErr := scanModel(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan voice model: %w", scanErr)
		}

		models = append(models, model)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate voice models: %w", err)
	}

	return models, nil
}

// Update applies a partial update to user-editable fields. Omitted fields are
// unchanged; a supplied name must be non-empty after trimming. The update
// refreshes updated_at even when no field is supplied.
func (c *Catalog) Update(ctx context.Context, id string, update core.ModelUpdate) (*core.VoiceModel, error) {
	existing, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if existing.IsPreset() {
		return nil, fmt.Errorf("%w: cannot update model %q", core.ErrForbidden, id)
	}

	if update.Name != nil {
		trimmed := strings.TrimSpace(*update.Name)
		if trimmed == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", core.ErrInvalidArgument)
		}

		existing.Name = trimmed
	}

	if update.Description != nil {
		existing.Description = strings.TrimSpace(*update.Description)
	}

	existing.UpdatedAt = time.Now().UTC()

	_, err = c.db.ExecContext(ctx,
		`UPDATE voice_models SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		existing.Name, existing.Description,
		existing.UpdatedAt.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update voice model %q: %w", id, err)
	}

	return existing, nil
}

// Delete removes a custom model and requests release of its backing
// artifacts. An artifact release failure leaves the entry deleted and is
// reported through the log only: an orphaned blob is recoverable garbage,
// not a correctness violation.
func (c *Catalog) Delete(ctx context.Context, id string) error {
	existing, err := c.Get(ctx, id)
	if err != nil {
		return err
	}

	if existing.IsPreset() {
		return fmt.Errorf("%w: cannot delete model %q", core.ErrForbidden, id)
	}

	_, err = c.db.ExecContext(ctx, `DELETE FROM voice_models WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete voice model %q: %w", id, err)
	}

	c.releaseArtifacts(ctx, existing)

	return nil
}

func (c *Catalog) releaseArtifacts(ctx context.Context, model *core.VoiceModel) {
	for _, key := range []string{model.SourceAudioKey, model.EmbeddingKey} {
		if key == "" {
			continue
		}

		err := c.store.Delete(ctx, key)
		if err != nil {
			c.log.Warn("Failed to release artifact %q for model %q: %v", key, model.ID, err)
		}
	}
}

// scanTarget abstracts *sql.Row and *sql.Rows for scanModel.
type scanTarget interface {
	Scan(dest ...any) error
}

func scanModel(row scanTarget) (*core.VoiceModel, error) {
	var (
		model                core.VoiceModel
		createdAt, updatedAt string
		modelType            string
	)

	err := row.Scan(
		&model.ID, &model.Name, &model.Description, &modelType,
		&createdAt, &updatedAt,
		&model.Metrics.DurationSeconds, &model.Metrics.SNRDB,
		&model.Metrics.ClippingRatio, &model.Metrics.SilenceRatio,
		&model.Metrics.SampleRate,
		&model.EmbeddingKey, &model.SourceAudioKey, &model.EngineVoice,
	)
	if err != nil {
		return nil, err
	}

	model.Type = core.ModelType(modelType)
	model.DurationSeconds = model.Metrics.DurationSeconds

	model.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for model %q: %w", model.ID, err)
	}

	model.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at for model %q: %w", model.ID, err)
	}

	return &model, nil
}
