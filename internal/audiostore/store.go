// Package audiostore manages the on-disk lifecycle of synthesized audio
// files: collision-free naming, atomic publication, and serving by token.
package audiostore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voicestudio/voice-service/internal/core"
)

// File and directory permissions.
const (
	filePermissions = 0o600
	dirPermissions  = 0o750
)

const (
	tokenExtension = ".wav"
	tempSuffix     = ".tmp"
)

// ContentType is the media type of every stored blob.
const ContentType = "audio/wav"

// Store implements core.GeneratedAudioStore on a directory. Retention of
// published files is an external concern; the store itself never deletes or
// overwrites a published token.
type Store struct {
	dir string
}

// New creates the store directory if needed and returns a Store over it.
func New(dir string) (*Store, error) {
	err := os.MkdirAll(dir, dirPermissions)
	if err != nil {
		return nil, fmt.Errorf("failed to create generated audio directory: %w", err)
	}

	return &Store{dir: dir}, nil
}

// Write persists audio bytes under a fresh token and returns it. The token
// is derived from a random UUID, so two writes completing at the same
// instant never collide. Data lands in a temp sibling first and is renamed
// into place, so a partially-written file is never visible to readers.
func (s *Store) Write(data []byte) (string, error) {
	token := uuid.NewString() + tokenExtension
	finalPath := filepath.Join(s.dir, token)
	tempPath := finalPath + tempSuffix

	err := os.WriteFile(tempPath, data, filePermissions)
	if err != nil {
		return "", fmt.Errorf("%w: failed to write audio file: %w", core.ErrStorageFailed, err)
	}

	err = os.Rename(tempPath, finalPath)
	if err != nil {
		_ = os.Remove(tempPath)

		return "", fmt.Errorf("%w: failed to publish audio file: %w", core.ErrStorageFailed, err)
	}

	return token, nil
}

// Read returns the bytes for a token. Unknown, expired, or malformed tokens
// are core.ErrNotFound, never a fault.
func (s *Store) Read(token string) ([]byte, error) {
	if !validToken(token) {
		return nil, fmt.Errorf("%w: audio %q", core.ErrNotFound, token)
	}

	data, err := os.ReadFile(filepath.Join(s.dir, token))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: audio %q", core.ErrNotFound, token)
		}

		return nil, fmt.Errorf("%w: failed to read audio %q: %w", core.ErrStorageFailed, token, err)
	}

	return data, nil
}

// validToken rejects anything that could escape the store directory.
func validToken(token string) bool {
	if token == "" || !strings.HasSuffix(token, tokenExtension) {
		return false
	}

	if strings.ContainsAny(token, `/\`) || strings.Contains(token, "..") {
		return false
	}

	return true
}
