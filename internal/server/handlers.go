package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/voicestudio/voice-service/internal/audiostore"
	"github.com/voicestudio/voice-service/internal/core"
)

// maxUploadBytes caps voice sample uploads at 10 MB, matching the size a
// one-minute 16-bit recording stays well within.
const maxUploadBytes = 10 << 20

type synthesizeRequest struct {
	Text     string `json:"text"`
	ModelID  string `json:"model_id,omitempty"`
	Language string `json:"language"`
}

type modelUpdateRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) handleUploadVoice(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: missing audio file: %w", core.ErrInvalidArgument, err))

		return
	}

	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: failed to read upload: %w", core.ErrInvalidArgument, err))

		return
	}

	name := r.FormValue("model_name")
	description := r.FormValue("description")

	model, err := h.service.UploadAndCreate(r.Context(), data, name, description)
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Voice model created successfully",
		"model":   model,
	})
}

func (h *Handler) handleSynthesize(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %w", core.ErrInvalidArgument, err))

		return
	}

	token, err := h.service.Synthesize(r.Context(), req.ModelID, req.Text, req.Language)
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"message":   "Speech synthesized successfully",
		"audio_url": "/audio/" + token,
		"token":     token,
	})
}

func (h *Handler) handleListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.service.ListModels(r.Context())
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"count":   len(models),
		"models":  models,
	})
}

func (h *Handler) handleGetModel(w http.ResponseWriter, r *http.Request) {
	model, err := h.service.GetModel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"model":   model,
	})
}

func (h *Handler) handleUpdateModel(w http.ResponseWriter, r *http.Request) {
	var req modelUpdateRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.writeError(w, fmt.Errorf("%w: invalid request body: %w", core.ErrInvalidArgument, err))

		return
	}

	model, err := h.service.UpdateModel(r.Context(), chi.URLParam(r, "id"), core.ModelUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"model":   model,
	})
}

func (h *Handler) handleDeleteModel(w http.ResponseWriter, r *http.Request) {
	err := h.service.DeleteModel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)

		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Model deleted successfully",
	})
}

func (h *Handler) handleFetchAudio(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.FetchAudio(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", audiostore.ContentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
