// Package server provides the thin HTTP adapter over the voice service.
// Routing and request parsing live here; every decision of consequence is
// delegated to the core contract.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/book-expert/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/voicestudio/voice-service/internal/core"
)

const (
	readHeaderTimeout = 10 * time.Second
	corsMaxAgeSeconds = 300
)

// Handler exposes the core.VoiceService contract over HTTP.
type Handler struct {
	service core.VoiceService
	log     *logger.Logger
}

// NewHandler creates a Handler over the given service.
func NewHandler(service core.VoiceService, log *logger.Logger) *Handler {
	return &Handler{
		service: service,
		log:     log,
	}
}

// Attach registers all routes on the router.
func (h *Handler) Attach(r chi.Router) {
	r.Get("/health", h.handleHealth)
	r.Post("/upload-voice", h.handleUploadVoice)
	r.Post("/synthesize", h.handleSynthesize)
	r.Get("/models", h.handleListModels)
	r.Get("/models/{id}", h.handleGetModel)
	r.Put("/models/{id}", h.handleUpdateModel)
	r.Delete("/models/{id}", h.handleDeleteModel)
	r.Get("/audio/{token}", h.handleFetchAudio)
}

// New builds the HTTP server with CORS middleware for the configured origins.
func New(addr string, corsOrigins []string, service core.VoiceService, log *logger.Logger) *http.Server {
	router := chi.NewRouter()

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           corsMaxAgeSeconds,
	}))

	handler := NewHandler(service, log)
	handler.Attach(router)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

// errorBody is the JSON shape of every failure response. Rejections carry
// the validator's reason and metrics so the UI can show an actionable
// message.
type errorBody struct {
	Error   string               `json:"error"`
	Reason  core.RejectReason    `json:"reason,omitempty"`
	Metrics *core.QualityMetrics `json:"metrics,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	body := errorBody{
		Error:   err.Error(),
		Reason:  "",
		Metrics: nil,
	}

	if vErr, ok := core.AsValidationError(err); ok {
		body.Reason = vErr.Reason
		body.Metrics = &vErr.Metrics
	}

	writeJSON(w, statusFor(err), body)
}

// statusFor maps the closed error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var vErr *core.ValidationError
	if errors.As(err, &vErr) {
		return http.StatusBadRequest
	}

	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, core.ErrInvalidArgument),
		errors.Is(err, core.ErrTextTooLong),
		errors.Is(err, core.ErrUnsupportedLanguage),
		errors.Is(err, core.ErrDecodeFailed):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrEmbeddingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
