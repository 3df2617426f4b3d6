// Package engine provides the HTTP adapter over the neural speech engine
// sidecar, exposing embedding extraction and text-to-speech synthesis with a
// uniform error contract.
package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/voicestudio/voice-service/internal/audio"
	"github.com/voicestudio/voice-service/internal/core"
	"github.com/voicestudio/voice-service/internal/text"
)

// API endpoints and paths.
const (
	apiEmbed      = "/v1/embed"
	apiSynthesize = "/v1/synthesize"
	apiHealth     = "/health"
)

// HTTP headers.
const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
	contentTypeJSON   = "application/json"
	contentTypeWAV    = "audio/wav"
	contentTypeBinary = "application/octet-stream"
)

// Defaults applied when the configuration leaves a limit unset.
const (
	DefaultMaxTextChars   = 1000
	DefaultTimeoutSeconds = 300
)

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	MaxTextChars int
	Languages    []string
}

// Client implements core.SpeechEngine against the sidecar HTTP API. Both
// calls are blocking, resource-intensive operations; the client performs no
// caching and no retries.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	maxTextChars int
	languages    map[string]struct{}
}

// errorResponse is the structured error payload of the sidecar.
type errorResponse struct {
	Detail    string `json:"detail"`
	ErrorCode string `json:"error_code,omitempty"`
}

// synthesizePayload is the JSON body of a synthesis request. The embedding
// travels base64-encoded; Voice names a built-in speaker instead.
type synthesizePayload struct {
	Text      string `json:"text"`
	Language  string `json:"language"`
	Embedding []byte `json:"embedding,omitempty"`
	Voice     string `json:"voice,omitempty"`
}

// New creates a Client for the sidecar at opts.BaseURL.
func New(opts Options) *Client {
	if opts.MaxTextChars <= 0 {
		opts.MaxTextChars = DefaultMaxTextChars
	}

	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeoutSeconds * time.Second
	}

	languages := make(map[string]struct{}, len(opts.Languages))
	for _, language := range opts.Languages {
		languages[language] = struct{}{}
	}

	return &Client{
		baseURL: opts.BaseURL,
		httpClient: &http.Client{
			Timeout: opts.Timeout,
		},
		maxTextChars: opts.MaxTextChars,
		languages:    languages,
	}
}

// Embed derives a voice embedding from decoded PCM samples. Any sidecar
// fault is reported as core.ErrEmbeddingFailed; the raw cause is wrapped,
// never leaked as the outcome.
func (c *Client) Embed(ctx context.Context, samples []float64, sampleRate int) ([]byte, error) {
	if len(samples) == 0 {
		return nil, fmt.Errorf("%w: no samples", core.ErrEmbeddingFailed)
	}

	wav := audio.EncodeWAV(samples, sampleRate)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+apiEmbed, bytes.NewReader(wav))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingFailed, err)
	}

	req.Header.Set(headerContentType, contentTypeWAV)
	req.Header.Set(headerAccept, contentTypeBinary)

	embedding, err := c.do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", core.ErrEmbeddingFailed, err)
	}

	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: received empty embedding", core.ErrEmbeddingFailed)
	}

	return embedding, nil
}

// Synthesize renders text as WAV audio. The language whitelist and the text
// ceiling are enforced here even when an upstream layer already checked them:
// the core never trusts external validation alone.
func (c *Client) Synthesize(ctx context.Context, request core.SynthesisRequest) ([]byte, error) {
	normalized := text.NormalizeForSpeech(request.Text)
	if normalized == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", core.ErrInvalidArgument)
	}

	if len([]rune(normalized)) > c.maxTextChars {
		return nil, fmt.Errorf("%w: %d characters exceeds limit of %d",
			core.ErrTextTooLong, len([]rune(normalized)), c.maxTextChars)
	}

	if _, ok := c.languages[request.Language]; !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedLanguage, request.Language)
	}

	payload := synthesizePayload{
		Text:      normalized,
		Language:  request.Language,
		Embedding: request.Embedding,
		Voice:     request.Voice,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal synthesis request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.baseURL+apiSynthesize, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create synthesis request: %w", err)
	}

	req.Header.Set(headerContentType, contentTypeJSON)
	req.Header.Set(headerAccept, contentTypeWAV)

	audioData, err := c.do(req)
	if err != nil {
		return nil, err
	}

	if len(audioData) == 0 {
		return nil, fmt.Errorf("%w: received empty audio data", core.ErrStorageFailed)
	}

	return audioData, nil
}

// Health verifies that the engine sidecar is running and operational.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.baseURL+apiHealth, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed for engine at %s: %w", c.baseURL, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed with status: %s", resp.Status)
	}

	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request to engine at %s: %w", c.baseURL, err)
	}

	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseErrorResponse(resp)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read engine response: %w", err)
	}

	return data, nil
}

// parseErrorResponse attempts to decode a structured JSON error from the
// sidecar, falling back to the raw body so diagnostics are preserved.
func (c *Client) parseErrorResponse(resp *http.Response) error {
	var errResp errorResponse

	err := json.NewDecoder(resp.Body).Decode(&errResp)
	if err == nil && errResp.Detail != "" {
		return fmt.Errorf("engine error (%s): %s (code: %s)",
			resp.Status, errResp.Detail, errResp.ErrorCode)
	}

	body, _ := io.ReadAll(resp.Body)

	return fmt.Errorf("engine returned non-OK status: %s, body: %s",
		resp.Status, string(body))
}
