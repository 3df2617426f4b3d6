package engine_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voicestudio/voice-service/internal/core"
	"github.com/voicestudio/voice-service/internal/engine"
)

const testSampleRate = 22050

func newTestClient(t *testing.T, handler http.Handler) (*engine.Client, *httptest.Server) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := engine.New(engine.Options{
		BaseURL:      server.URL,
		Timeout:      5 * time.Second,
		MaxTextChars: 1000,
		Languages:    []string{"en", "de", "fr"},
	})

	return client, server
}

// mockSidecar mimics the engine sidecar API for both endpoints.
func mockSidecar(t *testing.T) http.Handler {
	t.Helper()

	mux := http.NewServeMux()

	mux.HandleFunc("/v1/embed", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "audio/wav", r.Header.Get("Content-Type"))

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write([]byte("embedding-bytes"))
	})

	mux.HandleFunc("/v1/synthesize", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var payload struct {
			Text      string `json:"text"`
			Language  string `json:"language"`
			Embedding []byte `json:"embedding"`
			Voice     string `json:"voice"`
		}

		err := json.NewDecoder(r.Body).Decode(&payload)
		assert.NoError(t, err)
		assert.NotEmpty(t, payload.Text)

		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write([]byte("RIFF....WAVEfake"))
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return mux
}

func TestEmbed_Success(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	samples := make([]float64, testSampleRate)
	for i := range samples {
		samples[i] = 0.1
	}

	embedding, err := client.Embed(context.Background(), samples, testSampleRate)

	require.NoError(t, err)
	assert.Equal(t, []byte("embedding-bytes"), embedding)
}

func TestEmbed_NoSamples(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	_, err := client.Embed(context.Background(), nil, testSampleRate)

	require.ErrorIs(t, err, core.ErrEmbeddingFailed)
}

func TestEmbed_SidecarFailure(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"detail": "model not loaded", "error_code": "MODEL_UNAVAILABLE"}`))
		}))

	_, err := client.Embed(context.Background(), []float64{0.1, 0.2}, testSampleRate)

	require.ErrorIs(t, err, core.ErrEmbeddingFailed)
	assert.Contains(t, err.Error(), "model not loaded")
	assert.Contains(t, err.Error(), "MODEL_UNAVAILABLE")
}

func TestEmbed_EmptyResponse(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, http.HandlerFunc(
		func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

	_, err := client.Embed(context.Background(), []float64{0.1, 0.2}, testSampleRate)

	require.ErrorIs(t, err, core.ErrEmbeddingFailed)
}

func TestSynthesize_Success(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	audioData, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:      "Hello world",
		Language:  "en",
		Embedding: []byte("embedding-bytes"),
	})

	require.NoError(t, err)
	assert.NotEmpty(t, audioData)
}

func TestSynthesize_EmptyText(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	_, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:     "   \n\t ",
		Language: "en",
	})

	require.ErrorIs(t, err, core.ErrInvalidArgument)
}

func TestSynthesize_TextTooLong(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	_, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:     strings.Repeat("a", 1001),
		Language: "en",
	})

	require.ErrorIs(t, err, core.ErrTextTooLong)
}

func TestSynthesize_TextAtLimit(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	_, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:     strings.Repeat("a", 1000),
		Language: "en",
	})

	require.NoError(t, err)
}

func TestSynthesize_UnsupportedLanguage(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	_, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:     "Hola mundo",
		Language: "xx",
	})

	require.ErrorIs(t, err, core.ErrUnsupportedLanguage)
}

func TestSynthesize_NormalizesBeforeLimitCheck(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	// 2000 characters of whitespace collapse far below the ceiling.
	padded := strings.Repeat("a  ", 400)

	_, err := client.Synthesize(context.Background(), core.SynthesisRequest{
		Text:     padded,
		Language: "en",
	})

	require.NoError(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	client, _ := newTestClient(t, mockSidecar(t))

	require.NoError(t, client.Health(context.Background()))
}

func TestHealth_Down(t *testing.T) {
	t.Parallel()

	client, server := newTestClient(t, mockSidecar(t))
	server.Close()

	require.Error(t, client.Health(context.Background()))
}
