// main package for the voice-client command line tool.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Flag descriptions.
const (
	flagServerDesc   = "Base URL of the voice-service"
	flagTextDesc     = "Text to convert to speech"
	flagModelDesc    = "Voice model id (empty selects the default preset)"
	flagLanguageDesc = "Language code"
	flagOutputDesc   = "Output file path (.wav)"
	flagHealthDesc   = "Check service health and exit"
	flagUploadDesc   = "Path to a WAV recording to upload as a new voice model"
	flagNameDesc     = "Name for the uploaded voice model"
)

const (
	defaultServer     = "http://127.0.0.1:8000"
	defaultLanguage   = "en"
	defaultOutputFile = "output.wav"
	requestTimeout    = 5 * time.Minute
	filePermissions   = 0o600
)

var (
	errTextRequired = errors.New("--text must be provided")
	errNameRequired = errors.New("--name must be provided with --upload")
)

type appFlags struct {
	server   string
	text     string
	model    string
	language string
	output   string
	health   bool
	upload   string
	name     string
}

type synthesizeResponse struct {
	Success  bool   `json:"success"`
	Token    string `json:"token"`
	AudioURL string `json:"audio_url"`
}

func main() {
	err := run()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

func run() error {
	flags := parseFlags()

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	if flags.health {
		return checkHealth(ctx, flags.server)
	}

	if flags.upload != "" {
		return uploadVoice(ctx, flags)
	}

	if flags.text == "" {
		return errTextRequired
	}

	return synthesize(ctx, flags)
}

func parseFlags() appFlags {
	var flags appFlags

	flag.StringVar(&flags.server, "server", defaultServer, flagServerDesc)
	flag.StringVar(&flags.text, "text", "", flagTextDesc)
	flag.StringVar(&flags.model, "model", "", flagModelDesc)
	flag.StringVar(&flags.language, "language", defaultLanguage, flagLanguageDesc)
	flag.StringVar(&flags.output, "output", defaultOutputFile, flagOutputDesc)
	flag.BoolVar(&flags.health, "health", false, flagHealthDesc)
	flag.StringVar(&flags.upload, "upload", "", flagUploadDesc)
	flag.StringVar(&flags.name, "name", "", flagNameDesc)
	flag.Parse()

	return flags
}

func checkHealth(ctx context.Context, server string) error {
	body, err := doRequest(ctx, http.MethodGet, server+"/health", nil)
	if err != nil {
		return fmt.Errorf("service is not healthy: %w", err)
	}

	fmt.Printf("Service is healthy: %s\n", string(body))

	return nil
}

func uploadVoice(ctx context.Context, flags appFlags) error {
	if flags.name == "" {
		return errNameRequired
	}

	audioData, err := os.ReadFile(flags.upload)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	var body bytes.Buffer

	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", filepath.Base(flags.upload))
	if err != nil {
		return fmt.Errorf("failed to build upload form: %w", err)
	}

	_, err = part.Write(audioData)
	if err != nil {
		return fmt.Errorf("failed to write upload form: %w", err)
	}

	err = writer.WriteField("model_name", flags.name)
	if err != nil {
		return fmt.Errorf("failed to write upload form: %w", err)
	}

	err = writer.Close()
	if err != nil {
		return fmt.Errorf("failed to finalize upload form: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, flags.server+"/upload-voice", &body)
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("upload rejected with status %s: %s", resp.Status, string(respBody))
	}

	fmt.Printf("Created voice model: %s\n", string(respBody))

	return nil
}

func synthesize(ctx context.Context, flags appFlags) error {
	payload, err := json.Marshal(map[string]string{
		"text":     flags.text,
		"model_id": flags.model,
		"language": flags.language,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	body, err := doRequest(ctx, http.MethodPost, flags.server+"/synthesize", payload)
	if err != nil {
		return fmt.Errorf("synthesis failed: %w", err)
	}

	var resp synthesizeResponse

	err = json.Unmarshal(body, &resp)
	if err != nil {
		return fmt.Errorf("failed to parse synthesis response: %w", err)
	}

	audioData, err := doRequest(ctx, http.MethodGet, flags.server+resp.AudioURL, nil)
	if err != nil {
		return fmt.Errorf("failed to fetch generated audio: %w", err)
	}

	err = os.WriteFile(flags.output, audioData, filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	fmt.Printf("Generated: %s (%d bytes)\n", flags.output, len(audioData))

	return nil
}

func doRequest(ctx context.Context, method, url string, payload []byte) ([]byte, error) {
	var reqBody io.Reader = http.NoBody
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("unexpected status %s: %s", resp.Status, string(body))
	}

	return body, nil
}
