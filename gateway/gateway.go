// Package gateway exchanges a recorded audio artifact for raw transcript
// text via the OpenAI transcription API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	defaultModel   = "whisper-1"
	connectTimeout = 30 * time.Second
	requestTimeout = 60 * time.Second
)

// APIError is a structured failure from the transcription service: the HTTP
// status together with the response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("transcription API error %d: %s", e.Status, e.Body)
}

// Config holds gateway configuration, supplied by the host at startup.
type Config struct {
	APIKey  string
	BaseURL string // optional, defaults to the OpenAI API
	Model   string // optional, defaults to "whisper-1"
}

// Client calls the transcription API. The call is issued at most once per
// session and is never retried.
type Client struct {
	client openai.Client
	model  string
}

// New creates a transcription client.
func New(cfg Config) *Client {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}

	httpClient := &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			DialContext: (&net.Dialer{Timeout: connectTimeout}).DialContext,
		},
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Transcribe uploads the audio file with an optional bias prompt and returns
// the raw transcript text.
//
// Failures come in two kinds: an *APIError for non-2xx responses, and a
// plain wrapped error for transport problems.
func (c *Client) Transcribe(ctx context.Context, audioPath, biasPrompt string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio artifact: %w", err)
	}
	defer f.Close()

	params := openai.AudioTranscriptionNewParams{
		File:           openai.File(f, "audio.wav", "audio/wav"),
		Model:          openai.AudioModel(c.model),
		ResponseFormat: openai.AudioResponseFormatJSON,
	}
	if biasPrompt != "" {
		params.Prompt = openai.String(biasPrompt)
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{Status: apiErr.StatusCode, Body: apiErr.RawJSON()}
		}
		return "", fmt.Errorf("transcription request: %w", err)
	}

	return resp.Text, nil
}
