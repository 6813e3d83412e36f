package stt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"scribe/internal/apperrors"
	"scribe/internal/logger"
)

// OpenAIProvider implements STT using the OpenAI audio transcription API.
// Diarization and formatting flags have no equivalent there and are ignored.
type OpenAIProvider struct {
	client *openai.Client
	model  string
	log    *logger.Logger
}

// NewOpenAIProvider creates a provider for the given model (e.g. "whisper-1").
// An empty baseURL uses the public API.
func NewOpenAIProvider(apiKey, baseURL, model string, timeout time.Duration, log *logger.Logger) *OpenAIProvider {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		log:    log.WithComponent("openai"),
	}
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return "openai"
}

// Transcribe uploads the audio as a multipart file. The file name carries an
// extension matching the MIME type because the API detects format from it.
func (p *OpenAIProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	p.log.Info("sending audio", logger.Fields(
		logger.FieldSizeBytes, len(req.Audio),
		logger.FieldMimeType, req.MimeType,
		"model", p.model,
	))

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.model,
		FilePath: "audio" + extensionFor(req.MimeType),
		Reader:   bytes.NewReader(req.Audio),
		Language: req.Options.Language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			p.log.Error("API error", logger.Fields("status", apiErr.HTTPStatusCode, "message", apiErr.Message))
			return nil, apperrors.Provider(fmt.Sprintf("OpenAI transcription failed: status %d: %s", apiErr.HTTPStatusCode, apiErr.Message)).
				WithCause(err).
				WithDetail("status", apiErr.HTTPStatusCode)
		}
		return nil, apperrors.Provider("OpenAI transcription failed: " + err.Error()).WithCause(err)
	}

	transcript := strings.TrimSpace(resp.Text)
	p.log.Info("transcription finished", logger.Fields(
		"length", len(transcript),
		logger.FieldDurationMs, time.Since(startTime).Milliseconds(),
	))

	return &Result{
		Transcript: transcript,
		Provider:   p.Name(),
	}, nil
}

func extensionFor(mimeType string) string {
	switch strings.ToLower(mimeType) {
	case "audio/wav", "audio/x-wav", "audio/wave":
		return ".wav"
	case "audio/mp3", "audio/mpeg":
		return ".mp3"
	case "video/mp4", "audio/mp4":
		return ".mp4"
	default:
		return ".wav"
	}
}
