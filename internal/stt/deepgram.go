package stt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"scribe/internal/apperrors"
	"scribe/internal/logger"
)

// DeepgramProvider implements STT using the Deepgram pre-recorded audio API
type DeepgramProvider struct {
	apiKey string
	url    string
	client *http.Client
	log    *logger.Logger
}

// NewDeepgramProvider creates a Deepgram provider that posts to endpoint.
func NewDeepgramProvider(apiKey, endpoint string, timeout time.Duration, log *logger.Logger) *DeepgramProvider {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &DeepgramProvider{
		apiKey: apiKey,
		url:    endpoint,
		client: &http.Client{Timeout: timeout},
		log:    log.WithComponent("deepgram"),
	}
}

// Name returns the provider name
func (p *DeepgramProvider) Name() string {
	return "deepgram"
}

// deepgramResponse mirrors the part of the listen response we read. Pointers
// distinguish a missing transcript from an empty one.
type deepgramResponse struct {
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
	Results *struct {
		Channels []struct {
			Alternatives []struct {
				Transcript *string `json:"transcript"`
				Confidence float64 `json:"confidence"`
			} `json:"alternatives"`
		} `json:"channels"`
	} `json:"results"`
}

// Transcribe posts the audio bytes and extracts
// results.channels[0].alternatives[0].transcript.
func (p *DeepgramProvider) Transcribe(ctx context.Context, req Request) (*Result, error) {
	startTime := time.Now()

	endpoint, err := p.endpoint(req.Options)
	if err != nil {
		return nil, apperrors.Provider("Deepgram transcription failed: invalid endpoint").WithCause(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(req.Audio))
	if err != nil {
		return nil, apperrors.Provider("Deepgram transcription failed: " + err.Error()).WithCause(err)
	}
	httpReq.Header.Set("Authorization", "Token "+p.apiKey)
	httpReq.Header.Set("Content-Type", req.MimeType)

	p.log.Info("sending audio", logger.Fields(
		logger.FieldSizeBytes, len(req.Audio),
		logger.FieldMimeType, req.MimeType,
		"model", req.Options.Model,
	))

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, apperrors.Provider("Deepgram transcription failed: " + err.Error()).WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Provider("Deepgram transcription failed: could not read response").WithCause(err)
	}
	p.log.Debug("response received", logger.Fields("status", resp.StatusCode, "preview", preview(body)))

	if resp.StatusCode != http.StatusOK {
		p.log.Error("API error", logger.Fields("status", resp.StatusCode, "body", preview(body)))
		return &Result{Provider: p.Name(), RawResponse: string(body)},
			apperrors.Provider(fmt.Sprintf("Deepgram transcription failed: status %d: %s", resp.StatusCode, errorMessage(body))).
				WithDetail("status", resp.StatusCode)
	}

	var parsed deepgramResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return &Result{Provider: p.Name(), RawResponse: string(body)},
			apperrors.ProviderResponse("Deepgram transcription returned no result").WithCause(err)
	}

	if parsed.Results == nil ||
		len(parsed.Results.Channels) == 0 ||
		len(parsed.Results.Channels[0].Alternatives) == 0 ||
		parsed.Results.Channels[0].Alternatives[0].Transcript == nil {
		p.log.Error("transcript missing from response", logger.Fields("preview", preview(body)))
		return &Result{Provider: p.Name(), RawResponse: string(body)},
			apperrors.ProviderResponse("Deepgram transcription returned no result")
	}

	alt := parsed.Results.Channels[0].Alternatives[0]
	transcript := strings.TrimSpace(*alt.Transcript)

	p.log.Info("transcription finished", logger.Fields(
		"request", parsed.Metadata.RequestID,
		"confidence", alt.Confidence,
		"length", len(transcript),
		logger.FieldDurationMs, time.Since(startTime).Milliseconds(),
	))

	return &Result{
		Transcript:  transcript,
		Confidence:  alt.Confidence,
		Provider:    p.Name(),
		RawResponse: string(body),
	}, nil
}

func (p *DeepgramProvider) endpoint(opts Options) (string, error) {
	u, err := url.Parse(p.url)
	if err != nil {
		return "", err
	}
	q := u.Query()
	if opts.Model != "" {
		q.Set("model", opts.Model)
	}
	if opts.Language != "" {
		q.Set("language", opts.Language)
	}
	q.Set("diarize", strconv.FormatBool(opts.Diarize))
	q.Set("smart_format", strconv.FormatBool(opts.SmartFormat))
	q.Set("punctuate", strconv.FormatBool(opts.Punctuate))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// errorMessage pulls a human readable message out of a Deepgram error body.
func errorMessage(body []byte) string {
	var e struct {
		ErrCode string `json:"err_code"`
		ErrMsg  string `json:"err_msg"`
		Reason  string `json:"reason"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		switch {
		case e.ErrMsg != "":
			return e.ErrMsg
		case e.Reason != "":
			return e.Reason
		}
	}
	return preview(body)
}

// preview truncates a response body for logging.
func preview(body []byte) string {
	s := string(body)
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
