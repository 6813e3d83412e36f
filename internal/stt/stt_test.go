package stt

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scribe/internal/apperrors"
	"scribe/internal/config"
	"scribe/internal/logger"
)

var testOptions = Options{
	Model:       "nova-2-general",
	Language:    "en",
	Diarize:     true,
	SmartFormat: true,
	Punctuate:   true,
}

type capturedRequest struct {
	method      string
	query       map[string]string
	auth        string
	contentType string
	body        []byte
}

func deepgramServer(t *testing.T, status int, body string) (*httptest.Server, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{query: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.method = r.Method
		for k := range r.URL.Query() {
			captured.query[k] = r.URL.Query().Get(k)
		}
		captured.auth = r.Header.Get("Authorization")
		captured.contentType = r.Header.Get("Content-Type")
		captured.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, captured
}

func TestDeepgram_Success(t *testing.T) {
	srv, captured := deepgramServer(t, http.StatusOK, `{
		"metadata": {"request_id": "abc"},
		"results": {"channels": [{"alternatives": [{"transcript": " hello world ", "confidence": 0.98}]}]}
	}`)
	p := NewDeepgramProvider("dg-key", srv.URL+"/v1/listen", time.Second, logger.Nop())

	audio := []byte("RIFF....WAVEdata")
	res, err := p.Transcribe(context.Background(), Request{Audio: audio, MimeType: "audio/wav", Options: testOptions})
	require.NoError(t, err)

	assert.Equal(t, "hello world", res.Transcript)
	assert.InDelta(t, 0.98, res.Confidence, 1e-9)
	assert.Equal(t, "deepgram", res.Provider)

	assert.Equal(t, http.MethodPost, captured.method)
	assert.Equal(t, "Token dg-key", captured.auth)
	assert.Equal(t, "audio/wav", captured.contentType)
	assert.Equal(t, audio, captured.body)
	assert.Equal(t, map[string]string{
		"model":        "nova-2-general",
		"language":     "en",
		"diarize":      "true",
		"smart_format": "true",
		"punctuate":    "true",
	}, captured.query)
}

func TestDeepgram_EmptyTranscriptIsNotAnError(t *testing.T) {
	srv, _ := deepgramServer(t, http.StatusOK, `{"results": {"channels": [{"alternatives": [{"transcript": ""}]}]}}`)
	p := NewDeepgramProvider("k", srv.URL, time.Second, logger.Nop())

	res, err := p.Transcribe(context.Background(), Request{Audio: []byte("x"), MimeType: "audio/mp3"})
	require.NoError(t, err)
	assert.Empty(t, res.Transcript)
}

func TestDeepgram_MissingTranscriptPath(t *testing.T) {
	bodies := map[string]string{
		"no results":        `{"metadata": {}}`,
		"null results":      `{"results": null}`,
		"no channels":       `{"results": {"channels": []}}`,
		"no alternatives":   `{"results": {"channels": [{"alternatives": []}]}}`,
		"no transcript key": `{"results": {"channels": [{"alternatives": [{"confidence": 0.5}]}]}}`,
		"not json":          `<html>oops</html>`,
		"wrong shape":       `{"results": {"channels": "nope"}}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			srv, _ := deepgramServer(t, http.StatusOK, body)
			p := NewDeepgramProvider("k", srv.URL, time.Second, logger.Nop())

			_, err := p.Transcribe(context.Background(), Request{Audio: []byte("x"), MimeType: "audio/wav"})
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, apperrors.KindProviderResponse, appErr.Kind)
			assert.Equal(t, http.StatusInternalServerError, appErr.HTTPStatus)
			assert.Equal(t, "Deepgram transcription returned no result", appErr.Message)
		})
	}
}

func TestDeepgram_HTTPErrorIsProviderError(t *testing.T) {
	srv, _ := deepgramServer(t, http.StatusUnauthorized, `{"err_code":"INVALID_AUTH","err_msg":"Invalid credentials."}`)
	p := NewDeepgramProvider("bad", srv.URL, time.Second, logger.Nop())

	res, err := p.Transcribe(context.Background(), Request{Audio: []byte("x"), MimeType: "audio/wav"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProvider))
	assert.Contains(t, err.Error(), "Deepgram transcription failed: status 401: Invalid credentials.")
	require.NotNil(t, res)
	assert.Contains(t, res.RawResponse, "INVALID_AUTH")
}

func TestDeepgram_NetworkErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	p := NewDeepgramProvider("k", url, time.Second, logger.Nop())
	_, err := p.Transcribe(context.Background(), Request{Audio: []byte("x"), MimeType: "audio/wav"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProvider))
}

func TestDeepgram_EndpointKeepsExistingQuery(t *testing.T) {
	p := NewDeepgramProvider("k", "https://api.deepgram.com/v1/listen?tier=enhanced", time.Second, logger.Nop())
	endpoint, err := p.endpoint(Options{Model: "nova-2-general", Language: "en"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(endpoint, "https://api.deepgram.com/v1/listen?"))
	assert.Contains(t, endpoint, "tier=enhanced")
	assert.Contains(t, endpoint, "model=nova-2-general")
	assert.Contains(t, endpoint, "diarize=false")
}

func TestPreview_Truncates(t *testing.T) {
	long := strings.Repeat("a", 600)
	assert.Len(t, preview([]byte(long)), 503)
	assert.Equal(t, "short", preview([]byte("short")))
}

func TestOpenAI_Success(t *testing.T) {
	var gotPath, gotAuth, gotFilename, gotModel, gotLanguage string
	var gotAudio []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotModel = r.FormValue("model")
		gotLanguage = r.FormValue("language")
		f, fh, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		gotFilename = fh.Filename
		gotAudio, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text": "hello world"}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "whisper-1", time.Second, logger.Nop())
	res, err := p.Transcribe(context.Background(), Request{Audio: []byte("RIFFdata"), MimeType: "audio/wav", Options: testOptions})
	require.NoError(t, err)

	assert.Equal(t, "hello world", res.Transcript)
	assert.Equal(t, "openai", res.Provider)
	assert.Equal(t, "/v1/audio/transcriptions", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "whisper-1", gotModel)
	assert.Equal(t, "en", gotLanguage)
	assert.Equal(t, "audio.wav", gotFilename)
	assert.Equal(t, []byte("RIFFdata"), gotAudio)
}

func TestOpenAI_APIErrorIsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error": {"message": "quota exceeded", "type": "insufficient_quota"}}`)
	}))
	defer srv.Close()

	p := NewOpenAIProvider("sk-test", srv.URL+"/v1", "whisper-1", time.Second, logger.Nop())
	_, err := p.Transcribe(context.Background(), Request{Audio: []byte("x"), MimeType: "audio/mp3"})
	require.Error(t, err)
	assert.True(t, apperrors.IsKind(err, apperrors.KindProvider))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestExtensionFor(t *testing.T) {
	assert.Equal(t, ".wav", extensionFor("audio/wav"))
	assert.Equal(t, ".mp3", extensionFor("audio/MP3"))
	assert.Equal(t, ".mp4", extensionFor("video/mp4"))
	assert.Equal(t, ".wav", extensionFor("application/octet-stream"))
}

func TestNewProvider(t *testing.T) {
	cfg := &config.Config{Provider: config.ProviderDeepgram, DeepgramAPIKey: "k", DeepgramURL: "https://x"}
	p, err := NewProvider(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "deepgram", p.Name())

	cfg = &config.Config{Provider: config.ProviderOpenAI, OpenAIAPIKey: "sk", OpenAIModel: "whisper-1"}
	p, err = NewProvider(cfg, logger.Nop())
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	_, err = NewProvider(&config.Config{Provider: config.ProviderDeepgram}, logger.Nop())
	assert.Error(t, err)

	_, err = NewProvider(&config.Config{Provider: "fpt"}, logger.Nop())
	assert.ErrorContains(t, err, "unsupported STT provider")
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := &config.Config{Model: "nova-2-general", Language: "en", Diarize: true, Punctuate: true}
	assert.Equal(t, Options{Model: "nova-2-general", Language: "en", Diarize: true, Punctuate: true}, OptionsFromConfig(cfg))
}
