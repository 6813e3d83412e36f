// Package pipeline turns an uploaded audio or video file into a transcript:
// validate, stage, convert when needed, transcribe, and always clean up.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"scribe/internal/apperrors"
	"scribe/internal/logger"
	"scribe/internal/media"
	"scribe/internal/model"
	"scribe/internal/resilience"
	"scribe/internal/storage"
	"scribe/internal/stt"
)

// NoTranscriptionText is returned in place of an empty transcript when the
// soft empty-transcript policy is enabled.
const NoTranscriptionText = "No transcription available"

// Client-facing messages.
const (
	msgNoFile          = "No audio file uploaded"
	msgNoFilename      = "No selected file"
	msgUnsupported     = "Unsupported file type. Please upload an MP3, WAV, or MP4 file."
	msgConversion      = "Failed to convert media to WAV audio"
	msgEmptyTranscript = "Transcription returned an empty transcript"
	msgBusy            = "Server is busy, please retry later"
)

// Upload is one client-supplied file.
type Upload struct {
	// Filename is the untrusted name sent by the client.
	Filename string
	Body     io.Reader
	// RequestID correlates log lines; optional.
	RequestID string
}

// Config holds the per-request behaviour of the pipeline.
type Config struct {
	Options stt.Options
	// SoftEmptyTranscript answers an empty transcript with
	// NoTranscriptionText instead of a ProviderResponseError.
	SoftEmptyTranscript bool
}

// Pipeline is safe for concurrent use. Every Run owns its own staged files.
type Pipeline struct {
	stager    *storage.Stager
	converter media.Converter
	provider  stt.Provider
	bulkhead  *resilience.Bulkhead
	cfg       Config
	log       *logger.Logger
}

func New(
	stager *storage.Stager,
	converter media.Converter,
	provider stt.Provider,
	bulkhead *resilience.Bulkhead,
	cfg Config,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		stager:    stager,
		converter: converter,
		provider:  provider,
		bulkhead:  bulkhead,
		cfg:       cfg,
		log:       log.WithComponent("pipeline"),
	}
}

// Run processes up and returns the transcription record. Errors are always
// *apperrors.AppError. No file created by this call survives its return.
func (p *Pipeline) Run(ctx context.Context, up Upload) (*model.Transcription, error) {
	start := time.Now()

	name, ext, err := validate(up)
	if err != nil {
		p.log.Warn("upload rejected", logger.Fields(
			logger.FieldRequestID, up.RequestID,
			logger.FieldFilename, up.Filename,
			"reason", err.Error(),
		))
		return nil, err
	}

	rec := model.NewTranscription(name, ext)
	log := p.log.WithFields(logger.Fields(
		logger.FieldRequestID, up.RequestID,
		"transcription_id", rec.ID.String(),
		logger.FieldFilename, name,
	))

	err = p.bulkhead.Execute(ctx, func() error {
		return p.process(ctx, up.Body, ext, rec, log)
	})
	if err != nil {
		err = classify(err)
		log.WithError(err).Error("transcription failed", logger.Fields(
			"kind", kindOf(err),
			logger.FieldDurationMs, time.Since(start).Milliseconds(),
		))
		return nil, err
	}

	rec.ProcessingTimeMs = time.Since(start).Milliseconds()
	log.Info("transcription completed", logger.Fields(
		logger.FieldProvider, rec.Provider,
		"converted", rec.Converted,
		"empty", rec.Empty,
		"length", len(rec.Transcript),
		logger.FieldDurationMs, rec.ProcessingTimeMs,
	))
	return rec, nil
}

func (p *Pipeline) process(ctx context.Context, body io.Reader, ext string, rec *model.Transcription, log *logger.Logger) error {
	sess := p.stager.NewSession()
	defer func() {
		if err := sess.Cleanup(); err != nil {
			log.WithError(err).Error("cleanup failed")
		}
	}()

	staged, size, err := sess.Stage(body, ext)
	if err != nil {
		return apperrors.Internal(err)
	}
	rec.SizeBytes = size
	rec.DetectedType = media.Detect(staged)
	log.Info("upload staged", logger.Fields(
		logger.FieldSizeBytes, size,
		"detected_type", rec.DetectedType,
	))

	audioPath, audioExt := staged, ext
	if media.NeedsConversion(ext) {
		out := sess.Reserve(media.ExtWAV)
		log.Info("converting to wav", logger.Fields("from", ext))

		if err := p.converter.Convert(ctx, staged, out); err != nil {
			removeQuietly(log, staged, out)
			return apperrors.Conversion(msgConversion).WithCause(err)
		}
		// The converted artifact supersedes the upload.
		removeQuietly(log, staged)
		audioPath, audioExt = out, media.ExtWAV
		rec.Converted = true
	}

	mimeType, ok := media.ContentType(audioExt)
	if !ok {
		return apperrors.Validation(msgUnsupported).WithDetail("ext", audioExt)
	}
	rec.MimeType = mimeType

	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("read staged audio: %w", err))
	}

	res, err := p.provider.Transcribe(ctx, stt.Request{
		Audio:    audio,
		MimeType: mimeType,
		Options:  p.cfg.Options,
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return err
		}
		return apperrors.Provider(fmt.Sprintf("%s transcription failed: %v", p.provider.Name(), err)).WithCause(err)
	}
	if res == nil {
		return apperrors.ProviderResponse(fmt.Sprintf("%s transcription returned no result", p.provider.Name()))
	}

	rec.Provider = res.Provider
	if rec.Provider == "" {
		rec.Provider = p.provider.Name()
	}
	rec.Model = p.cfg.Options.Model
	rec.Language = p.cfg.Options.Language
	rec.Confidence = res.Confidence
	rec.Transcript = strings.TrimSpace(res.Transcript)

	if rec.Transcript == "" {
		if !p.cfg.SoftEmptyTranscript {
			return apperrors.ProviderResponse(msgEmptyTranscript)
		}
		log.Warn("empty transcript, returning placeholder")
		rec.Transcript = NoTranscriptionText
		rec.Empty = true
	}
	return nil
}

// validate checks presence and extension before anything touches disk. It
// returns the sanitized filename and the lower-cased extension.
func validate(up Upload) (string, string, error) {
	if up.Body == nil {
		return "", "", apperrors.Validation(msgNoFile)
	}
	if strings.TrimSpace(up.Filename) == "" {
		return "", "", apperrors.Validation(msgNoFilename)
	}

	name := storage.SanitizeFilename(up.Filename)
	ext := strings.ToLower(filepath.Ext(name))
	if name == "" || !media.Allowed(ext) {
		return "", "", apperrors.Validation(msgUnsupported).WithDetail("filename", name)
	}
	return name, ext, nil
}

// classify maps bulkhead and unexpected errors onto AppErrors.
func classify(err error) error {
	if _, ok := apperrors.As(err); ok {
		return err
	}
	if errors.Is(err, resilience.ErrBulkheadFull) || errors.Is(err, resilience.ErrBulkheadTimeout) {
		return apperrors.Busy(msgBusy).WithCause(err)
	}
	return apperrors.Internal(err)
}

func kindOf(err error) apperrors.Kind {
	if appErr, ok := apperrors.As(err); ok {
		return appErr.Kind
	}
	return apperrors.KindInternal
}

func removeQuietly(log *logger.Logger, paths ...string) {
	for _, path := range paths {
		if err := storage.Remove(path); err != nil {
			log.WithError(err).Warn("remove failed")
		}
	}
}
