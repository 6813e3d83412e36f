package model

import (
	"time"

	"github.com/google/uuid"
)

// Transcription describes one completed pipeline run. It is returned to the
// HTTP layer and logged; nothing is persisted.
type Transcription struct {
	ID               uuid.UUID `json:"id"`
	Filename         string    `json:"filename"`
	Format           string    `json:"format"`
	SizeBytes        int64     `json:"size_bytes"`
	DetectedType     string    `json:"detected_type,omitempty"`
	Converted        bool      `json:"converted"`
	MimeType         string    `json:"mime_type"`
	Provider         string    `json:"stt_provider"`
	Model            string    `json:"model_version,omitempty"`
	Language         string    `json:"language,omitempty"`
	Transcript       string    `json:"transcript"`
	Confidence       float64   `json:"confidence,omitempty"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`

	// Empty is set when the provider returned an empty transcript and the
	// soft policy substituted the placeholder text.
	Empty bool `json:"empty"`
}

// NewTranscription starts a record for an upload.
func NewTranscription(filename, format string) *Transcription {
	return &Transcription{
		ID:        uuid.New(),
		Filename:  filename,
		Format:    format,
		CreatedAt: time.Now().UTC(),
	}
}
