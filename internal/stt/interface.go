package stt

import "context"

// Provider defines the interface for speech-to-text providers
type Provider interface {
	// Transcribe sends the audio in req and returns the extracted transcript.
	// A transcript that is present but empty is returned without error;
	// a response without a transcript at all is a ProviderResponseError.
	Transcribe(ctx context.Context, req Request) (*Result, error)

	// Name returns the name of the provider (e.g., "deepgram", "openai")
	Name() string
}
