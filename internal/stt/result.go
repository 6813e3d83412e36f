package stt

// Options is the fixed option set sent with every request.
type Options struct {
	Model       string
	Language    string
	Diarize     bool
	SmartFormat bool
	Punctuate   bool
}

// Request is one transcription call: the audio bytes and their MIME type.
type Request struct {
	Audio    []byte
	MimeType string
	Options  Options
}

// Result represents the result of a speech-to-text transcription
type Result struct {
	Transcript  string  // The transcribed text, may be empty
	Confidence  float64 // Confidence score (0.0-1.0), may be 0 if not provided
	Provider    string  // The provider used (e.g., "deepgram", "openai")
	RawResponse string  // Raw response from the provider (for debugging/logging)
}
