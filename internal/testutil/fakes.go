// Package testutil provides in-memory stand-ins for the external
// collaborators of the pipeline: the media converter and the STT provider.
package testutil

import (
	"context"
	"os"
	"sync"

	"scribe/internal/stt"
)

// FakeProvider records every request and answers with a canned result.
type FakeProvider struct {
	// Transcript is returned when Err is nil.
	Transcript string
	Err        error
	// Nil makes Transcribe return (nil, nil).
	Nil bool

	mu       sync.Mutex
	requests []stt.Request
}

func (f *FakeProvider) Name() string { return "fake" }

func (f *FakeProvider) Transcribe(_ context.Context, req stt.Request) (*stt.Result, error) {
	f.mu.Lock()
	cp := req
	cp.Audio = append([]byte(nil), req.Audio...)
	f.requests = append(f.requests, cp)
	f.mu.Unlock()

	if f.Err != nil {
		return nil, f.Err
	}
	if f.Nil {
		return nil, nil
	}
	return &stt.Result{Transcript: f.Transcript, Confidence: 0.9, Provider: f.Name()}, nil
}

// Requests returns a copy of the recorded requests.
func (f *FakeProvider) Requests() []stt.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]stt.Request(nil), f.requests...)
}

// FakeConverter writes Output to the destination path, or fails with Err.
type FakeConverter struct {
	Output []byte
	Err    error
	// WritePartial leaves a partial output file behind before failing.
	WritePartial bool

	mu    sync.Mutex
	calls [][2]string
}

func (f *FakeConverter) Convert(_ context.Context, in, out string) error {
	f.mu.Lock()
	f.calls = append(f.calls, [2]string{in, out})
	f.mu.Unlock()

	if f.Err != nil {
		if f.WritePartial {
			_ = os.WriteFile(out, []byte("partial"), 0o600)
		}
		return f.Err
	}
	data := f.Output
	if data == nil {
		data = []byte("RIFF\x00\x00\x00\x00WAVE")
	}
	return os.WriteFile(out, data, 0o600)
}

// Calls returns the (in, out) pairs Convert was called with.
func (f *FakeConverter) Calls() [][2]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][2]string(nil), f.calls...)
}

// CountFiles returns the number of entries in dir, or -1 if it can't be read.
func CountFiles(dir string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return -1
	}
	return len(entries)
}
