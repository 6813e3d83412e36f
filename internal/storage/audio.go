package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Stager owns a private directory where uploads live for the duration of
// a single request.
type Stager struct {
	dir string
}

// NewStager creates a private (0700) directory under parent. An empty
// parent means the OS temp directory.
func NewStager(parent string) (*Stager, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create temp parent %s: %w", parent, err)
		}
	}
	dir, err := os.MkdirTemp(parent, "scribe-")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Stager{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string { return s.dir }

// Close removes the staging directory and anything left in it.
func (s *Stager) Close() error {
	return os.RemoveAll(s.dir)
}

// NewSession starts tracking files for one request.
func (s *Stager) NewSession() *Session {
	return &Session{dir: s.dir}
}

// Session records every path it creates so Cleanup can remove them all.
// Sessions are not shared between requests.
type Session struct {
	dir   string
	mu    sync.Mutex
	paths []string
}

// Stage writes r to a new file named <uuid><ext> and returns its path and
// the number of bytes written. A partially written file is removed.
func (s *Session) Stage(r io.Reader, ext string) (string, int64, error) {
	path := s.track(ext)

	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return "", 0, fmt.Errorf("failed to create staged file: %w", err)
	}

	n, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = Remove(path)
		return "", 0, fmt.Errorf("failed to write staged file: %w", err)
	}
	return path, n, nil
}

// Reserve returns a fresh tracked path with ext for an external tool to
// write to. Nothing is created on disk.
func (s *Session) Reserve(ext string) string {
	return s.track(ext)
}

// Paths returns the tracked paths in creation order.
func (s *Session) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Cleanup removes every tracked path. It may be called any number of times.
func (s *Session) Cleanup() error {
	var errs []error
	for _, p := range s.Paths() {
		if err := Remove(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s *Session) track(ext string) string {
	path := filepath.Join(s.dir, uuid.NewString()+strings.ToLower(ext))
	s.mu.Lock()
	s.paths = append(s.paths, path)
	s.mu.Unlock()
	return path
}

// Remove deletes path. A path that does not exist is not an error.
func Remove(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}
