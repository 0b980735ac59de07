package upload

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^\w\-.]`)

// Scratch is a per-request working directory. Nothing is shared between
// requests; Close removes everything that was written.
type Scratch struct {
	mu     sync.Mutex
	dir    string
	closed bool
}

// NewScratch creates a fresh directory under root (os.TempDir() when empty).
func NewScratch(root string) (*Scratch, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch root: %w", err)
	}
	dir := filepath.Join(root, "genesys-"+uuid.NewString())
	if err := os.Mkdir(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create scratch dir: %w", err)
	}
	return &Scratch{dir: dir}, nil
}

// Dir returns the scratch directory path.
func (s *Scratch) Dir() string {
	return s.dir
}

// Write stores f inside the scratch directory under a sanitised name and
// returns the full path.
func (s *Scratch) Write(f UploadedFile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", fmt.Errorf("scratch dir %s already removed", s.dir)
	}
	path := filepath.Join(s.dir, SanitizeName(f.Name))
	if err := os.WriteFile(path, f.Content, 0600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Close removes the directory and its contents. Safe to call more than once.
func (s *Scratch) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return os.RemoveAll(s.dir)
}

// SanitizeName reduces a client-supplied file name to a safe base name.
func SanitizeName(name string) string {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." || base == ".." {
		return "upload"
	}
	return unsafeChars.ReplaceAllString(base, "_")
}
