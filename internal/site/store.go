package site

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// Default document names under the site root
const (
	DefaultBlogFile      = "ghost-blog.html"
	DefaultGalleryFile   = "ghost-gallery.html"
	DefaultDashboardFile = "index.html"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidName      = errors.New("invalid document name")
)

// Layout names the three documents the updater mutates
type Layout struct {
	Blog      string
	Gallery   string
	Dashboard string
}

// DefaultLayout returns the stock file names
func DefaultLayout() Layout {
	return Layout{
		Blog:      DefaultBlogFile,
		Gallery:   DefaultGalleryFile,
		Dashboard: DefaultDashboardFile,
	}
}

// Store reads and rewrites whole documents under a root directory.
// There is no locking; concurrent writers race and the last one wins.
type Store struct {
	root   string
	layout Layout
}

// NewStore creates a store rooted at root
func NewStore(root string, layout Layout) *Store {
	return &Store{root: root, layout: layout}
}

// Root returns the site root directory
func (s *Store) Root() string {
	return s.root
}

// Layout returns the configured document names
func (s *Store) Layout() Layout {
	return s.layout
}

// Path resolves a document name against the root.
// Names must stay inside the root.
func (s *Store) Path(name string) (string, error) {
	if name == "" || filepath.IsAbs(name) {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	clean := filepath.Clean(name)
	if clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q escapes site root", ErrInvalidName, name)
	}
	return filepath.Join(s.root, clean), nil
}

// Read returns the full text of a document
func (s *Store) Read(name string) (string, error) {
	path, err := s.Path(name)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces a document in one step: the new text goes to a temp file that is renamed over the old one
func (s *Store) Write(name, content string) error {
	path, err := s.Path(name)
	if err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader([]byte(content))); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
