package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ErrBadPath is returned for names that would escape the media root.
var ErrBadPath = errors.New("invalid media path")

// Local keeps uploaded media under a root directory. Names are slash
// separated paths relative to the root, e.g. "pitch_files/<id>/<uuid>.pdf".
type Local struct {
	root string
}

// NewLocal creates the root directory if needed and returns a Local store.
func NewLocal(root string) (*Local, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating media dir: %w", err)
	}
	return &Local{root: root}, nil
}

func (l *Local) resolve(name string) (string, error) {
	rel := filepath.FromSlash(name)
	if name == "" || !filepath.IsLocal(rel) {
		return "", fmt.Errorf("%w: %q", ErrBadPath, name)
	}
	return filepath.Join(l.root, rel), nil
}

// Save writes r to name, replacing any existing file, and returns the
// number of bytes written.
func (l *Local) Save(name string, r io.Reader) (int64, error) {
	path, err := l.resolve(name)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("creating media subdir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("creating media file: %w", err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return 0, fmt.Errorf("writing media file: %w", err)
	}
	return n, nil
}

// Open opens name for reading.
func (l *Local) Open(name string) (io.ReadSeekCloser, error) {
	path, err := l.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening media file: %w", err)
	}
	return f, nil
}

// Remove deletes name. Missing files are not an error.
func (l *Local) Remove(name string) error {
	path, err := l.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing media file: %w", err)
	}
	return nil
}
