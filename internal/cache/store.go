package cache

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// Package cache persists provider snapshots as JSON files under a media root and
// decides freshness from file modification times.

const fileExt = ".json"

var (
	// ErrEmptyDocument is returned when a write is attempted with an empty or falsy document.
	ErrEmptyDocument = errors.New("refusing to cache empty document")
	// ErrRootMissing means the media root disappeared after start-up.
	ErrRootMissing = errors.New("cache root directory does not exist")
)

// Store is a file-backed snapshot store. Keys are slash-separated logical names
// ("country", "weather/mariehamn_ax") mapped to <root>/<key>.json.
type Store struct {
	fs   afero.Fs
	root string
	now  func() time.Time

	mu    sync.Mutex
	areas map[string]struct{}
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for staleness checks.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore creates the media root if needed. A root that cannot be created is a fatal configuration error.
func NewStore(fsys afero.Fs, root string, opts ...Option) (*Store, error) {
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, fmt.Errorf("cache root path is empty")
	}
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create cache root %s: %w", root, err)
	}

	s := &Store{
		fs:    fsys,
		root:  root,
		now:   time.Now,
		areas: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the media root directory.
func (s *Store) Root() string { return s.root }

// Key joins a sub-area and an entry name into a logical key.
func Key(area, name string) string {
	if area == "" {
		return name
	}
	return path.Join(area, name)
}

// Path maps a logical key to its file path.
func (s *Store) Path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key)+fileExt)
}

// IsStale reports whether the entry is missing or older than ttl. An age equal to ttl is still fresh.
func (s *Store) IsStale(key string, ttl time.Duration) (bool, error) {
	info, err := s.fs.Stat(s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return true, nil
		}
		return false, fmt.Errorf("stat %s: %w", key, err)
	}
	return s.now().Sub(info.ModTime()) > ttl, nil
}

// EnsureArea creates the sub-directory for area once per Store.
func (s *Store) EnsureArea(area string) error {
	area = strings.Trim(area, "/")
	if area == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.areas[area]; ok {
		return nil
	}
	if err := s.fs.MkdirAll(filepath.Join(s.root, filepath.FromSlash(area)), 0o755); err != nil {
		return fmt.Errorf("create cache area %s: %w", area, err)
	}
	s.areas[area] = struct{}{}
	return nil
}

// Write replaces the entry with doc. The document lands in a temp file in the
// same directory and is renamed over the target, so readers never see a partial file.
func (s *Store) Write(key string, doc []byte) error {
	if IsEmptyDocument(doc) {
		return fmt.Errorf("write %s: %w", key, ErrEmptyDocument)
	}
	if dir := path.Dir(key); dir != "." {
		if err := s.EnsureArea(dir); err != nil {
			return err
		}
	}

	target := s.Path(key)
	tmp, err := afero.TempFile(s.fs, filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(doc); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := s.fs.Rename(tmpName, target); err != nil {
		_ = s.fs.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", key, err)
	}
	return nil
}

// Read returns the stored document. Missing files and empty or falsy documents
// report ok=false. A vanished media root is reported as ErrRootMissing.
func (s *Store) Read(key string) ([]byte, bool, error) {
	raw, err := afero.ReadFile(s.fs, s.Path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			if exists, _ := afero.DirExists(s.fs, s.root); !exists {
				return nil, false, fmt.Errorf("read %s: %w", key, ErrRootMissing)
			}
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read %s: %w", key, err)
	}
	if IsEmptyDocument(raw) {
		return nil, false, nil
	}
	return raw, true, nil
}

// IsEmptyDocument reports whether doc carries no data: blank, null, false, 0, "", [] or {}.
func IsEmptyDocument(doc []byte) bool {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 {
		return true
	}
	switch string(trimmed) {
	case "null", "false", "0", `""`:
		return true
	}
	if len(trimmed) >= 2 {
		first, last := trimmed[0], trimmed[len(trimmed)-1]
		if (first == '[' && last == ']') || (first == '{' && last == '}') {
			return len(bytes.TrimSpace(trimmed[1:len(trimmed)-1])) == 0
		}
	}
	return false
}
