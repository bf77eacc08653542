package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage remembers which headlines were already announced so repeated
// news refreshes only publish new articles.

// Tracker records announced headline ids with a retention window.
type Tracker interface {
	Close() error
	SeenHeadline(id string) (bool, error)
	MarkHeadline(id string) error
}

// Options controls retention for concrete trackers.
type Options struct {
	HeadlineTTL     time.Duration
	CleanupInterval time.Duration
	Now             func() time.Time
}

const (
	defaultHeadlineTTL     = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewTracker opens the configured backend. "none" (or empty) yields a tracker
// that has seen nothing, so every headline is announced.
func NewTracker(typ, path string, opts Options) (Tracker, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopTracker{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.HeadlineTTL <= 0 {
		opts.HeadlineTTL = defaultHeadlineTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return opts
}

type noopTracker struct{}

func (noopTracker) Close() error                      { return nil }
func (noopTracker) SeenHeadline(string) (bool, error) { return false, nil }
func (noopTracker) MarkHeadline(string) error         { return nil }
