// Package cache records which documents have already been processed so that
// unchanged documents are not substituted twice.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendBolt   = "bolt"
	BackendNone   = "none"
)

// Store decides whether a document needs processing.
//
// ShouldProcess is an atomic read-compare-update: an unseen key, or a key seen
// with an older modification marker, is recorded with modifiedAt and reported
// as true. Anything else leaves the record untouched and reports false.
type Store interface {
	ShouldProcess(ctx context.Context, key string, modifiedAt time.Time) (bool, error)
	// Record stores modifiedAt for key unconditionally.
	Record(ctx context.Context, key string, modifiedAt time.Time) error
	Forget(ctx context.Context, key string) error
	Len() int
	Close() error
}

// Config selects and sizes a Store.
type Config struct {
	Backend    string        `mapstructure:"backend" yaml:"backend"`
	Path       string        `mapstructure:"path" yaml:"path"`
	MaxEntries int           `mapstructure:"max_entries" yaml:"max_entries"`
	TTL        time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// DefaultConfig keeps records in memory without limits.
func DefaultConfig() Config {
	return Config{Backend: BackendMemory}
}

// New builds the store named by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemoryStore(MemoryOptions{MaxEntries: cfg.MaxEntries, TTL: cfg.TTL}), nil
	case BackendBolt:
		if cfg.Path == "" {
			return nil, fmt.Errorf("cache backend %q requires a path", cfg.Backend)
		}
		return OpenBoltStore(cfg.Path, BoltOptions{})
	case BackendNone:
		return nopStore{}, nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// nopStore processes every document.
type nopStore struct{}

func (nopStore) ShouldProcess(context.Context, string, time.Time) (bool, error) { return true, nil }
func (nopStore) Record(context.Context, string, time.Time) error               { return nil }
func (nopStore) Forget(context.Context, string) error                          { return nil }
func (nopStore) Len() int                                                      { return 0 }
func (nopStore) Close() error                                                  { return nil }
