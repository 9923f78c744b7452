package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage keeps the last fetched document per endpoint.

// Snapshot is the archived outcome of one endpoint fetch.
type Snapshot struct {
	EndpointID string    `json:"endpoint_id"`
	URL        string    `json:"url"`
	StatusCode int       `json:"status_code"`
	Digest     string    `json:"digest"`
	FetchedAt  time.Time `json:"fetched_at"`
	Body       []byte    `json:"body"`
}

// Store archives snapshots keyed by endpoint id.
type Store interface {
	Close() error
	Previous(endpointID string) (Snapshot, bool, error)
	Record(s Snapshot) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	TTL             time.Duration
	CleanupInterval time.Duration
}

const (
	defaultTTL             = 7 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
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
	if opts.TTL <= 0 {
		opts.TTL = defaultTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                            { return nil }
func (noopStore) Previous(string) (Snapshot, bool, error) { return Snapshot{}, false, nil }
func (noopStore) Record(Snapshot) error                   { return nil }
