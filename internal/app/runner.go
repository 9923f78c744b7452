package app

import (
	"bytes"
	"context"
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/samvad-hq/jsonfetch/internal/config"
	"github.com/samvad-hq/jsonfetch/internal/logger"
	"github.com/samvad-hq/jsonfetch/internal/output"
	"github.com/samvad-hq/jsonfetch/internal/storage"
	"github.com/samvad-hq/jsonfetch/pkg/endpoints"
	"github.com/samvad-hq/jsonfetch/pkg/fetcher"
	"github.com/samvad-hq/jsonfetch/pkg/httpclient"
	"github.com/samvad-hq/jsonfetch/pkg/sinks"
)

// Runner fetches every endpoint in order and prints the documents once all of them succeeded.
// Successful documents are then archived and sent to sinks; those steps never fail the run.
type Runner struct {
	cfg       *config.Config
	client    httpclient.Client
	fetcher   *fetcher.Fetcher
	endpoints []endpoints.Endpoint
	store     storage.Store
	sinks     *sinks.Set
	log       logger.Logger
}

// Option overrides a Runner dependency.
type Option func(*Runner)

// WithHTTPClient replaces the shared resty client.
func WithHTTPClient(c httpclient.Client) Option {
	return func(r *Runner) { r.client = c }
}

// WithEndpoints replaces the fixed endpoint list. Used by tests.
func WithEndpoints(eps []endpoints.Endpoint) Option {
	return func(r *Runner) { r.endpoints = append([]endpoints.Endpoint(nil), eps...) }
}

// WithStore replaces the configured snapshot store.
func WithStore(s storage.Store) Option {
	return func(r *Runner) { r.store = s }
}

// WithSinks replaces the sinks opened from sinks_file.
func WithSinks(s *sinks.Set) Option {
	return func(r *Runner) { r.sinks = s }
}

type fetchedDocument struct {
	endpoint endpoints.Endpoint
	result   fetcher.Result
	digest   string
}

// NewRunner builds a runner from config, opening storage and sinks as configured.
func NewRunner(ctx context.Context, cfg *config.Config, log logger.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if log == nil {
		log = &logger.NopLogger{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r := &Runner{cfg: cfg, log: log}
	for _, opt := range opts {
		opt(r)
	}

	if r.client == nil {
		r.client = httpclient.NewRestyClient(httpclient.Options{
			Timeout:   cfg.RequestTimeout,
			UserAgent: cfg.UserAgent,
		})
	}
	r.fetcher = fetcher.New(r.client, fetcher.Options{StrictStatus: cfg.StrictStatus})

	if r.endpoints == nil {
		r.endpoints = endpoints.All()
	}

	if r.store == nil {
		store, err := storage.NewStore(cfg.StorageType, cfg.BBoltPath, storage.Options{
			TTL:             cfg.StorageTTL,
			CleanupInterval: cfg.StorageCleanupInterval,
		})
		if err != nil {
			return nil, fmt.Errorf("init storage: %w", err)
		}
		r.store = store
		log.DebugObj("storage initialized", "storage_config", map[string]any{
			"type":                     cfg.StorageType,
			"path":                     cfg.BBoltPath,
			"ttl_seconds":              int(cfg.StorageTTL.Seconds()),
			"cleanup_interval_seconds": int(cfg.StorageCleanupInterval.Seconds()),
		})
	}

	if r.sinks == nil {
		set, err := sinks.Open(ctx, cfg.SinksFile)
		if err != nil {
			r.closeStore()
			return nil, fmt.Errorf("open sinks: %w", err)
		}
		r.sinks = set
		if set.Len() > 0 {
			log.InfoObj("sinks opened", "sinks_meta", map[string]any{
				"file": cfg.SinksFile,
				"ids":  set.IDs(),
			})
		}
	}

	return r, nil
}

// Run fetches all endpoints sequentially and writes the pretty-printed documents to out.
// The first failure aborts the run; nothing is written in that case.
func (r *Runner) Run(ctx context.Context, out io.Writer) error {
	if r == nil || r.fetcher == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.close()

	docs := make([]fetchedDocument, 0, len(r.endpoints))
	for _, ep := range r.endpoints {
		start := time.Now()
		res, err := r.fetcher.Fetch(ctx, ep.URL)
		if err != nil {
			// main prints the error itself; keep stderr to that single line by default
			r.log.DebugObj("endpoint fetch failed", "fetch_error", map[string]any{
				"endpoint_id": ep.ID,
				"url":         ep.URL,
				"kind":        string(fetcher.KindOf(err)),
				"error":       err.Error(),
			})
			return fmt.Errorf("fetch %s: %w", ep.ID, err)
		}
		r.log.InfoObj("endpoint fetched", "fetch_result", map[string]any{
			"endpoint_id": ep.ID,
			"status_code": res.StatusCode,
			"bytes":       len(res.Body),
			"elapsed_ms":  time.Since(start).Milliseconds(),
		})
		docs = append(docs, fetchedDocument{endpoint: ep, result: res, digest: digestBody(res.Body)})
	}

	values := make([]any, 0, len(docs))
	for _, d := range docs {
		values = append(values, d.result.Value)
	}
	var buf bytes.Buffer
	if err := output.Pretty(&buf, values...); err != nil {
		return fmt.Errorf("print documents: %w", err)
	}
	if _, err := out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("write documents: %w", err)
	}

	r.archive(docs)
	r.send(ctx, docs)
	return nil
}

// archive records a snapshot per endpoint and logs whether the upstream document changed.
func (r *Runner) archive(docs []fetchedDocument) {
	for _, d := range docs {
		digest := d.digest

		prev, found, err := r.store.Previous(d.endpoint.ID)
		if err != nil {
			r.log.WarnObj("snapshot lookup failed", "storage_error", map[string]any{
				"endpoint_id": d.endpoint.ID,
				"error":       err.Error(),
			})
		} else if found {
			r.log.InfoObj("snapshot compared", "snapshot_diff", map[string]any{
				"endpoint_id":    d.endpoint.ID,
				"changed":        prev.Digest != digest,
				"previous_fetch": prev.FetchedAt,
			})
		}

		snap := storage.Snapshot{
			EndpointID: d.endpoint.ID,
			URL:        d.result.URL,
			StatusCode: d.result.StatusCode,
			Digest:     digest,
			FetchedAt:  time.Now().UTC(),
			Body:       d.result.Body,
		}
		if err := r.store.Record(snap); err != nil {
			r.log.WarnObj("snapshot record failed", "storage_error", map[string]any{
				"endpoint_id": d.endpoint.ID,
				"error":       err.Error(),
			})
		}
	}
}

func (r *Runner) send(ctx context.Context, docs []fetchedDocument) {
	if r.sinks.Len() == 0 {
		return
	}
	for _, d := range docs {
		delivered, err := r.sinks.Send(ctx, sinks.Document{
			EndpointID: d.endpoint.ID,
			URL:        d.result.URL,
			StatusCode: d.result.StatusCode,
			Digest:     d.digest,
			Body:       d.result.Body,
		})
		if err != nil {
			r.log.WarnObj("document delivery failed", "sink_error", map[string]any{
				"endpoint_id": d.endpoint.ID,
				"delivered":   delivered,
				"error":       err.Error(),
			})
			continue
		}
		r.log.DebugObj("document delivered", "sink_result", map[string]any{
			"endpoint_id": d.endpoint.ID,
			"delivered":   delivered,
		})
	}
}

func (r *Runner) close() {
	r.closeStore()
	if err := r.sinks.Close(); err != nil {
		r.log.WarnObj("sinks close failed", "error", err)
	}
}

// closeStore safely closes the storage backend, logging any errors encountered.
func (r *Runner) closeStore() {
	if r == nil || r.store == nil {
		return
	}
	if err := r.store.Close(); err != nil {
		r.log.WarnObj("storage close failed", "error", err)
	}
}

func digestBody(body []byte) string {
	sum := sha1.Sum(body)
	return hex.EncodeToString(sum[:])
}
