// Package cache keeps fetched snapshots for a fixed time so repeated page
// loads do not hit the spreadsheet API. Only successful fetches are kept.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/harrisonrobin/taskboard/pkg/metrics"
	"github.com/harrisonrobin/taskboard/pkg/model"
	"github.com/harrisonrobin/taskboard/pkg/pipeline"
)

const keyPrefix = "taskboard:snapshot:"

// Backend stores snapshots by key.
type Backend interface {
	Get(ctx context.Context, key string) (*model.RawTable, bool, error)
	Set(ctx context.Context, key string, table *model.RawTable, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Source wraps another pipeline.Source with a snapshot cache.
type Source struct {
	inner   pipeline.Source
	backend Backend
	ttl     time.Duration
	logger  *zap.Logger

	group singleflight.Group

	mu   sync.Mutex
	keys map[string]struct{}
	// keys deleted on every Invalidate, whether or not this process stored them
	pinned map[string]struct{}
	// bumped on invalidation; fetches started under an older gen are not stored
	gen uint64
}

// New wraps inner. A nil backend means an in-process memory backend; a
// non-positive ttl disables caching.
func New(inner pipeline.Source, backend Backend, ttl time.Duration, logger *zap.Logger) *Source {
	if backend == nil {
		backend = NewMemory()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{
		inner:   inner,
		backend: backend,
		ttl:     ttl,
		logger:  logger,
		keys:    map[string]struct{}{},
		pinned:  map[string]struct{}{},
	}
}

// Pin marks a tab that Invalidate always clears. With a shared backend the
// snapshot may have been stored by another process.
func (s *Source) Pin(spreadsheetID, tableName string) {
	s.mu.Lock()
	s.pinned[Key(spreadsheetID, tableName)] = struct{}{}
	s.mu.Unlock()
}

// Key is the backend key for one tab.
func Key(spreadsheetID, tableName string) string {
	return keyPrefix + spreadsheetID + ":" + tableName
}

// FetchRows serves from the cache when a fresh snapshot exists. Concurrent
// misses for the same tab share one upstream fetch. Backend errors fall
// through to the inner source.
func (s *Source) FetchRows(ctx context.Context, spreadsheetID, tableName string) (*model.RawTable, error) {
	if s.ttl <= 0 {
		return s.inner.FetchRows(ctx, spreadsheetID, tableName)
	}

	key := Key(spreadsheetID, tableName)
	table, ok, err := s.backend.Get(ctx, key)
	switch {
	case err != nil:
		metrics.CacheEvents.WithLabelValues(metrics.CacheError).Inc()
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	case ok:
		metrics.CacheEvents.WithLabelValues(metrics.CacheHit).Inc()
		return table, nil
	}
	metrics.CacheEvents.WithLabelValues(metrics.CacheMiss).Inc()

	v, err, _ := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		gen := s.gen
		s.mu.Unlock()

		table, err := s.inner.FetchRows(ctx, spreadsheetID, tableName)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		stale := gen != s.gen
		s.mu.Unlock()
		if stale {
			s.logger.Debug("snapshot invalidated during fetch, not stored", zap.String("key", key))
			return table, nil
		}
		if err := s.backend.Set(ctx, key, table, s.ttl); err != nil {
			metrics.CacheEvents.WithLabelValues(metrics.CacheError).Inc()
			s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
		} else {
			s.mu.Lock()
			s.keys[key] = struct{}{}
			s.mu.Unlock()
		}
		return table, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.RawTable), nil
}

// Invalidate drops every snapshot this Source has stored plus the pinned
// tabs, so the next FetchRows goes to the inner source. Fetches already in
// flight are not joined by later callers and their results are not stored.
func (s *Source) Invalidate(ctx context.Context) error {
	s.mu.Lock()
	keys := make([]string, 0, len(s.keys)+len(s.pinned))
	for k := range s.keys {
		keys = append(keys, k)
	}
	for k := range s.pinned {
		if _, ok := s.keys[k]; !ok {
			keys = append(keys, k)
		}
	}
	s.keys = map[string]struct{}{}
	s.gen++
	s.mu.Unlock()

	for _, k := range keys {
		s.group.Forget(k)
	}

	metrics.CacheEvents.WithLabelValues(metrics.CacheInvalidate).Inc()
	if len(keys) == 0 {
		return nil
	}
	if err := s.backend.Delete(ctx, keys...); err != nil {
		metrics.CacheEvents.WithLabelValues(metrics.CacheError).Inc()
		return err
	}
	s.logger.Debug("cache invalidated", zap.Int("keys", len(keys)))
	return nil
}

// InvalidateTable drops the snapshot of one tab.
func (s *Source) InvalidateTable(ctx context.Context, spreadsheetID, tableName string) error {
	key := Key(spreadsheetID, tableName)
	s.mu.Lock()
	delete(s.keys, key)
	s.gen++
	s.mu.Unlock()
	s.group.Forget(key)

	metrics.CacheEvents.WithLabelValues(metrics.CacheInvalidate).Inc()
	return s.backend.Delete(ctx, key)
}
