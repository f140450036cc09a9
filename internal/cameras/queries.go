package cameras

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"
	"github.com/technosupport/ts-media-hub/internal/metrics"
)

// ExtendChunkSize is added to a query's limit on every extension.
const ExtendChunkSize = 50

type Direction string

const (
	DirectionEarlier Direction = "earlier"
	DirectionLater   Direction = "later"
)

// ExtendedResult is the outcome of a successful timeline extension: the
// rewritten queries and the merged media set.
type ExtendedResult struct {
	Queries []*media.Query     `json:"queries"`
	Media   []*media.ViewMedia `json:"media"`
}

// GenerateDefaultEventQueries asks each owning engine for its default
// event queries over the given cameras (all cameras when ids is empty).
func (m *Manager) GenerateDefaultEventQueries(cameraIDs []string, base *media.Query) ([]*media.Query, error) {
	return m.generateDefaultQueries(cameraIDs, base, func(eng engines.Engine, cfgs map[string]*engines.CameraConfig, ids []string) []*media.Query {
		return eng.DefaultEventQuery(cfgs, ids, base)
	})
}

func (m *Manager) GenerateDefaultRecordingQueries(cameraIDs []string, base *media.Query) ([]*media.Query, error) {
	return m.generateDefaultQueries(cameraIDs, base, func(eng engines.Engine, cfgs map[string]*engines.CameraConfig, ids []string) []*media.Query {
		return eng.DefaultRecordingQuery(cfgs, ids, base)
	})
}

func (m *Manager) GenerateDefaultRecordingSegmentsQueries(cameraIDs []string, base *media.Query) ([]*media.Query, error) {
	return m.generateDefaultQueries(cameraIDs, base, func(eng engines.Engine, cfgs map[string]*engines.CameraConfig, ids []string) []*media.Query {
		return eng.DefaultRecordingSegmentsQuery(cfgs, ids, base)
	})
}

func (m *Manager) generateDefaultQueries(cameraIDs []string, base *media.Query,
	gen func(engines.Engine, map[string]*engines.CameraConfig, []string) []*media.Query) ([]*media.Query, error) {

	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	if len(cameraIDs) == 0 {
		cameraIDs = store.GetCameraIDs()
	}

	var out []*media.Query
	for eng, ids := range store.GetEnginesForCameraIDs(cameraIDs) {
		out = append(out, gen(eng, store.configsForIDs(ids), ids)...)
	}
	return out, nil
}

// GetEvents, GetRecordings and GetRecordingSegments all route through the
// same generic fan-out; the queries carry their own type tag.

func (m *Manager) GetEvents(ctx context.Context, queries []*media.Query) (media.ResultMap, error) {
	return m.handleQueries(ctx, queries)
}

func (m *Manager) GetRecordings(ctx context.Context, queries []*media.Query) (media.ResultMap, error) {
	return m.handleQueries(ctx, queries)
}

func (m *Manager) GetRecordingSegments(ctx context.Context, queries []*media.Query) (media.ResultMap, error) {
	return m.handleQueries(ctx, queries)
}

// handleQueries fans each query out to the engines owning its cameras and
// merges the fragments. A query whose cameras are owned by nobody simply
// contributes nothing. Fragment failures are dropped and logged; queries
// across heterogeneous backends are best-effort.
func (m *Manager) handleQueries(ctx context.Context, queries []*media.Query) (media.ResultMap, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	acc := make(media.ResultMap)
	var accMu sync.Mutex
	var wg sync.WaitGroup

	for _, q := range queries {
		metrics.QueriesTotal.WithLabelValues(string(q.Type)).Inc()

		for eng, ids := range store.GetEnginesForCameraIDs(q.CameraIDs) {
			// Scope the query to the engine's subset. The caller's query
			// object is dispatched as-is when one engine owns everything,
			// preserving the original key association.
			scoped := q
			if len(ids) != len(q.CameraIDs) {
				scoped = q.Clone()
				scoped.CameraIDs = ids
			}

			wg.Add(1)
			go func(eng engines.Engine, scoped *media.Query) {
				defer wg.Done()

				frag, err := m.dispatch(ctx, store, eng, scoped)
				if err != nil {
					log.Printf("[WARN] Camera Manager: %s fragment failed on engine %s: %v", scoped.Type, eng.Type(), err)
					metrics.QueryFragmentsTotal.WithLabelValues(eng.Type(), "error").Inc()
					return
				}
				if len(frag) == 0 {
					metrics.QueryFragmentsTotal.WithLabelValues(eng.Type(), "empty").Inc()
					return
				}
				metrics.QueryFragmentsTotal.WithLabelValues(eng.Type(), "ok").Inc()

				accMu.Lock()
				for fq, fr := range frag {
					acc[fq] = fr
				}
				accMu.Unlock()
			}(eng, scoped)
		}
	}
	wg.Wait()

	elapsed := time.Since(start)
	cached := 0
	for _, r := range acc {
		if r.Cached {
			cached++
			metrics.QueryCacheHitsTotal.WithLabelValues("engine").Inc()
		}
	}
	metrics.QueryDuration.Observe(elapsed.Seconds())
	log.Printf("[DEBUG] Camera Manager: %d queries -> %d results (%d cached) in %v",
		len(queries), len(acc), cached, elapsed)

	return acc, nil
}

// dispatch routes a query to the engine method matching its type tag.
func (m *Manager) dispatch(ctx context.Context, store *Store, eng engines.Engine, q *media.Query) (media.ResultMap, error) {
	cfgs := store.configsForIDs(q.CameraIDs)
	switch q.Type {
	case media.QueryTypeEvent:
		return eng.GetEvents(ctx, cfgs, q)
	case media.QueryTypeRecording:
		return eng.GetRecordings(ctx, cfgs, q)
	case media.QueryTypeRecordingSegments:
		return eng.GetRecordingSegments(ctx, cfgs, q)
	}
	return nil, fmt.Errorf("unknown query type %q", q.Type)
}

// ExecuteMediaQueries runs the queries, converts results to media and
// returns the deduplicated, start-time-ordered timeline.
func (m *Manager) ExecuteMediaQueries(ctx context.Context, queries []*media.Query) ([]*media.ViewMedia, error) {
	key := hashQueries(queries)
	if m.cache != nil {
		if items, storedAt, ok := m.cache.Get(ctx, key); ok && m.AreMediaQueriesResultsFresh(queries, storedAt) {
			metrics.QueryCacheHitsTotal.WithLabelValues("redis").Inc()
			return items, nil
		}
	}

	items, err := m.executeAndConvert(ctx, queries)
	if err != nil {
		return nil, err
	}
	merged := media.MergeTimeline(nil, items)

	if m.notifier != nil {
		m.notifier.MediaDiscovered(merged)
	}
	if m.cache != nil {
		if err := m.cache.Set(ctx, key, merged, m.cacheTTL(queries)); err != nil {
			log.Printf("[WARN] Camera Manager: timeline cache write failed: %v", err)
		}
	}
	return merged, nil
}

// ExtendMediaQueries continues an existing timeline in the given
// direction. Returns (nil, nil) when the new chunk is empty, meaning no
// more data; the caller keeps its prior result.
func (m *Manager) ExtendMediaQueries(ctx context.Context, queries []*media.Query, existing []*media.ViewMedia, dir Direction) (*ExtendedResult, error) {
	var pivot *time.Time
	switch dir {
	case DirectionLater:
		pivot = media.NewestStart(existing)
	case DirectionEarlier:
		pivot = media.OldestStart(existing)
	default:
		return nil, fmt.Errorf("unknown extension direction %q", dir)
	}

	rewritten := make([]*media.Query, 0, len(queries))
	for _, q := range queries {
		nq := q.Clone()
		if pivot != nil {
			t := *pivot
			if dir == DirectionLater {
				nq.Start = &t
			} else {
				nq.End = &t
			}
		}
		if nq.Limit <= 0 {
			nq.Limit = ExtendChunkSize
		} else {
			nq.Limit += ExtendChunkSize
		}
		rewritten = append(rewritten, nq)
	}

	chunk, err := m.executeAndConvert(ctx, rewritten)
	if err != nil {
		return nil, err
	}
	if len(chunk) == 0 {
		return nil, nil
	}

	merged := media.MergeTimeline(existing, chunk)
	if m.notifier != nil {
		m.notifier.MediaDiscovered(merged)
	}
	return &ExtendedResult{Queries: rewritten, Media: merged}, nil
}

func (m *Manager) executeAndConvert(ctx context.Context, queries []*media.Query) ([]*media.ViewMedia, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	results, err := m.handleQueries(ctx, queries)
	if err != nil {
		return nil, err
	}

	var out []*media.ViewMedia
	for q, res := range results {
		eng, ok := m.lookupEngineByType(res.Engine)
		if !ok {
			continue
		}
		cfgs := store.configsForIDs(q.CameraIDs)

		var items []*media.ViewMedia
		switch {
		case q.Type == media.QueryTypeEvent && res.Type == media.QueryTypeEvent:
			items, err = eng.MediaFromEvents(ctx, cfgs, q, res)
		case q.Type == media.QueryTypeRecording && res.Type == media.QueryTypeRecording:
			items, err = eng.MediaFromRecordings(ctx, cfgs, q, res)
		default:
			// Segment results carry no displayable media.
			continue
		}
		if err != nil {
			log.Printf("[WARN] Camera Manager: media conversion failed on engine %s: %v", res.Engine, err)
			continue
		}
		out = append(out, items...)
	}
	return out, nil
}

// AreMediaQueriesResultsFresh reports whether results computed at
// resultsTimestamp are still valid for every engine the queries imply.
// One stale engine invalidates the whole batch.
func (m *Manager) AreMediaQueriesResultsFresh(queries []*media.Query, resultsTimestamp time.Time) bool {
	store, err := m.getStore()
	if err != nil {
		return false
	}

	now := time.Now()
	for _, q := range queries {
		for eng := range store.GetEnginesForCameraIDs(q.CameraIDs) {
			if age := eng.QueryResultMaxAge(); age != nil && resultsTimestamp.Add(*age).Before(now) {
				return false
			}
		}
	}
	return true
}

// cacheTTL is the tightest max result age among the engines the queries
// touch. Zero means no expiry (only unbounded engines contribute).
func (m *Manager) cacheTTL(queries []*media.Query) time.Duration {
	store, err := m.getStore()
	if err != nil {
		return 0
	}

	var ttl time.Duration
	for _, q := range queries {
		for eng := range store.GetEnginesForCameraIDs(q.CameraIDs) {
			if age := eng.QueryResultMaxAge(); age != nil && (ttl == 0 || *age < ttl) {
				ttl = *age
			}
		}
	}
	return ttl
}

// hashQueries builds a deterministic cache key for a query set.
func hashQueries(queries []*media.Query) string {
	h := sha256.New()
	for _, q := range queries {
		b, _ := json.Marshal(q)
		h.Write(b)
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
