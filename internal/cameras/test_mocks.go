package cameras

import (
	"context"
	"sync"
	"time"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/media"
)

// mockEngine is a configurable Engine for manager and query tests.
type mockEngine struct {
	typ       string
	maxAge    *time.Duration
	initDelay time.Duration
	initErr   error
	// initID overrides the ID the engine derives; empty keeps cfg.ID.
	initID func(cfg *engines.CameraConfig) string

	eventsFn     func(ctx context.Context, cams map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error)
	recordingsFn func(ctx context.Context, cams map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error)
	mediaFn      func(q *media.Query, res *media.QueryResult) []*media.ViewMedia
	metadataFn   func() *media.MediaMetadata
	caps         media.Capabilities

	mu         sync.Mutex
	eventCalls []*media.Query
}

func (e *mockEngine) Type() string                      { return e.typ }
func (e *mockEngine) QueryResultMaxAge() *time.Duration { return e.maxAge }

func (e *mockEngine) InitializeCamera(ctx context.Context, _ entities.Resolver, cfg *engines.CameraConfig) (*engines.CameraConfig, error) {
	if e.initDelay > 0 {
		time.Sleep(e.initDelay)
	}
	if e.initErr != nil {
		return nil, e.initErr
	}
	if e.initID != nil {
		cfg.ID = e.initID(cfg)
	}
	return cfg, nil
}

func (e *mockEngine) recordEventCall(q *media.Query) {
	e.mu.Lock()
	e.eventCalls = append(e.eventCalls, q)
	e.mu.Unlock()
}

func (e *mockEngine) GetEvents(ctx context.Context, cams map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	e.recordEventCall(q)
	if e.eventsFn != nil {
		return e.eventsFn(ctx, cams, q)
	}
	return media.ResultMap{q: {Type: q.Type, Engine: e.typ}}, nil
}

func (e *mockEngine) GetRecordings(ctx context.Context, cams map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	if e.recordingsFn != nil {
		return e.recordingsFn(ctx, cams, q)
	}
	return media.ResultMap{q: {Type: q.Type, Engine: e.typ}}, nil
}

func (e *mockEngine) GetRecordingSegments(ctx context.Context, cams map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	return media.ResultMap{q: {Type: q.Type, Engine: e.typ}}, nil
}

func (e *mockEngine) DefaultEventQuery(_ map[string]*engines.CameraConfig, ids []string, base *media.Query) []*media.Query {
	q := base.Clone()
	q.Type = media.QueryTypeEvent
	q.CameraIDs = ids
	return []*media.Query{q}
}

func (e *mockEngine) DefaultRecordingQuery(_ map[string]*engines.CameraConfig, ids []string, base *media.Query) []*media.Query {
	q := base.Clone()
	q.Type = media.QueryTypeRecording
	q.CameraIDs = ids
	return []*media.Query{q}
}

func (e *mockEngine) DefaultRecordingSegmentsQuery(_ map[string]*engines.CameraConfig, ids []string, base *media.Query) []*media.Query {
	q := base.Clone()
	q.Type = media.QueryTypeRecordingSegments
	q.CameraIDs = ids
	return []*media.Query{q}
}

func (e *mockEngine) MediaFromEvents(_ context.Context, _ map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	if e.mediaFn != nil {
		return e.mediaFn(q, res), nil
	}
	if items, ok := res.Payload.([]*media.ViewMedia); ok {
		return items, nil
	}
	return nil, nil
}

func (e *mockEngine) MediaFromRecordings(_ context.Context, _ map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	if items, ok := res.Payload.([]*media.ViewMedia); ok {
		return items, nil
	}
	return nil, nil
}

func (e *mockEngine) MediaMetadata(context.Context, map[string]*engines.CameraConfig) (*media.MediaMetadata, error) {
	if e.metadataFn != nil {
		return e.metadataFn(), nil
	}
	return nil, nil
}

func (e *mockEngine) CameraURL(cfg *engines.CameraConfig, _ *media.ViewMedia) string {
	return "http://" + e.typ + "/" + cfg.ID
}

func (e *mockEngine) CameraMetadata(cfg *engines.CameraConfig) *engines.CameraMetadata {
	return &engines.CameraMetadata{Title: cfg.Title, Engine: e.typ}
}

func (e *mockEngine) CameraCapabilities(*engines.CameraConfig) *media.Capabilities {
	c := e.caps
	return &c
}

func (e *mockEngine) MediaDownloadPath(_ context.Context, cfg *engines.CameraConfig, m *media.ViewMedia) (*engines.Endpoint, error) {
	return &engines.Endpoint{Path: "/" + cfg.ID + "/" + m.ID}, nil
}

func (e *mockEngine) MediaCapabilities(*media.ViewMedia) *media.MediaCapabilities {
	return &media.MediaCapabilities{}
}

func (e *mockEngine) MediaSeekTime(context.Context, map[string]*engines.CameraConfig, *media.ViewMedia, time.Time) (time.Duration, error) {
	return 0, engines.ErrUnsupported
}

func (e *mockEngine) FavoriteMedia(context.Context, *engines.CameraConfig, *media.ViewMedia, bool) error {
	return nil
}

// mockFactory resolves engine types from cfg.Engine and hands out the
// test's pre-built instances.
type mockFactory struct {
	engines map[string]engines.Engine
}

func (f *mockFactory) DetectEngineType(_ context.Context, cfg *engines.CameraConfig) (string, error) {
	if cfg.Engine == "" {
		return "", engines.ErrNoEngine
	}
	return cfg.Engine, nil
}

func (f *mockFactory) CreateEngine(typ string) (engines.Engine, error) {
	eng, ok := f.engines[typ]
	if !ok {
		return nil, engines.ErrNoEngine
	}
	return eng, nil
}

// mockTimelineCache is an in-memory TimelineCache.
type mockTimelineCache struct {
	mu      sync.Mutex
	items   map[string][]*media.ViewMedia
	stored  map[string]time.Time
	setKeys []string
}

func newMockTimelineCache() *mockTimelineCache {
	return &mockTimelineCache{
		items:  make(map[string][]*media.ViewMedia),
		stored: make(map[string]time.Time),
	}
}

func (c *mockTimelineCache) Get(_ context.Context, key string) ([]*media.ViewMedia, time.Time, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.items[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return items, c.stored[key], true
}

func (c *mockTimelineCache) Set(_ context.Context, key string, items []*media.ViewMedia, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = items
	c.stored[key] = time.Now()
	c.setKeys = append(c.setKeys, key)
	return nil
}

// mockNotifier records every discovered batch.
type mockNotifier struct {
	mu      sync.Mutex
	batches [][]*media.ViewMedia
}

func (n *mockNotifier) MediaDiscovered(items []*media.ViewMedia) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.batches = append(n.batches, items)
}

func (n *mockNotifier) batchCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.batches)
}

func camCfg(id, engine string) *engines.CameraConfig {
	return &engines.CameraConfig{ID: id, Engine: engine, Title: id}
}

func dptr(d time.Duration) *time.Duration { return &d }
