package cameras

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/media"
	"github.com/technosupport/ts-media-hub/internal/metrics"
)

// EngineFactory resolves and instantiates engines. Created engines are
// cached by the Manager so every camera of a type shares one instance.
type EngineFactory interface {
	DetectEngineType(ctx context.Context, cfg *engines.CameraConfig) (string, error)
	CreateEngine(typ string) (engines.Engine, error)
}

// RegistryFactory is the default factory backed by the engine registry.
type RegistryFactory struct{}

func (RegistryFactory) DetectEngineType(ctx context.Context, cfg *engines.CameraConfig) (string, error) {
	return engines.DetectEngineType(ctx, cfg)
}

func (RegistryFactory) CreateEngine(typ string) (engines.Engine, error) {
	return engines.Create(typ)
}

// TimelineCache stores merged media timelines with their computation time.
type TimelineCache interface {
	Get(ctx context.Context, key string) ([]*media.ViewMedia, time.Time, bool)
	Set(ctx context.Context, key string, items []*media.ViewMedia, ttl time.Duration) error
}

// MediaNotifier receives newly discovered media items.
type MediaNotifier interface {
	MediaDiscovered(items []*media.ViewMedia)
}

// Manager is the public facade: it initializes cameras, fans queries out
// to owning engines, merges and converts results, and answers capability,
// metadata and freshness questions.
type Manager struct {
	factory  EngineFactory
	cache    TimelineCache // optional
	notifier MediaNotifier // optional

	mu            sync.RWMutex
	store         *Store
	enginesByType map[string]engines.Engine
	initialized   bool
}

// NewManager creates a Manager. cache and notifier may be nil.
func NewManager(factory EngineFactory, cache TimelineCache, notifier MediaNotifier) *Manager {
	return &Manager{
		factory:       factory,
		cache:         cache,
		notifier:      notifier,
		store:         NewStore(),
		enginesByType: make(map[string]engines.Engine),
	}
}

func (m *Manager) IsInitialized() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.initialized
}

func (m *Manager) getStore() (*Store, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.initialized {
		return nil, ErrNotInitialized
	}
	return m.store, nil
}

func (m *Manager) engineByType(typ string) (engines.Engine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if eng, ok := m.enginesByType[typ]; ok {
		return eng, nil
	}
	eng, err := m.factory.CreateEngine(typ)
	if err != nil {
		return nil, err
	}
	m.enginesByType[typ] = eng
	return eng, nil
}

func (m *Manager) lookupEngineByType(typ string) (engines.Engine, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	eng, ok := m.enginesByType[typ]
	return eng, ok
}

type initResult struct {
	cfg *engines.CameraConfig
	eng engines.Engine
	err error
}

// InitializeCameras initializes all cameras concurrently and applies the
// results in input order. Any failure aborts the whole batch and leaves
// the previous registry untouched.
func (m *Manager) InitializeCameras(ctx context.Context, resolver entities.Resolver, configs []*engines.CameraConfig) error {
	if len(configs) == 0 {
		return ErrNoCameras
	}

	// One bulk warm-up covers every camera that needs trigger detection.
	if resolver != nil && anyNeedsTriggerDetection(configs) {
		if warmer, ok := resolver.(interface{ Warm(context.Context) error }); ok {
			if err := warmer.Warm(ctx); err != nil {
				log.Printf("[WARN] Camera Manager: entity cache warm-up failed: %v", err)
			}
		}
	}

	results := make([]initResult, len(configs))
	var wg sync.WaitGroup
	for i, cfg := range configs {
		wg.Add(1)
		go func(i int, cfg *engines.CameraConfig) {
			defer wg.Done()

			typ, err := m.factory.DetectEngineType(ctx, cfg)
			if err != nil {
				results[i] = initResult{err: newInitError(cfg, err)}
				return
			}
			eng, err := m.engineByType(typ)
			if err != nil {
				results[i] = initResult{err: newInitError(cfg, err)}
				return
			}
			// Engines get a deep copy to normalize; the input config stays
			// pristine for error reporting.
			out, err := eng.InitializeCamera(ctx, resolver, cfg.Clone())
			if err != nil {
				results[i] = initResult{err: newInitError(cfg, err)}
				return
			}
			results[i] = initResult{cfg: out, eng: eng}
		}(i, cfg)
	}
	wg.Wait()

	// Apply in input order into a fresh store; swap only on full success.
	next := NewStore()
	for i, r := range results {
		if r.err != nil {
			return r.err
		}
		if r.cfg.ID == "" {
			return newInitError(configs[i], ErrMissingCameraID)
		}
		if err := next.AddCamera(r.cfg.ID, r.cfg, r.eng); err != nil {
			return newInitError(configs[i], err)
		}
	}
	if next.CameraCount() == 0 {
		return ErrNoCameras
	}

	m.mu.Lock()
	m.store = next
	m.initialized = true
	m.mu.Unlock()

	metrics.CamerasInitialized.Set(float64(next.CameraCount()))
	log.Printf("[INFO] Camera Manager: initialized %d cameras", next.CameraCount())
	return nil
}

func anyNeedsTriggerDetection(configs []*engines.CameraConfig) bool {
	for _, cfg := range configs {
		if (cfg.Triggers.Motion || cfg.Triggers.Occupancy) && len(cfg.Triggers.Entities) == 0 {
			return true
		}
	}
	return false
}

// Registry accessors.

func (m *Manager) GetCameras() []*engines.CameraConfig {
	store, err := m.getStore()
	if err != nil {
		return nil
	}
	return store.GetCameras()
}

func (m *Manager) GetCameraIDs() []string {
	store, err := m.getStore()
	if err != nil {
		return nil
	}
	return store.GetCameraIDs()
}

func (m *Manager) HasCameraID(id string) bool {
	store, err := m.getStore()
	if err != nil {
		return false
	}
	return store.HasCameraID(id)
}

func (m *Manager) GetCameraConfig(id string) (*engines.CameraConfig, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	cfg, ok := store.GetCameraConfig(id)
	if !ok {
		return nil, ErrCameraNotFound
	}
	return cfg, nil
}

// Per-camera delegations.

func (m *Manager) GetCameraURL(id string, item *media.ViewMedia) (string, error) {
	store, err := m.getStore()
	if err != nil {
		return "", err
	}
	cfg, ok := store.GetCameraConfig(id)
	if !ok {
		return "", ErrCameraNotFound
	}
	eng, _ := store.GetEngineForCameraID(id)
	return eng.CameraURL(cfg, item), nil
}

func (m *Manager) GetCameraMetadata(id string) (*engines.CameraMetadata, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	cfg, ok := store.GetCameraConfig(id)
	if !ok {
		return nil, ErrCameraNotFound
	}
	eng, _ := store.GetEngineForCameraID(id)
	return eng.CameraMetadata(cfg), nil
}

func (m *Manager) GetCameraCapabilities(id string) (*media.Capabilities, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	cfg, ok := store.GetCameraConfig(id)
	if !ok {
		return nil, ErrCameraNotFound
	}
	eng, _ := store.GetEngineForCameraID(id)
	return eng.CameraCapabilities(cfg), nil
}

// GetAggregateCameraCapabilities ORs capability flags across the given
// cameras (all cameras when ids is empty).
func (m *Manager) GetAggregateCameraCapabilities(ids []string) (*media.Capabilities, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids = store.GetCameraIDs()
	}

	agg := &media.Capabilities{}
	for _, id := range ids {
		cfg, ok := store.GetCameraConfig(id)
		if !ok {
			continue
		}
		eng, _ := store.GetEngineForCameraID(id)
		agg.Or(eng.CameraCapabilities(cfg))
	}
	return agg, nil
}

// GetMediaMetadata unions the browse facets of every engine. Returns nil
// when the union is empty.
func (m *Manager) GetMediaMetadata(ctx context.Context) (*media.MediaMetadata, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}

	var parts []*media.MediaMetadata
	for _, eng := range store.GetAllEngines() {
		meta, err := eng.MediaMetadata(ctx, store.configsForEngine(eng))
		if err != nil {
			log.Printf("[WARN] Camera Manager: media metadata from engine %s failed: %v", eng.Type(), err)
			continue
		}
		parts = append(parts, meta)
	}
	return media.MergeMetadata(parts...), nil
}

// Media delegations resolve the owning engine via the item's camera.

func (m *Manager) GetMediaDownloadPath(ctx context.Context, item *media.ViewMedia) (*engines.Endpoint, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	cfg, ok := store.GetCameraConfigForMedia(item)
	if !ok {
		return nil, ErrCameraNotFound
	}
	eng, _ := store.GetEngineForMedia(item)
	return eng.MediaDownloadPath(ctx, cfg, item)
}

func (m *Manager) GetMediaCapabilities(item *media.ViewMedia) (*media.MediaCapabilities, error) {
	store, err := m.getStore()
	if err != nil {
		return nil, err
	}
	eng, ok := store.GetEngineForMedia(item)
	if !ok {
		return nil, ErrCameraNotFound
	}
	return eng.MediaCapabilities(item), nil
}

func (m *Manager) GetMediaSeekTime(ctx context.Context, item *media.ViewMedia, target time.Time) (time.Duration, error) {
	store, err := m.getStore()
	if err != nil {
		return 0, err
	}
	eng, ok := store.GetEngineForMedia(item)
	if !ok {
		return 0, ErrCameraNotFound
	}
	return eng.MediaSeekTime(ctx, store.configsForIDs([]string{item.CameraID}), item, target)
}

func (m *Manager) FavoriteMedia(ctx context.Context, item *media.ViewMedia, favorite bool) error {
	store, err := m.getStore()
	if err != nil {
		return err
	}
	cfg, ok := store.GetCameraConfigForMedia(item)
	if !ok {
		return ErrCameraNotFound
	}
	eng, _ := store.GetEngineForMedia(item)
	return eng.FavoriteMedia(ctx, cfg, item, favorite)
}
