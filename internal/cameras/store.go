package cameras

import (
	"fmt"
	"sync"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"
)

type storeEntry struct {
	config *engines.CameraConfig
	engine engines.Engine
}

// Store is the camera registry: camera ID to (config, owning engine).
// It is mutated only while a batch initializes; afterwards it is
// read-only and safe to share.
type Store struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]storeEntry
}

func NewStore() *Store {
	return &Store{entries: make(map[string]storeEntry)}
}

// AddCamera registers a camera. Camera IDs are unique; re-adding an
// existing ID fails.
func (s *Store) AddCamera(id string, cfg *engines.CameraConfig, eng engines.Engine) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[id]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateCamera, id)
	}
	s.entries[id] = storeEntry{config: cfg, engine: eng}
	s.order = append(s.order, id)
	return nil
}

func (s *Store) CameraCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) HasCameraID(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[id]
	return ok
}

func (s *Store) GetCameraConfig(id string) (*engines.CameraConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.config, true
}

// GetCameras returns all configs in insertion order.
func (s *Store) GetCameras() []*engines.CameraConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*engines.CameraConfig, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.entries[id].config)
	}
	return out
}

func (s *Store) GetCameraIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

func (s *Store) GetEngineForCameraID(id string) (engines.Engine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	return e.engine, true
}

// GetEnginesForCameraIDs groups the requested IDs by owning engine. IDs
// owned by no engine are dropped silently.
func (s *Store) GetEnginesForCameraIDs(ids []string) map[engines.Engine][]string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[engines.Engine][]string)
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			continue
		}
		out[e.engine] = append(out[e.engine], id)
	}
	return out
}

func (s *Store) GetEngineForMedia(m *media.ViewMedia) (engines.Engine, bool) {
	if m == nil {
		return nil, false
	}
	return s.GetEngineForCameraID(m.CameraID)
}

func (s *Store) GetCameraConfigForMedia(m *media.ViewMedia) (*engines.CameraConfig, bool) {
	if m == nil {
		return nil, false
	}
	return s.GetCameraConfig(m.CameraID)
}

// GetAllEngines returns the distinct engine set, ordered by first owning
// camera.
func (s *Store) GetAllEngines() []engines.Engine {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[engines.Engine]struct{})
	var out []engines.Engine
	for _, id := range s.order {
		eng := s.entries[id].engine
		if _, ok := seen[eng]; ok {
			continue
		}
		seen[eng] = struct{}{}
		out = append(out, eng)
	}
	return out
}

// configsForIDs builds the camera-config map handed to engine calls.
func (s *Store) configsForIDs(ids []string) map[string]*engines.CameraConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*engines.CameraConfig, len(ids))
	for _, id := range ids {
		if e, ok := s.entries[id]; ok {
			out[id] = e.config
		}
	}
	return out
}

// configsForEngine collects every config owned by the given engine.
func (s *Store) configsForEngine(eng engines.Engine) map[string]*engines.CameraConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]*engines.CameraConfig)
	for id, e := range s.entries {
		if e.engine == eng {
			out[id] = e.config
		}
	}
	return out
}
