package engines

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoEngine = errors.New("no engine matches camera config")

// Factory creates a fresh engine instance. Reuse across cameras is the
// caller's responsibility, not the registry's.
type Factory func() Engine

// DetectFunc reports whether an engine type can serve the given config.
type DetectFunc func(cfg *CameraConfig) bool

type registration struct {
	typ     string
	detect  DetectFunc
	factory Factory
}

// registry holds engine registrations in probe priority order. First
// match wins during detection.
var registry []registration

// Register adds an engine type. Registration order defines detection
// priority; engine packages register themselves in init().
func Register(typ string, detect DetectFunc, f Factory) {
	registry = append(registry, registration{typ: typ, detect: detect, factory: f})
}

// DetectEngineType resolves which engine type serves the config. An
// explicit engine selection short-circuits probing.
func DetectEngineType(ctx context.Context, cfg *CameraConfig) (string, error) {
	if cfg.Engine != "" && cfg.Engine != "auto" {
		for _, reg := range registry {
			if reg.typ == cfg.Engine {
				return reg.typ, nil
			}
		}
		return "", fmt.Errorf("engine %q: %w", cfg.Engine, ErrNoEngine)
	}

	for _, reg := range registry {
		if reg.detect != nil && reg.detect(cfg) {
			return reg.typ, nil
		}
	}
	return "", ErrNoEngine
}

// Create instantiates a new engine of the given type.
func Create(typ string) (Engine, error) {
	for _, reg := range registry {
		if reg.typ == typ {
			return reg.factory(), nil
		}
	}
	return nil, fmt.Errorf("engine %q: %w", typ, ErrNoEngine)
}
