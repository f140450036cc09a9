// Package generic implements the fallback engine for cameras that are
// fully described by their configuration: a live stream URL and nothing
// else. It serves no media queries and its results never go stale.
package generic

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/media"
)

const EngineType = "generic"

func init() {
	engines.Register(EngineType,
		func(cfg *engines.CameraConfig) bool { return cfg.Generic.StreamURL != "" },
		func() engines.Engine { return NewEngine() },
	)
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Type() string { return EngineType }

// QueryResultMaxAge is nil: nothing this engine returns can go stale.
func (e *Engine) QueryResultMaxAge() *time.Duration { return nil }

func (e *Engine) InitializeCamera(ctx context.Context, resolver entities.Resolver, cfg *engines.CameraConfig) (*engines.CameraConfig, error) {
	if cfg.Generic.StreamURL == "" {
		return nil, fmt.Errorf("generic camera requires a stream url")
	}
	if cfg.ID == "" {
		if u, err := url.Parse(cfg.Generic.StreamURL); err == nil && u.Host != "" {
			cfg.ID = EngineType + "/" + strings.ReplaceAll(u.Host, ":", "_")
		}
	}
	if cfg.Title == "" {
		cfg.Title = cfg.ID
	}
	return cfg, nil
}

func (e *Engine) GetEvents(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	return nil, nil
}

func (e *Engine) GetRecordings(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	return nil, nil
}

func (e *Engine) GetRecordingSegments(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	return nil, nil
}

func (e *Engine) DefaultEventQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	return nil
}

func (e *Engine) DefaultRecordingQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	return nil
}

func (e *Engine) DefaultRecordingSegmentsQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	return nil
}

func (e *Engine) MediaFromEvents(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	return nil, nil
}

func (e *Engine) MediaFromRecordings(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	return nil, nil
}

func (e *Engine) MediaMetadata(ctx context.Context, cameras map[string]*engines.CameraConfig) (*media.MediaMetadata, error) {
	return nil, nil
}

func (e *Engine) CameraURL(cfg *engines.CameraConfig, m *media.ViewMedia) string {
	return cfg.Generic.StreamURL
}

func (e *Engine) CameraMetadata(cfg *engines.CameraConfig) *engines.CameraMetadata {
	title := cfg.Title
	if title == "" {
		title = cfg.ID
	}
	return &engines.CameraMetadata{Title: title, Icon: "mdi:video", Engine: EngineType}
}

func (e *Engine) CameraCapabilities(cfg *engines.CameraConfig) *media.Capabilities {
	return &media.Capabilities{Live: true}
}

func (e *Engine) MediaDownloadPath(ctx context.Context, cfg *engines.CameraConfig, m *media.ViewMedia) (*engines.Endpoint, error) {
	return nil, engines.ErrUnsupported
}

func (e *Engine) MediaCapabilities(m *media.ViewMedia) *media.MediaCapabilities {
	return &media.MediaCapabilities{}
}

func (e *Engine) MediaSeekTime(ctx context.Context, cameras map[string]*engines.CameraConfig, m *media.ViewMedia, target time.Time) (time.Duration, error) {
	return 0, engines.ErrUnsupported
}

func (e *Engine) FavoriteMedia(ctx context.Context, cfg *engines.CameraConfig, m *media.ViewMedia, favorite bool) error {
	return engines.ErrUnsupported
}
