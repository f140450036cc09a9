package engines

import (
	"context"
	"errors"
	"time"

	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/media"
)

var ErrUnsupported = errors.New("operation not supported by engine")

// FrigateSettings configures a camera served by a Frigate server.
type FrigateSettings struct {
	URL        string   `yaml:"url" json:"url"`
	ClientID   string   `yaml:"client_id" json:"client_id"`
	CameraName string   `yaml:"camera_name" json:"camera_name"`
	Labels     []string `yaml:"labels" json:"labels,omitempty"`
	Zones      []string `yaml:"zones" json:"zones,omitempty"`
}

// GenericSettings configures a config-only camera with a static stream.
type GenericSettings struct {
	StreamURL string `yaml:"stream_url" json:"stream_url"`
}

// TriggerSettings controls which activity triggers a camera reacts to.
// When Motion or Occupancy is set and Entities is empty, the trigger
// entities are auto-detected during initialization via the entity
// resolver.
type TriggerSettings struct {
	Motion    bool     `yaml:"motion" json:"motion"`
	Occupancy bool     `yaml:"occupancy" json:"occupancy"`
	Entities  []string `yaml:"entities" json:"entities,omitempty"`
}

// CameraConfig is the resolved per-camera configuration. The manager hands
// each engine a deep copy during initialization; engines normalize their
// copy and the result becomes immutable once stored.
type CameraConfig struct {
	ID     string `yaml:"id" json:"id"`
	Engine string `yaml:"engine" json:"engine"`
	Title  string `yaml:"title" json:"title"`

	Frigate  FrigateSettings `yaml:"frigate" json:"frigate"`
	Generic  GenericSettings `yaml:"generic" json:"generic"`
	Triggers TriggerSettings `yaml:"triggers" json:"triggers"`
}

// Clone returns a deep copy.
func (c *CameraConfig) Clone() *CameraConfig {
	if c == nil {
		return nil
	}
	out := *c
	out.Frigate.Labels = append([]string(nil), c.Frigate.Labels...)
	out.Frigate.Zones = append([]string(nil), c.Frigate.Zones...)
	out.Triggers.Entities = append([]string(nil), c.Triggers.Entities...)
	return &out
}

// CameraMetadata is display metadata for a camera.
type CameraMetadata struct {
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
	Engine string `json:"engine"`
}

// Endpoint describes where a media item can be downloaded from.
type Endpoint struct {
	Path string `json:"path"`
}

// Engine is the per-backend capability contract. One instance serves every
// camera of its backend type and must tolerate concurrent query calls.
type Engine interface {
	Type() string

	// InitializeCamera normalizes the given config (already a copy owned by
	// the engine) and derives the camera ID. Failures surface as
	// camera-initialization errors upstream.
	InitializeCamera(ctx context.Context, resolver entities.Resolver, cfg *CameraConfig) (*CameraConfig, error)

	GetEvents(ctx context.Context, cameras map[string]*CameraConfig, q *media.Query) (media.ResultMap, error)
	GetRecordings(ctx context.Context, cameras map[string]*CameraConfig, q *media.Query) (media.ResultMap, error)
	GetRecordingSegments(ctx context.Context, cameras map[string]*CameraConfig, q *media.Query) (media.ResultMap, error)

	// Default query generation. A nil return means the engine serves no
	// queries of that kind for the given cameras.
	DefaultEventQuery(cameras map[string]*CameraConfig, cameraIDs []string, base *media.Query) []*media.Query
	DefaultRecordingQuery(cameras map[string]*CameraConfig, cameraIDs []string, base *media.Query) []*media.Query
	DefaultRecordingSegmentsQuery(cameras map[string]*CameraConfig, cameraIDs []string, base *media.Query) []*media.Query

	MediaFromEvents(ctx context.Context, cameras map[string]*CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error)
	MediaFromRecordings(ctx context.Context, cameras map[string]*CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error)

	MediaMetadata(ctx context.Context, cameras map[string]*CameraConfig) (*media.MediaMetadata, error)

	CameraURL(cfg *CameraConfig, m *media.ViewMedia) string
	CameraMetadata(cfg *CameraConfig) *CameraMetadata
	CameraCapabilities(cfg *CameraConfig) *media.Capabilities

	MediaDownloadPath(ctx context.Context, cfg *CameraConfig, m *media.ViewMedia) (*Endpoint, error)
	MediaCapabilities(m *media.ViewMedia) *media.MediaCapabilities
	MediaSeekTime(ctx context.Context, cameras map[string]*CameraConfig, m *media.ViewMedia, target time.Time) (time.Duration, error)
	FavoriteMedia(ctx context.Context, cfg *CameraConfig, m *media.ViewMedia, favorite bool) error

	// QueryResultMaxAge bounds how long results from this engine stay
	// fresh. Nil means unbounded.
	QueryResultMaxAge() *time.Duration
}
