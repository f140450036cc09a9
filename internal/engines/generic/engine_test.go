package generic

import (
	"context"
	"errors"
	"testing"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"
)

func TestInitializeCamera_DerivesID(t *testing.T) {
	e := NewEngine()
	cfg := &engines.CameraConfig{
		Generic: engines.GenericSettings{StreamURL: "rtsp://nvr.local:8554/driveway"},
	}
	out, err := e.InitializeCamera(context.Background(), nil, cfg)
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if out.ID != "generic/nvr.local_8554" {
		t.Errorf("derived id wrong: %s", out.ID)
	}
	if out.Title != out.ID {
		t.Errorf("title default wrong: %s", out.Title)
	}
}

func TestInitializeCamera_RequiresStreamURL(t *testing.T) {
	e := NewEngine()
	if _, err := e.InitializeCamera(context.Background(), nil, &engines.CameraConfig{}); err == nil {
		t.Fatal("expected error for missing stream url")
	}
}

func TestEngine_LiveOnly(t *testing.T) {
	e := NewEngine()
	cfg := &engines.CameraConfig{
		ID:      "generic/nvr",
		Generic: engines.GenericSettings{StreamURL: "rtsp://nvr:8554/cam"},
	}

	if e.QueryResultMaxAge() != nil {
		t.Error("generic results must never expire")
	}

	caps := e.CameraCapabilities(cfg)
	if !caps.Live || caps.Clips || caps.Recordings || caps.Snapshots {
		t.Errorf("expected live-only capabilities, got %+v", caps)
	}

	if got := e.CameraURL(cfg, nil); got != "rtsp://nvr:8554/cam" {
		t.Errorf("camera url wrong: %s", got)
	}

	res, err := e.GetEvents(context.Background(), nil, &media.Query{Type: media.QueryTypeEvent})
	if err != nil || res != nil {
		t.Errorf("expected no events and no error, got %v, %v", res, err)
	}
	if qs := e.DefaultEventQuery(nil, []string{"generic/nvr"}, &media.Query{}); qs != nil {
		t.Errorf("expected no default queries, got %v", qs)
	}

	if _, err := e.MediaDownloadPath(context.Background(), cfg, &media.ViewMedia{}); !errors.Is(err, engines.ErrUnsupported) {
		t.Errorf("download must be unsupported, got %v", err)
	}
	if err := e.FavoriteMedia(context.Background(), cfg, &media.ViewMedia{}, true); !errors.Is(err, engines.ErrUnsupported) {
		t.Errorf("favorite must be unsupported, got %v", err)
	}
}
