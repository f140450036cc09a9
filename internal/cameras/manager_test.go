package cameras

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"
)

func newTestManager(engs map[string]engines.Engine) *Manager {
	return NewManager(&mockFactory{engines: engs}, nil, nil)
}

func TestInitializeCameras_OrderIndependentOfCompletion(t *testing.T) {
	// The slow engine finishes last; registry order must still follow the
	// input config order.
	slow := &mockEngine{typ: "slow", initDelay: 30 * time.Millisecond}
	fast := &mockEngine{typ: "fast"}
	m := newTestManager(map[string]engines.Engine{"slow": slow, "fast": fast})

	configs := []*engines.CameraConfig{
		camCfg("cam1", "slow"),
		camCfg("cam2", "fast"),
		camCfg("cam3", "fast"),
	}
	if err := m.InitializeCameras(context.Background(), nil, configs); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	ids := m.GetCameraIDs()
	want := []string{"cam1", "cam2", "cam3"}
	for i, id := range want {
		if ids[i] != id {
			t.Fatalf("position %d: expected %s, got %v", i, id, ids)
		}
	}
}

func TestInitializeCameras_FailureKeepsPreviousRegistry(t *testing.T) {
	ok := &mockEngine{typ: "ok"}
	bad := &mockEngine{typ: "bad", initErr: errors.New("backend unreachable")}
	m := newTestManager(map[string]engines.Engine{"ok": ok, "bad": bad})

	if err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{camCfg("cam1", "ok")}); err != nil {
		t.Fatalf("first init failed: %v", err)
	}

	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		camCfg("cam1", "ok"),
		camCfg("cam2", "bad"),
	})
	if err == nil {
		t.Fatal("expected init error")
	}
	var initErr *InitError
	if !errors.As(err, &initErr) {
		t.Fatalf("expected *InitError, got %T", err)
	}
	if initErr.Config.ID != "cam2" {
		t.Errorf("error attributed to wrong camera: %s", initErr.Config.ID)
	}

	// Previous registry still serves.
	if !m.HasCameraID("cam1") {
		t.Error("previous registry lost after failed re-init")
	}
	if m.HasCameraID("cam2") {
		t.Error("partial batch leaked into registry")
	}
}

func TestInitializeCameras_MissingID(t *testing.T) {
	eng := &mockEngine{typ: "a"}
	m := newTestManager(map[string]engines.Engine{"a": eng})

	cfg := camCfg("", "a")
	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{cfg})
	if !errors.Is(err, ErrMissingCameraID) {
		t.Fatalf("expected ErrMissingCameraID, got %v", err)
	}
	if m.IsInitialized() {
		t.Error("manager initialized despite failure")
	}
}

func TestInitializeCameras_DuplicateID(t *testing.T) {
	eng := &mockEngine{typ: "a"}
	m := newTestManager(map[string]engines.Engine{"a": eng})

	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		camCfg("cam1", "a"),
		camCfg("cam1", "a"),
	})
	if !errors.Is(err, ErrDuplicateCamera) {
		t.Fatalf("expected ErrDuplicateCamera, got %v", err)
	}
}

func TestInitializeCameras_Empty(t *testing.T) {
	m := newTestManager(nil)
	if err := m.InitializeCameras(context.Background(), nil, nil); !errors.Is(err, ErrNoCameras) {
		t.Fatalf("expected ErrNoCameras, got %v", err)
	}
}

func TestManager_NotInitialized(t *testing.T) {
	m := newTestManager(nil)

	if _, err := m.GetCameraConfig("cam1"); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetCameraConfig: expected ErrNotInitialized, got %v", err)
	}
	if _, err := m.GetEvents(context.Background(), nil); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("GetEvents: expected ErrNotInitialized, got %v", err)
	}
	if ids := m.GetCameraIDs(); ids != nil {
		t.Errorf("GetCameraIDs before init: expected nil, got %v", ids)
	}
}

func TestInitializeCameras_EnginesSharedPerType(t *testing.T) {
	created := 0
	factory := &countingFactory{inner: &mockFactory{engines: map[string]engines.Engine{
		"a": &mockEngine{typ: "a"},
	}}, created: &created}
	m := NewManager(factory, nil, nil)

	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		camCfg("cam1", "a"),
		camCfg("cam2", "a"),
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}
	if created != 1 {
		t.Errorf("expected 1 engine instance, factory created %d", created)
	}
}

type countingFactory struct {
	inner   *mockFactory
	created *int
}

func (f *countingFactory) DetectEngineType(ctx context.Context, cfg *engines.CameraConfig) (string, error) {
	return f.inner.DetectEngineType(ctx, cfg)
}

func (f *countingFactory) CreateEngine(typ string) (engines.Engine, error) {
	*f.created++
	return f.inner.CreateEngine(typ)
}

func TestGetAggregateCameraCapabilities(t *testing.T) {
	a := &mockEngine{typ: "a", caps: media.Capabilities{Clips: true, Snapshots: true}}
	b := &mockEngine{typ: "b", caps: media.Capabilities{Live: true}}
	m := newTestManager(map[string]engines.Engine{"a": a, "b": b})

	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		camCfg("cam1", "a"),
		camCfg("cam2", "b"),
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	// Empty ID set means all cameras.
	agg, err := m.GetAggregateCameraCapabilities(nil)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if !agg.Live || !agg.Clips || !agg.Snapshots {
		t.Errorf("expected OR of all engines, got %+v", agg)
	}
	if agg.Recordings {
		t.Error("recordings set without any engine supporting it")
	}

	// Subset only sees its own engines.
	sub, err := m.GetAggregateCameraCapabilities([]string{"cam2"})
	if err != nil {
		t.Fatalf("subset aggregate failed: %v", err)
	}
	if !sub.Live || sub.Clips {
		t.Errorf("subset capabilities wrong: %+v", sub)
	}
}

func TestGetMediaMetadata_Union(t *testing.T) {
	a := &mockEngine{typ: "a", metadataFn: func() *media.MediaMetadata {
		return &media.MediaMetadata{What: []string{"person", "car"}, Days: []string{"2026-08-20"}}
	}}
	b := &mockEngine{typ: "b", metadataFn: func() *media.MediaMetadata {
		return &media.MediaMetadata{What: []string{"car"}, Where: []string{"porch"}}
	}}
	m := newTestManager(map[string]engines.Engine{"a": a, "b": b})

	err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		camCfg("cam1", "a"),
		camCfg("cam2", "b"),
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	meta, err := m.GetMediaMetadata(context.Background())
	if err != nil {
		t.Fatalf("metadata failed: %v", err)
	}
	if len(meta.What) != 2 || meta.What[0] != "car" || meta.What[1] != "person" {
		t.Errorf("what union wrong: %v", meta.What)
	}
	if len(meta.Where) != 1 || meta.Where[0] != "porch" {
		t.Errorf("where union wrong: %v", meta.Where)
	}
	if len(meta.Days) != 1 {
		t.Errorf("days union wrong: %v", meta.Days)
	}
}

func TestGetMediaMetadata_EmptyUnionIsNil(t *testing.T) {
	a := &mockEngine{typ: "a"}
	m := newTestManager(map[string]engines.Engine{"a": a})

	if err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{camCfg("cam1", "a")}); err != nil {
		t.Fatalf("init failed: %v", err)
	}
	meta, err := m.GetMediaMetadata(context.Background())
	if err != nil {
		t.Fatalf("metadata failed: %v", err)
	}
	if meta != nil {
		t.Errorf("expected nil metadata, got %+v", meta)
	}
}

func TestMediaDelegations_ResolveOwningEngine(t *testing.T) {
	a := &mockEngine{typ: "a"}
	m := newTestManager(map[string]engines.Engine{"a": a})
	if err := m.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{camCfg("cam1", "a")}); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	item := &media.ViewMedia{CameraID: "cam1", ID: "ev1-clip"}
	ep, err := m.GetMediaDownloadPath(context.Background(), item)
	if err != nil {
		t.Fatalf("download path failed: %v", err)
	}
	if ep.Path != "/cam1/ev1-clip" {
		t.Errorf("unexpected path %s", ep.Path)
	}

	unknown := &media.ViewMedia{CameraID: "ghost", ID: "x"}
	if _, err := m.GetMediaDownloadPath(context.Background(), unknown); !errors.Is(err, ErrCameraNotFound) {
		t.Errorf("expected ErrCameraNotFound, got %v", err)
	}
}
