package cameras

import (
	"errors"
	"testing"
)

func TestStore_AddCamera_Duplicate(t *testing.T) {
	s := NewStore()
	eng := &mockEngine{typ: "a"}

	if err := s.AddCamera("cam1", camCfg("cam1", "a"), eng); err != nil {
		t.Fatalf("first add failed: %v", err)
	}
	err := s.AddCamera("cam1", camCfg("cam1", "a"), eng)
	if !errors.Is(err, ErrDuplicateCamera) {
		t.Fatalf("expected ErrDuplicateCamera, got %v", err)
	}
}

func TestStore_OrderPreserved(t *testing.T) {
	s := NewStore()
	eng := &mockEngine{typ: "a"}
	ids := []string{"cam3", "cam1", "cam2"}
	for _, id := range ids {
		if err := s.AddCamera(id, camCfg(id, "a"), eng); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}

	got := s.GetCameraIDs()
	if len(got) != 3 {
		t.Fatalf("expected 3 ids, got %d", len(got))
	}
	for i, id := range ids {
		if got[i] != id {
			t.Errorf("position %d: expected %s, got %s", i, id, got[i])
		}
	}

	cams := s.GetCameras()
	for i, id := range ids {
		if cams[i].ID != id {
			t.Errorf("config position %d: expected %s, got %s", i, id, cams[i].ID)
		}
	}
}

func TestStore_GetEnginesForCameraIDs(t *testing.T) {
	s := NewStore()
	a := &mockEngine{typ: "a"}
	b := &mockEngine{typ: "b"}
	s.AddCamera("cam1", camCfg("cam1", "a"), a)
	s.AddCamera("cam2", camCfg("cam2", "b"), b)
	s.AddCamera("cam3", camCfg("cam3", "a"), a)

	// Unknown IDs are dropped silently.
	groups := s.GetEnginesForCameraIDs([]string{"cam1", "cam2", "cam3", "ghost"})
	if len(groups) != 2 {
		t.Fatalf("expected 2 engine groups, got %d", len(groups))
	}
	if got := groups[a]; len(got) != 2 || got[0] != "cam1" || got[1] != "cam3" {
		t.Errorf("engine a group wrong: %v", got)
	}
	if got := groups[b]; len(got) != 1 || got[0] != "cam2" {
		t.Errorf("engine b group wrong: %v", got)
	}
}

func TestStore_GetAllEngines_Dedup(t *testing.T) {
	s := NewStore()
	a := &mockEngine{typ: "a"}
	b := &mockEngine{typ: "b"}
	s.AddCamera("cam1", camCfg("cam1", "a"), a)
	s.AddCamera("cam2", camCfg("cam2", "b"), b)
	s.AddCamera("cam3", camCfg("cam3", "a"), a)

	all := s.GetAllEngines()
	if len(all) != 2 {
		t.Fatalf("expected 2 distinct engines, got %d", len(all))
	}
	if all[0] != a || all[1] != b {
		t.Error("engines not in first-camera order")
	}
}

func TestStore_ConfigsForIDs(t *testing.T) {
	s := NewStore()
	a := &mockEngine{typ: "a"}
	s.AddCamera("cam1", camCfg("cam1", "a"), a)

	cfgs := s.configsForIDs([]string{"cam1", "ghost"})
	if len(cfgs) != 1 {
		t.Fatalf("expected 1 config, got %d", len(cfgs))
	}
	if cfgs["cam1"].ID != "cam1" {
		t.Error("wrong config returned")
	}
}
