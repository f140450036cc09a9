package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
server:
  addr: ":9090"
cameras:
  - engine: frigate
    frigate:
      url: "http://frigate:5000"
      camera_name: front_door
  - engine: generic
    generic:
      stream_url: "rtsp://nvr:8554/cam"
`

func TestLoad(t *testing.T) {
	path := writeConfig(t, minimalConfig)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr wrong: %s", cfg.Server.Addr)
	}
	if len(cfg.Cameras) != 2 {
		t.Fatalf("expected 2 cameras, got %d", len(cfg.Cameras))
	}
	if cfg.Cameras[0].Frigate.CameraName != "front_door" {
		t.Errorf("frigate camera wrong: %+v", cfg.Cameras[0])
	}
	if cfg.Cameras[1].Generic.StreamURL != "rtsp://nvr:8554/cam" {
		t.Errorf("generic camera wrong: %+v", cfg.Cameras[1])
	}
	// Defaults fill the rest.
	if cfg.Auth.SigningKey == "" {
		t.Error("signing key default missing")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, minimalConfig)
	t.Setenv("MEDIAHUB_ADDR", ":7070")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("JWT_SIGNING_KEY", "env-secret")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Server.Addr != ":7070" {
		t.Errorf("env addr override lost: %s", cfg.Server.Addr)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("env redis override lost: %s", cfg.Redis.Addr)
	}
	if cfg.Auth.SigningKey != "env-secret" {
		t.Errorf("env signing key override lost: %s", cfg.Auth.SigningKey)
	}
}

func TestLoad_NoCameras(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":8080\"\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for empty camera list")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "cameras: [unclosed")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
