package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-media-hub/internal/cameras"
	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"

	_ "github.com/technosupport/ts-media-hub/internal/engines/generic"
)

func newTestRouter(t *testing.T) (*chi.Mux, *cameras.Manager) {
	t.Helper()
	manager := cameras.NewManager(cameras.RegistryFactory{}, nil, nil)
	err := manager.InitializeCameras(context.Background(), nil, []*engines.CameraConfig{
		{Engine: "generic", Title: "Driveway", Generic: engines.GenericSettings{StreamURL: "rtsp://nvr:8554/driveway"}},
	})
	if err != nil {
		t.Fatalf("init failed: %v", err)
	}

	r := chi.NewRouter()
	NewHandler(manager).Register(r)
	return r, manager
}

func doRequest(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestListCameras(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodGet, "/cameras", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var cams []*engines.CameraConfig
	if err := json.Unmarshal(rec.Body.Bytes(), &cams); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(cams) != 1 || cams[0].ID != "generic/nvr_8554" {
		t.Errorf("unexpected cameras: %+v", cams)
	}
}

func TestGetCamera_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodGet, "/cameras/ghost", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetCameraCapabilities(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodGet, "/cameras/generic%2Fnvr_8554/capabilities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var caps media.Capabilities
	if err := json.Unmarshal(rec.Body.Bytes(), &caps); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !caps.Live || caps.Clips {
		t.Errorf("capabilities wrong: %+v", caps)
	}
}

func TestGetCameraURL(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodGet, "/cameras/generic%2Fnvr_8554/url", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["url"] != "rtsp://nvr:8554/driveway" {
		t.Errorf("url wrong: %s", body["url"])
	}
}

func TestGetAggregateCapabilities(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodGet, "/capabilities", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var caps media.Capabilities
	json.Unmarshal(rec.Body.Bytes(), &caps)
	if !caps.Live {
		t.Errorf("aggregate missing live: %+v", caps)
	}
}

func TestQueryMedia(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodPost, "/media/query", `{"type":"event-query"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp mediaQueryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	// The generic engine serves no media queries.
	if len(resp.Media) != 0 {
		t.Errorf("unexpected media: %+v", resp.Media)
	}
}

func TestQueryMedia_BadType(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodPost, "/media/query", `{"type":"bogus"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestQueryMedia_BadJSON(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodPost, "/media/query", `{`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestExtendMedia_NoQueries(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := doRequest(r, http.MethodPost, "/media/extend", `{"queries":[],"direction":"later"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestMediaFresh(t *testing.T) {
	r, _ := newTestRouter(t)
	// The generic engine reports no max result age, so even an old
	// timeline stays fresh.
	body := `{"queries":[{"type":"event-query","camera_ids":["generic/nvr_8554"]}],"results_timestamp":"2020-01-01T00:00:00Z"}`
	rec := doRequest(r, http.MethodPost, "/media/fresh", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if !resp["fresh"] {
		t.Errorf("unbounded engine must report fresh: %+v", resp)
	}
}

func TestMediaFresh_BadRequests(t *testing.T) {
	r, _ := newTestRouter(t)

	cases := map[string]string{
		"bad json":          `{`,
		"no queries":        `{"queries":[],"results_timestamp":"2020-01-01T00:00:00Z"}`,
		"missing timestamp": `{"queries":[{"type":"event-query","camera_ids":["generic/nvr_8554"]}]}`,
	}
	for name, body := range cases {
		rec := doRequest(r, http.MethodPost, "/media/fresh", body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", name, rec.Code)
		}
	}
}

func TestFavoriteMedia_Unsupported(t *testing.T) {
	r, _ := newTestRouter(t)
	body := `{"media":{"type":"clip","camera_id":"generic/nvr_8554","id":"x"},"favorite":true}`
	rec := doRequest(r, http.MethodPost, "/media/favorite", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unsupported favorite, got %d: %s", rec.Code, rec.Body.String())
	}
}
