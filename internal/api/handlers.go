// Package api exposes the camera manager over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/technosupport/ts-media-hub/internal/cameras"
	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/media"
)

type Handler struct {
	Manager *cameras.Manager
}

func NewHandler(m *cameras.Manager) *Handler {
	return &Handler{Manager: m}
}

// Helpers
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// cameraID extracts the camera ID route param. Camera IDs contain
// slashes (client/camera), so clients send them percent-encoded.
func cameraID(r *http.Request) string {
	raw := chi.URLParam(r, "id")
	if id, err := url.PathUnescape(raw); err == nil {
		return id
	}
	return raw
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, cameras.ErrCameraNotFound):
		return http.StatusNotFound
	case errors.Is(err, cameras.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, engines.ErrUnsupported):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GET /api/v1/cameras
func (h *Handler) ListCameras(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.Manager.GetCameras())
}

// GET /api/v1/cameras/{id}
func (h *Handler) GetCamera(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.Manager.GetCameraConfig(cameraID(r))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

// GET /api/v1/cameras/{id}/metadata
func (h *Handler) GetCameraMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.Manager.GetCameraMetadata(cameraID(r))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

// GET /api/v1/cameras/{id}/url
func (h *Handler) GetCameraURL(w http.ResponseWriter, r *http.Request) {
	url, err := h.Manager.GetCameraURL(cameraID(r), nil)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GET /api/v1/cameras/{id}/capabilities
func (h *Handler) GetCameraCapabilities(w http.ResponseWriter, r *http.Request) {
	caps, err := h.Manager.GetCameraCapabilities(cameraID(r))
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, caps)
}

// GET /api/v1/capabilities?ids=cam1,cam2
func (h *Handler) GetAggregateCapabilities(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	caps, err := h.Manager.GetAggregateCameraCapabilities(ids)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, caps)
}

// GET /api/v1/media/metadata
func (h *Handler) GetMediaMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := h.Manager.GetMediaMetadata(r.Context())
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, meta)
}

type mediaQueryRequest struct {
	Type      media.QueryType `json:"type"`
	CameraIDs []string        `json:"camera_ids"`
	Start     *time.Time      `json:"start,omitempty"`
	End       *time.Time      `json:"end,omitempty"`
	Limit     int             `json:"limit,omitempty"`

	HasClip     bool     `json:"has_clip,omitempty"`
	HasSnapshot bool     `json:"has_snapshot,omitempty"`
	What        []string `json:"what,omitempty"`
	Where       []string `json:"where,omitempty"`
	Favorite    *bool    `json:"favorite,omitempty"`
}

type mediaQueryResponse struct {
	Queries []*media.Query     `json:"queries"`
	Media   []*media.ViewMedia `json:"media"`
}

// POST /api/v1/media/query
// Generates default queries of the requested type for the given cameras
// and executes them into a merged timeline.
func (h *Handler) QueryMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaQueryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	base := &media.Query{
		Type:        req.Type,
		Start:       req.Start,
		End:         req.End,
		Limit:       req.Limit,
		HasClip:     req.HasClip,
		HasSnapshot: req.HasSnapshot,
		What:        req.What,
		Where:       req.Where,
		Favorite:    req.Favorite,
	}

	var queries []*media.Query
	var err error
	switch req.Type {
	case media.QueryTypeEvent:
		queries, err = h.Manager.GenerateDefaultEventQueries(req.CameraIDs, base)
	case media.QueryTypeRecording:
		queries, err = h.Manager.GenerateDefaultRecordingQueries(req.CameraIDs, base)
	case media.QueryTypeRecordingSegments:
		queries, err = h.Manager.GenerateDefaultRecordingSegmentsQueries(req.CameraIDs, base)
	default:
		respondError(w, http.StatusBadRequest, "Unknown query type")
		return
	}
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}

	items, err := h.Manager.ExecuteMediaQueries(r.Context(), queries)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, mediaQueryResponse{Queries: queries, Media: items})
}

type mediaExtendRequest struct {
	Queries   []*media.Query     `json:"queries"`
	Media     []*media.ViewMedia `json:"media"`
	Direction cameras.Direction  `json:"direction"`
}

// POST /api/v1/media/extend
// Responds 204 when the backends had nothing further in that direction.
func (h *Handler) ExtendMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaExtendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Queries) == 0 {
		respondError(w, http.StatusBadRequest, "No queries to extend")
		return
	}

	ext, err := h.Manager.ExtendMediaQueries(r.Context(), req.Queries, req.Media, req.Direction)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	if ext == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, http.StatusOK, ext)
}

type mediaFreshRequest struct {
	Queries          []*media.Query `json:"queries"`
	ResultsTimestamp *time.Time     `json:"results_timestamp"`
}

// POST /api/v1/media/fresh
// Reports whether a timeline computed at results_timestamp is still
// valid for every engine the queries touch.
func (h *Handler) MediaFresh(w http.ResponseWriter, r *http.Request) {
	var req mediaFreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Queries) == 0 {
		respondError(w, http.StatusBadRequest, "No queries to check")
		return
	}
	if req.ResultsTimestamp == nil {
		respondError(w, http.StatusBadRequest, "Missing results_timestamp")
		return
	}
	if !h.Manager.IsInitialized() {
		respondError(w, http.StatusServiceUnavailable, cameras.ErrNotInitialized.Error())
		return
	}

	fresh := h.Manager.AreMediaQueriesResultsFresh(req.Queries, *req.ResultsTimestamp)
	respondJSON(w, http.StatusOK, map[string]bool{"fresh": fresh})
}

type mediaActionRequest struct {
	Media    *media.ViewMedia `json:"media"`
	Favorite bool             `json:"favorite"`
	Target   *time.Time       `json:"target,omitempty"`
}

// POST /api/v1/media/favorite
func (h *Handler) FavoriteMedia(w http.ResponseWriter, r *http.Request) {
	var req mediaActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Media == nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := h.Manager.FavoriteMedia(r.Context(), req.Media, req.Favorite); err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// POST /api/v1/media/download-path
func (h *Handler) MediaDownloadPath(w http.ResponseWriter, r *http.Request) {
	var req mediaActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Media == nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	ep, err := h.Manager.GetMediaDownloadPath(r.Context(), req.Media)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, ep)
}

// POST /api/v1/media/seek
func (h *Handler) MediaSeekTime(w http.ResponseWriter, r *http.Request) {
	var req mediaActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Media == nil || req.Target == nil {
		respondError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	d, err := h.Manager.GetMediaSeekTime(r.Context(), req.Media, *req.Target)
	if err != nil {
		respondError(w, statusForError(err), err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"seek_seconds": d.Seconds()})
}

// Register mounts all routes on the given router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/cameras", h.ListCameras)
	r.Get("/cameras/{id}", h.GetCamera)
	r.Get("/cameras/{id}/metadata", h.GetCameraMetadata)
	r.Get("/cameras/{id}/url", h.GetCameraURL)
	r.Get("/cameras/{id}/capabilities", h.GetCameraCapabilities)
	r.Get("/capabilities", h.GetAggregateCapabilities)
	r.Get("/media/metadata", h.GetMediaMetadata)
	r.Post("/media/query", h.QueryMedia)
	r.Post("/media/extend", h.ExtendMedia)
	r.Post("/media/fresh", h.MediaFresh)
	r.Post("/media/favorite", h.FavoriteMedia)
	r.Post("/media/download-path", h.MediaDownloadPath)
	r.Post("/media/seek", h.MediaSeekTime)
}
