package frigate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/technosupport/ts-media-hub/internal/engines"
	"github.com/technosupport/ts-media-hub/internal/entities"
	"github.com/technosupport/ts-media-hub/internal/media"
)

const (
	EngineType = "frigate"

	defaultClientID   = "frigate"
	defaultEventLimit = 100
	responseCacheSize = 256
)

// maxResultAge matches Frigate's own event refresh cadence.
var maxResultAge = 60 * time.Second

func init() {
	engines.Register(EngineType,
		func(cfg *engines.CameraConfig) bool { return cfg.Frigate.URL != "" },
		func() engines.Engine { return NewEngine() },
	)
}

type cachedResponse struct {
	body []byte
	at   time.Time
}

// Engine talks to one or more Frigate servers over HTTP. A single instance
// serves every frigate camera; responses are cached in an LRU for the
// freshness window and replays are flagged Cached on the result.
type Engine struct {
	client *http.Client
	cache  *lru.Cache[string, cachedResponse]
}

func NewEngine() *Engine {
	c, _ := lru.New[string, cachedResponse](responseCacheSize)
	return &Engine{
		client: &http.Client{Timeout: 15 * time.Second},
		cache:  c,
	}
}

func (e *Engine) Type() string { return EngineType }

func (e *Engine) QueryResultMaxAge() *time.Duration {
	age := maxResultAge
	return &age
}

func (e *Engine) InitializeCamera(ctx context.Context, resolver entities.Resolver, cfg *engines.CameraConfig) (*engines.CameraConfig, error) {
	if cfg.Frigate.URL == "" {
		return nil, fmt.Errorf("frigate camera requires a server url")
	}
	cfg.Frigate.URL = strings.TrimRight(cfg.Frigate.URL, "/")
	if cfg.Frigate.ClientID == "" {
		cfg.Frigate.ClientID = defaultClientID
	}

	// A trigger entity can supply the backend camera name when the config
	// omits it.
	if cfg.Frigate.CameraName == "" && len(cfg.Triggers.Entities) > 0 && resolver != nil {
		if ent, err := resolver.Resolve(ctx, cfg.Triggers.Entities[0]); err == nil && ent.CameraName != "" {
			cfg.Frigate.CameraName = ent.CameraName
		}
	}

	if cfg.ID == "" && cfg.Frigate.CameraName != "" {
		cfg.ID = cfg.Frigate.ClientID + "/" + cfg.Frigate.CameraName
	}
	if cfg.Title == "" {
		cfg.Title = strings.ReplaceAll(cfg.Frigate.CameraName, "_", " ")
	}

	// Auto-detect trigger entities by naming convention when triggers are
	// requested without explicit entities.
	if (cfg.Triggers.Motion || cfg.Triggers.Occupancy) && len(cfg.Triggers.Entities) == 0 &&
		cfg.Frigate.CameraName != "" && resolver != nil {
		candidates := []string{}
		if cfg.Triggers.Motion {
			candidates = append(candidates, "binary_sensor."+cfg.Frigate.CameraName+"_motion")
		}
		if cfg.Triggers.Occupancy {
			candidates = append(candidates, "binary_sensor."+cfg.Frigate.CameraName+"_occupancy")
		}
		for _, id := range candidates {
			if _, err := resolver.Resolve(ctx, id); err == nil {
				cfg.Triggers.Entities = append(cfg.Triggers.Entities, id)
			}
		}
	}

	return cfg, nil
}

// getJSON fetches a URL, serving from the LRU cache within the freshness
// window. The bool reports whether the response came from cache.
func (e *Engine) getJSON(ctx context.Context, rawURL string, out any) (bool, error) {
	if entry, ok := e.cache.Get(rawURL); ok && time.Since(entry.at) < maxResultAge {
		return true, json.NewDecoder(bytes.NewReader(entry.body)).Decode(out)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return false, err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("frigate: %s: status %d", rawURL, resp.StatusCode)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return false, err
	}
	e.cache.Add(rawURL, cachedResponse{body: buf.Bytes(), at: time.Now()})
	return false, json.Unmarshal(buf.Bytes(), out)
}

// camerasByServer groups the queried camera names by Frigate base URL and
// returns a backend-name to camera-ID mapping.
func camerasByServer(cameras map[string]*engines.CameraConfig, ids []string) (map[string][]string, map[string]string) {
	byURL := map[string][]string{}
	idByName := map[string]string{}
	for _, id := range ids {
		cfg, ok := cameras[id]
		if !ok || cfg.Frigate.CameraName == "" {
			continue
		}
		byURL[cfg.Frigate.URL] = append(byURL[cfg.Frigate.URL], cfg.Frigate.CameraName)
		idByName[cfg.Frigate.CameraName] = id
	}
	return byURL, idByName
}

func (e *Engine) GetEvents(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	byURL, _ := camerasByServer(cameras, q.CameraIDs)
	if len(byURL) == 0 {
		return nil, nil
	}

	var events []apiEvent
	cached := true
	for base, names := range byURL {
		params := url.Values{}
		params.Set("cameras", strings.Join(names, ","))
		limit := q.Limit
		if limit <= 0 {
			limit = defaultEventLimit
		}
		params.Set("limit", strconv.Itoa(limit))
		if q.Start != nil {
			params.Set("after", strconv.FormatInt(q.Start.Unix(), 10))
		}
		if q.End != nil {
			params.Set("before", strconv.FormatInt(q.End.Unix(), 10))
		}
		if q.HasClip {
			params.Set("has_clip", "1")
		}
		if q.HasSnapshot {
			params.Set("has_snapshot", "1")
		}
		if len(q.What) > 0 {
			params.Set("labels", strings.Join(q.What, ","))
		}
		if len(q.Where) > 0 {
			params.Set("zones", strings.Join(q.Where, ","))
		}
		if q.Favorite != nil && *q.Favorite {
			params.Set("favorites", "1")
		}

		var page []apiEvent
		hit, err := e.getJSON(ctx, base+"/api/events?"+params.Encode(), &page)
		if err != nil {
			return nil, err
		}
		cached = cached && hit
		events = append(events, page...)
	}

	return media.ResultMap{q: {
		Type:    media.QueryTypeEvent,
		Engine:  EngineType,
		Cached:  cached,
		Payload: events,
	}}, nil
}

func (e *Engine) GetRecordings(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	var recordings []recording
	cached := true

	for _, id := range q.CameraIDs {
		cfg, ok := cameras[id]
		if !ok || cfg.Frigate.CameraName == "" {
			continue
		}
		var days []apiRecordingSummaryDay
		hit, err := e.getJSON(ctx, cfg.Frigate.URL+"/api/"+cfg.Frigate.CameraName+"/recordings/summary", &days)
		if err != nil {
			return nil, err
		}
		cached = cached && hit

		for _, day := range days {
			dayStart, err := time.ParseInLocation("2006-01-02", day.Day, time.Local)
			if err != nil {
				continue
			}
			for _, hour := range day.Hours {
				start := dayStart.Add(time.Duration(hour.Hour) * time.Hour)
				end := start.Add(time.Hour)
				if q.Start != nil && end.Before(*q.Start) {
					continue
				}
				if q.End != nil && start.After(*q.End) {
					continue
				}
				recordings = append(recordings, recording{
					CameraID: id,
					Start:    start.Unix(),
					End:      end.Unix(),
					Events:   hour.Events,
				})
			}
		}
	}

	if recordings == nil {
		return nil, nil
	}
	if q.Limit > 0 && len(recordings) > q.Limit {
		// Keep the most recent hours when over limit.
		sort.Slice(recordings, func(i, j int) bool { return recordings[i].Start > recordings[j].Start })
		recordings = recordings[:q.Limit]
	}

	return media.ResultMap{q: {
		Type:    media.QueryTypeRecording,
		Engine:  EngineType,
		Cached:  cached,
		Payload: recordings,
	}}, nil
}

func (e *Engine) GetRecordingSegments(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query) (media.ResultMap, error) {
	var segments []segment
	cached := true

	for _, id := range q.CameraIDs {
		cfg, ok := cameras[id]
		if !ok || cfg.Frigate.CameraName == "" {
			continue
		}
		params := url.Values{}
		if q.Start != nil {
			params.Set("after", strconv.FormatInt(q.Start.Unix(), 10))
		}
		if q.End != nil {
			params.Set("before", strconv.FormatInt(q.End.Unix(), 10))
		}

		var page []apiRecordingSegment
		hit, err := e.getJSON(ctx, cfg.Frigate.URL+"/api/"+cfg.Frigate.CameraName+"/recordings?"+params.Encode(), &page)
		if err != nil {
			return nil, err
		}
		cached = cached && hit
		for _, s := range page {
			segments = append(segments, segment{CameraID: id, Start: s.StartTime, End: s.EndTime})
		}
	}

	if segments == nil {
		return nil, nil
	}
	return media.ResultMap{q: {
		Type:    media.QueryTypeRecordingSegments,
		Engine:  EngineType,
		Cached:  cached,
		Payload: segments,
	}}, nil
}

func (e *Engine) DefaultEventQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	ids := ownedIDs(cameras, cameraIDs)
	if len(ids) == 0 {
		return nil
	}
	q := base.Clone()
	if q == nil {
		q = &media.Query{}
	}
	q.Type = media.QueryTypeEvent
	q.CameraIDs = ids
	if q.Limit <= 0 {
		q.Limit = defaultEventLimit
	}
	return []*media.Query{q}
}

func (e *Engine) DefaultRecordingQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	ids := ownedIDs(cameras, cameraIDs)
	if len(ids) == 0 {
		return nil
	}
	q := base.Clone()
	if q == nil {
		q = &media.Query{}
	}
	q.Type = media.QueryTypeRecording
	q.CameraIDs = ids
	if q.Limit <= 0 {
		q.Limit = defaultEventLimit
	}
	return []*media.Query{q}
}

func (e *Engine) DefaultRecordingSegmentsQuery(cameras map[string]*engines.CameraConfig, cameraIDs []string, base *media.Query) []*media.Query {
	ids := ownedIDs(cameras, cameraIDs)
	if len(ids) == 0 {
		return nil
	}
	q := base.Clone()
	if q == nil {
		q = &media.Query{}
	}
	q.Type = media.QueryTypeRecordingSegments
	q.CameraIDs = ids
	return []*media.Query{q}
}

func ownedIDs(cameras map[string]*engines.CameraConfig, ids []string) []string {
	var out []string
	for _, id := range ids {
		if _, ok := cameras[id]; ok {
			out = append(out, id)
		}
	}
	return out
}

func (e *Engine) MediaFromEvents(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	events, ok := res.Payload.([]apiEvent)
	if !ok {
		return nil, fmt.Errorf("frigate: unexpected event payload %T", res.Payload)
	}

	idByName := map[string]string{}
	for id, cfg := range cameras {
		idByName[cfg.Frigate.CameraName] = id
	}

	var out []*media.ViewMedia
	for _, ev := range events {
		camID, ok := idByName[ev.Camera]
		if !ok {
			continue
		}

		mediaType := media.TypeClip
		suffix := "-clip"
		switch {
		case q.HasSnapshot && ev.HasSnapshot:
			mediaType, suffix = media.TypeSnapshot, "-snap"
		case ev.HasClip:
		case ev.HasSnapshot:
			mediaType, suffix = media.TypeSnapshot, "-snap"
		default:
			continue
		}

		item := &media.ViewMedia{
			Type:     mediaType,
			CameraID: camID,
			ID:       ev.ID + suffix,
			Start:    time.Unix(int64(ev.StartTime), 0),
			What:     []string{ev.Label},
			Favorite: ev.Retained,
		}
		if ev.EndTime != nil {
			end := time.Unix(int64(*ev.EndTime), 0)
			item.End = &end
		}
		out = append(out, item)
	}
	return out, nil
}

func (e *Engine) MediaFromRecordings(ctx context.Context, cameras map[string]*engines.CameraConfig, q *media.Query, res *media.QueryResult) ([]*media.ViewMedia, error) {
	recordings, ok := res.Payload.([]recording)
	if !ok {
		return nil, fmt.Errorf("frigate: unexpected recording payload %T", res.Payload)
	}

	var out []*media.ViewMedia
	for _, r := range recordings {
		end := time.Unix(r.End, 0)
		out = append(out, &media.ViewMedia{
			Type:     media.TypeRecording,
			CameraID: r.CameraID,
			ID:       fmt.Sprintf("%s/recording/%d", r.CameraID, r.Start),
			Start:    time.Unix(r.Start, 0),
			End:      &end,
		})
	}
	return out, nil
}

func (e *Engine) MediaMetadata(ctx context.Context, cameras map[string]*engines.CameraConfig) (*media.MediaMetadata, error) {
	served := map[string]bool{}
	servers := map[string]struct{}{}
	for _, cfg := range cameras {
		served[cfg.Frigate.CameraName] = true
		servers[cfg.Frigate.URL] = struct{}{}
	}

	meta := &media.MediaMetadata{}
	for base := range servers {
		var summary []apiEventSummaryEntry
		if _, err := e.getJSON(ctx, base+"/api/events/summary", &summary); err != nil {
			return nil, err
		}
		for _, entry := range summary {
			if !served[entry.Camera] {
				continue
			}
			meta.What = append(meta.What, entry.Label)
			meta.Where = append(meta.Where, entry.Zones...)
			if entry.Day != "" {
				meta.Days = append(meta.Days, entry.Day)
			}
		}
	}
	return media.MergeMetadata(meta), nil
}

func (e *Engine) CameraURL(cfg *engines.CameraConfig, m *media.ViewMedia) string {
	if cfg.Frigate.CameraName == "" {
		return cfg.Frigate.URL
	}
	return cfg.Frigate.URL + "/cameras/" + cfg.Frigate.CameraName
}

func (e *Engine) CameraMetadata(cfg *engines.CameraConfig) *engines.CameraMetadata {
	title := cfg.Title
	if title == "" {
		title = cfg.ID
	}
	return &engines.CameraMetadata{Title: title, Icon: "mdi:video", Engine: EngineType}
}

func (e *Engine) CameraCapabilities(cfg *engines.CameraConfig) *media.Capabilities {
	return &media.Capabilities{
		Live:       true,
		Clips:      true,
		Snapshots:  true,
		Recordings: true,
		Favorite:   true,
		Seek:       true,
		Download:   true,
	}
}

// eventID strips the media-type suffix back off a ViewMedia identity.
func eventID(m *media.ViewMedia) string {
	id := strings.TrimSuffix(m.ID, "-clip")
	return strings.TrimSuffix(id, "-snap")
}

func (e *Engine) MediaDownloadPath(ctx context.Context, cfg *engines.CameraConfig, m *media.ViewMedia) (*engines.Endpoint, error) {
	switch m.Type {
	case media.TypeClip:
		return &engines.Endpoint{Path: cfg.Frigate.URL + "/api/events/" + eventID(m) + "/clip.mp4"}, nil
	case media.TypeSnapshot:
		return &engines.Endpoint{Path: cfg.Frigate.URL + "/api/events/" + eventID(m) + "/snapshot.jpg"}, nil
	case media.TypeRecording:
		start := m.Start
		return &engines.Endpoint{Path: fmt.Sprintf("%s/vod/%s/start/%d/end/%d/index.m3u8",
			cfg.Frigate.URL, cfg.Frigate.CameraName, start.Unix(), start.Add(time.Hour).Unix())}, nil
	}
	return nil, engines.ErrUnsupported
}

func (e *Engine) MediaCapabilities(m *media.ViewMedia) *media.MediaCapabilities {
	switch m.Type {
	case media.TypeClip, media.TypeSnapshot:
		return &media.MediaCapabilities{Favorite: true, Download: true}
	case media.TypeRecording:
		return &media.MediaCapabilities{Download: true}
	}
	return &media.MediaCapabilities{}
}

func (e *Engine) MediaSeekTime(ctx context.Context, cameras map[string]*engines.CameraConfig, m *media.ViewMedia, target time.Time) (time.Duration, error) {
	end := target.Add(time.Hour)
	if m.End != nil {
		end = *m.End
	}
	start := m.Start
	q := &media.Query{
		Type:      media.QueryTypeRecordingSegments,
		CameraIDs: []string{m.CameraID},
		Start:     &start,
		End:       &end,
	}
	results, err := e.GetRecordingSegments(ctx, cameras, q)
	if err != nil {
		return 0, err
	}

	var segments []segment
	for _, res := range results {
		segments = append(segments, res.Payload.([]segment)...)
	}
	if len(segments) == 0 {
		return 0, fmt.Errorf("no recording segments cover %s", target)
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })

	// Seek offset counts only recorded time before the target.
	targetSec := float64(target.Unix())
	var offset float64
	for _, s := range segments {
		if targetSec < s.Start {
			break
		}
		if targetSec <= s.End {
			offset += targetSec - s.Start
			break
		}
		offset += s.End - s.Start
	}
	return time.Duration(offset * float64(time.Second)), nil
}

func (e *Engine) FavoriteMedia(ctx context.Context, cfg *engines.CameraConfig, m *media.ViewMedia, favorite bool) error {
	if m.Type == media.TypeRecording {
		return engines.ErrUnsupported
	}

	method := http.MethodPost
	if !favorite {
		method = http.MethodDelete
	}
	reqURL := cfg.Frigate.URL + "/api/events/" + eventID(m) + "/retain"

	req, err := http.NewRequestWithContext(ctx, method, reqURL, nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("frigate: retain %s: status %d", eventID(m), resp.StatusCode)
	}
	return nil
}
