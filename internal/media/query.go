package media

import (
	"time"
)

// QueryType discriminates the query variants. Dispatch is always done on
// this tag, never by inspecting the payload.
type QueryType string

const (
	QueryTypeEvent             QueryType = "event-query"
	QueryTypeRecording         QueryType = "recording-query"
	QueryTypeRecordingSegments QueryType = "recording-segments-query"
)

// Query is a typed media request scoped to a set of camera IDs with
// optional time bounds and a result limit.
type Query struct {
	Type      QueryType  `json:"type"`
	CameraIDs []string   `json:"camera_ids"`
	Start     *time.Time `json:"start,omitempty"`
	End       *time.Time `json:"end,omitempty"`
	Limit     int        `json:"limit,omitempty"`

	// Event-only filters, ignored by the other variants.
	HasClip     bool     `json:"has_clip,omitempty"`
	HasSnapshot bool     `json:"has_snapshot,omitempty"`
	What        []string `json:"what,omitempty"`
	Where       []string `json:"where,omitempty"`
	Favorite    *bool    `json:"favorite,omitempty"`
}

// Clone returns a deep copy. Engine-scoped rewrites operate on clones so
// the caller's query objects stay untouched.
func (q *Query) Clone() *Query {
	if q == nil {
		return nil
	}
	c := *q
	c.CameraIDs = append([]string(nil), q.CameraIDs...)
	c.What = append([]string(nil), q.What...)
	c.Where = append([]string(nil), q.Where...)
	if q.Start != nil {
		s := *q.Start
		c.Start = &s
	}
	if q.End != nil {
		e := *q.End
		c.End = &e
	}
	if q.Favorite != nil {
		f := *q.Favorite
		c.Favorite = &f
	}
	return &c
}

// QueryResult mirrors the query variants. Payload is produced and consumed
// only by the engine named in Engine.
type QueryResult struct {
	Type    QueryType `json:"type"`
	Engine  string    `json:"engine"`
	Cached  bool      `json:"cached"`
	Payload any       `json:"-"`
}

// ResultMap associates executed queries with their results.
type ResultMap map[*Query]*QueryResult
