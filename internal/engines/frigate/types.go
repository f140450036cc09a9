package frigate

// Payload structs for the Frigate HTTP API.

type apiEvent struct {
	ID          string   `json:"id"`
	Camera      string   `json:"camera"`
	Label       string   `json:"label"`
	Zones       []string `json:"zones"`
	StartTime   float64  `json:"start_time"`
	EndTime     *float64 `json:"end_time"`
	HasClip     bool     `json:"has_clip"`
	HasSnapshot bool     `json:"has_snapshot"`
	Retained    bool     `json:"retain_indefinitely"`
	TopScore    float64  `json:"top_score"`
}

type apiRecordingSummaryHour struct {
	Hour     int     `json:"hour"`
	Events   int     `json:"events"`
	Duration float64 `json:"duration"`
}

type apiRecordingSummaryDay struct {
	Day    string                    `json:"day"`
	Events int                       `json:"events"`
	Hours  []apiRecordingSummaryHour `json:"hours"`
}

type apiRecordingSegment struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
	Duration  float64 `json:"duration"`
}

type apiEventSummaryEntry struct {
	Camera string   `json:"camera"`
	Label  string   `json:"label"`
	Zones  []string `json:"zones"`
	Day    string   `json:"day"`
}

// recording is the engine-owned payload entry for recording results. One
// entry per recorded hour.
type recording struct {
	CameraID string
	Start    int64 // unix seconds
	End      int64
	Events   int
}

// segment is the engine-owned payload entry for recording-segment results.
type segment struct {
	CameraID string
	Start    float64 // unix seconds, fractional
	End      float64
}
