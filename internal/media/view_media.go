package media

import "time"

type MediaType string

const (
	TypeClip      MediaType = "clip"
	TypeSnapshot  MediaType = "snapshot"
	TypeRecording MediaType = "recording"
)

// ViewMedia is a backend-agnostic, displayable media item. An empty ID
// means the item has no identity and is treated as unique during dedup.
type ViewMedia struct {
	Type     MediaType  `json:"type"`
	CameraID string     `json:"camera_id"`
	ID       string     `json:"id,omitempty"`
	Start    time.Time  `json:"start"`
	End      *time.Time `json:"end,omitempty"`
	What     []string   `json:"what,omitempty"`
	Favorite bool       `json:"favorite,omitempty"`
}

// Capabilities describes what a camera supports. Flags aggregate with OR.
type Capabilities struct {
	Live       bool `json:"live"`
	Clips      bool `json:"clips"`
	Snapshots  bool `json:"snapshots"`
	Recordings bool `json:"recordings"`
	Favorite   bool `json:"favorite"`
	Seek       bool `json:"seek"`
	Download   bool `json:"download"`
}

// Or merges other into c, flag by flag.
func (c *Capabilities) Or(other *Capabilities) {
	if other == nil {
		return
	}
	c.Live = c.Live || other.Live
	c.Clips = c.Clips || other.Clips
	c.Snapshots = c.Snapshots || other.Snapshots
	c.Recordings = c.Recordings || other.Recordings
	c.Favorite = c.Favorite || other.Favorite
	c.Seek = c.Seek || other.Seek
	c.Download = c.Download || other.Download
}

// MediaCapabilities describes the operations a single media item supports.
type MediaCapabilities struct {
	Favorite bool `json:"favorite"`
	Download bool `json:"download"`
}
