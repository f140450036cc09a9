// Package notify publishes discovered-media notifications to NATS for
// downstream consumers (condition evaluation, live views, websockets).
package notify

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/technosupport/ts-media-hub/internal/media"
	"github.com/technosupport/ts-media-hub/internal/metrics"
)

const (
	DefaultSubject = "mediahub.media.discovered"

	seenCacheSize = 4096
)

// Conn is the slice of nats.Conn the publisher needs.
type Conn interface {
	Publish(subject string, data []byte) error
}

// MediaNotification is the wire payload for one discovered media item.
type MediaNotification struct {
	ID          uuid.UUID       `json:"id"`
	CameraID    string          `json:"camera_id"`
	MediaID     string          `json:"media_id"`
	Type        media.MediaType `json:"type"`
	Start       time.Time       `json:"start"`
	End         *time.Time      `json:"end,omitempty"`
	PublishedAt time.Time       `json:"published_at"`
}

// Publisher pushes notifications for media items it has not seen before.
// Re-executed queries return mostly known items; the LRU seen-set keeps
// those from being republished.
type Publisher struct {
	conn       Conn
	subject    string
	maxRetries int
	seen       *lru.Cache[string, struct{}]
}

func NewPublisher(conn Conn, subject string, maxRetries int) *Publisher {
	if subject == "" {
		subject = DefaultSubject
	}
	seen, _ := lru.New[string, struct{}](seenCacheSize)
	return &Publisher{
		conn:       conn,
		subject:    subject,
		maxRetries: maxRetries,
		seen:       seen,
	}
}

// MediaDiscovered publishes every previously unseen, identified item.
// Items without identity are skipped: there is nothing to dedup on.
func (p *Publisher) MediaDiscovered(items []*media.ViewMedia) {
	for _, m := range items {
		if m.ID == "" {
			continue
		}
		if _, ok := p.seen.Get(m.ID); ok {
			continue
		}

		n := MediaNotification{
			ID:          uuid.New(),
			CameraID:    m.CameraID,
			MediaID:     m.ID,
			Type:        m.Type,
			Start:       m.Start,
			End:         m.End,
			PublishedAt: time.Now(),
		}
		if err := p.publish(n); err != nil {
			// Not marked seen: a later batch gets another attempt.
			log.Printf("[ERROR] Media Publisher: publish %s failed: %v", m.ID, err)
			continue
		}
		p.seen.Add(m.ID, struct{}{})
		metrics.MediaNotificationsTotal.Inc()
	}
}

func (p *Publisher) publish(n MediaNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal error: %w", err)
	}

	for i := 0; i <= p.maxRetries; i++ {
		err = p.conn.Publish(p.subject, data)
		if err == nil {
			return nil
		}
		// Backoff
		time.Sleep(time.Duration(i*100) * time.Millisecond)
	}
	return fmt.Errorf("publish failed after %d retries: %w", p.maxRetries, err)
}
