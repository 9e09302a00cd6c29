// Package realtime fans new comments out to viewers watching a video's live
// comment stream, within one process and, through Redis, across instances.
package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"go.uber.org/zap"
)

const (
	EventCommentAdded = "comment.added"

	subscriberBuffer = 16
)

// Event is the message sent to live viewers and over the Redis channel.
type Event struct {
	Type       string         `json:"type"`
	InstanceID string         `json:"instanceId,omitempty"`
	VideoID    uuid.UUID      `json:"videoId"`
	Comment    models.Comment `json:"comment"`
	SentAt     time.Time      `json:"sentAt"`
}

// Subscription receives events for one video until Close is called.
type Subscription struct {
	C       <-chan Event
	ch      chan Event
	videoID uuid.UUID
	hub     *Hub
	once    sync.Once
}

// Close detaches the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() { s.hub.unsubscribe(s) })
}

// Hub is the in-process registry of live subscriptions.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[*Subscription]struct{}
	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		subs:   make(map[uuid.UUID]map[*Subscription]struct{}),
		logger: logger,
	}
}

func (h *Hub) Subscribe(videoID uuid.UUID) *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, videoID: videoID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[videoID] == nil {
		h.subs[videoID] = make(map[*Subscription]struct{})
	}
	h.subs[videoID][sub] = struct{}{}
	return sub
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set, ok := h.subs[sub.videoID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.videoID)
		}
	}
	close(sub.ch)
}

// Subscribers reports how many live subscriptions exist for videoID.
func (h *Hub) Subscribers(videoID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[videoID])
}

// Broadcast delivers ev to every local subscriber of its video. A
// subscriber whose buffer is full misses the event rather than stalling
// the publisher.
func (h *Hub) Broadcast(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.subs[ev.VideoID] {
		select {
		case sub.ch <- ev:
		default:
			h.logger.Warn("dropping live comment for slow subscriber",
				zap.String("video_id", ev.VideoID.String()),
			)
		}
	}
}

// PublishComment broadcasts locally only. Use RedisBridge when more than
// one instance serves traffic.
func (h *Hub) PublishComment(_ context.Context, videoID uuid.UUID, comment models.Comment) {
	h.Broadcast(Event{
		Type:    EventCommentAdded,
		VideoID: videoID,
		Comment: comment,
		SentAt:  time.Now().UTC(),
	})
}
