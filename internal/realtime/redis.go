package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const commentsChannel = "reelroom:comments"

// RedisBridge publishes comments to every instance. Local subscribers are
// served straight from the hub; events that come back from Redis with this
// instance's id are skipped so nobody sees a comment twice.
type RedisBridge struct {
	client     *redis.Client
	hub        *Hub
	instanceID string
	logger     *zap.Logger
}

func NewRedisBridge(client *redis.Client, hub *Hub, logger *zap.Logger) *RedisBridge {
	return &RedisBridge{
		client:     client,
		hub:        hub,
		instanceID: uuid.NewString(),
		logger:     logger,
	}
}

func (b *RedisBridge) InstanceID() string { return b.instanceID }

// PublishComment never fails the caller: the comment is already stored, so
// a Redis outage only costs remote viewers their live update.
func (b *RedisBridge) PublishComment(ctx context.Context, videoID uuid.UUID, comment models.Comment) {
	ev := Event{
		Type:       EventCommentAdded,
		InstanceID: b.instanceID,
		VideoID:    videoID,
		Comment:    comment,
		SentAt:     time.Now().UTC(),
	}
	b.hub.Broadcast(ev)

	if err := b.publish(ctx, ev); err != nil {
		b.logger.Warn("failed to publish live comment", zap.String("video_id", videoID.String()), zap.Error(err))
	}
}

func (b *RedisBridge) publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := b.client.Publish(ctx, commentsChannel, data).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Run relays events from other instances into the local hub until ctx is
// cancelled.
func (b *RedisBridge) Run(ctx context.Context) error {
	pubsub := b.client.Subscribe(ctx, commentsChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", commentsChannel, err)
	}
	b.logger.Info("live comment relay started", zap.String("instance_id", b.instanceID))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			b.handle(msg.Payload)
		}
	}
}

func (b *RedisBridge) handle(payload string) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		b.logger.Warn("failed to unmarshal live comment", zap.Error(err))
		return
	}
	if ev.InstanceID == b.instanceID {
		return
	}
	b.hub.Broadcast(ev)
}
