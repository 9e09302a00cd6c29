package realtime

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receive(t *testing.T, sub *Subscription) Event {
	t.Helper()
	select {
	case ev := <-sub.C:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestHub_DeliversOnlyToSameVideo(t *testing.T) {
	hub := NewHub(zap.NewNop())
	videoA, videoB := uuid.New(), uuid.New()

	subA := hub.Subscribe(videoA)
	defer subA.Close()
	subB := hub.Subscribe(videoB)
	defer subB.Close()

	hub.PublishComment(context.Background(), videoA, models.Comment{Name: "n", Text: "hello"})

	ev := receive(t, subA)
	assert.Equal(t, EventCommentAdded, ev.Type)
	assert.Equal(t, "hello", ev.Comment.Text)

	select {
	case <-subB.C:
		t.Fatal("video B must not receive video A's comment")
	default:
	}
}

func TestHub_CloseDetaches(t *testing.T) {
	hub := NewHub(zap.NewNop())
	video := uuid.New()

	sub := hub.Subscribe(video)
	assert.Equal(t, 1, hub.Subscribers(video))

	sub.Close()
	sub.Close()
	assert.Equal(t, 0, hub.Subscribers(video))

	_, open := <-sub.C
	assert.False(t, open)

	hub.PublishComment(context.Background(), video, models.Comment{})
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	hub := NewHub(zap.NewNop())
	video := uuid.New()
	sub := hub.Subscribe(video)
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*3; i++ {
			hub.PublishComment(context.Background(), video, models.Comment{})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a full subscriber")
	}
	assert.Len(t, sub.C, subscriberBuffer)
}

func TestRedisBridge_SkipsOwnEvents(t *testing.T) {
	hub := NewHub(zap.NewNop())
	bridge := NewRedisBridge(nil, hub, zap.NewNop())
	video := uuid.New()
	sub := hub.Subscribe(video)
	defer sub.Close()

	own, err := json.Marshal(Event{Type: EventCommentAdded, InstanceID: bridge.InstanceID(), VideoID: video})
	require.NoError(t, err)
	bridge.handle(string(own))
	assert.Len(t, sub.C, 0)

	remote, err := json.Marshal(Event{
		Type:       EventCommentAdded,
		InstanceID: "other-instance",
		VideoID:    video,
		Comment:    models.Comment{Text: "from afar"},
	})
	require.NoError(t, err)
	bridge.handle(string(remote))

	ev := receive(t, sub)
	assert.Equal(t, "from afar", ev.Comment.Text)

	bridge.handle("{not json")
	assert.Len(t, sub.C, 0)
}
