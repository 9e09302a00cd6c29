package mongodb

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestParseIDs_DropsCorruptEntries(t *testing.T) {
	good := uuid.New()

	got := parseIDs([]string{good.String(), "not-a-uuid", ""})
	assert.Equal(t, []uuid.UUID{good}, got)
}

func TestVideoDoc_KeepsCommentOrder(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	v := &models.Video{
		ID:          uuid.New(),
		WorkspaceID: uuid.New(),
		UploaderID:  uuid.New(),
		Comments: []models.Comment{
			{Name: "a", Text: "first", Timestamp: 1.5, Date: now},
			{Name: "b", Text: "second", Timestamp: 0, Date: now},
		},
	}

	got := toVideoDoc(v).model()
	assert.Equal(t, v.WorkspaceID, got.WorkspaceID)
	assert.Equal(t, v.UploaderID, got.UploaderID)
	assert.Equal(t, v.Comments, got.Comments)
}

func TestVideoDoc_EmptyCommentsRenderAsEmptySlice(t *testing.T) {
	got := videoDoc{ID: uuid.NewString()}.model()
	assert.NotNil(t, got.Comments)
	assert.Empty(t, got.Comments)
}
