package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
	"github.com/lalith-99/reelroom/internal/repository/repotest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStore_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	require.NoError(t, s.Create(ctx, &models.User{ID: uuid.New(), Email: "a@example.com"}))
	err := s.Create(ctx, &models.User{ID: uuid.New(), Email: "A@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestUserStore_MissingReturnsNilNil(t *testing.T) {
	s := NewUserStore()

	u, err := s.GetByID(context.Background(), uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)

	assert.ErrorIs(t, s.SetPlan(context.Background(), uuid.New(), models.PlanPro), repository.ErrNotFound)
}

func TestUserStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	id := uuid.New()
	require.NoError(t, s.Create(ctx, &models.User{ID: id, Email: "a@example.com"}))

	u, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	u.WorkspaceIDs = append(u.WorkspaceIDs, uuid.New())

	again, err := s.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, again.WorkspaceIDs)
}

func TestWorkspaceStore_AddMemberOnce(t *testing.T) {
	ctx := context.Background()
	s := NewWorkspaceStore()
	creator, target := uuid.New(), uuid.New()
	ws := &models.Workspace{ID: uuid.New(), CreatorID: creator, MemberIDs: []uuid.UUID{creator}}
	require.NoError(t, s.Create(ctx, ws))

	added, err := s.AddMember(ctx, ws.ID, target)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddMember(ctx, ws.ID, target)
	require.NoError(t, err)
	assert.False(t, added)

	_, err = s.AddMember(ctx, uuid.New(), target)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestWorkspaceStore_ListByCreatorNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewWorkspaceStore()
	creator := uuid.New()
	base := time.Now()

	older := &models.Workspace{ID: uuid.New(), Name: "old", CreatorID: creator, CreatedAt: base}
	newer := &models.Workspace{ID: uuid.New(), Name: "new", CreatorID: creator, CreatedAt: base.Add(time.Minute)}
	other := &models.Workspace{ID: uuid.New(), Name: "other", CreatorID: uuid.New(), CreatedAt: base}
	for _, ws := range []*models.Workspace{older, newer, other} {
		require.NoError(t, s.Create(ctx, ws))
	}

	list, err := s.ListByCreator(ctx, creator)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].Name)
	assert.Equal(t, "old", list[1].Name)
}

func TestVideoStore_ConcurrentComments(t *testing.T) {
	ctx := context.Background()
	s := NewVideoStore()
	v := &models.Video{ID: uuid.New()}
	require.NoError(t, s.Create(ctx, v))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.AppendComment(ctx, v.ID, models.Comment{Name: "n", Text: "t"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Len(t, got.Comments, 50)
}

func TestVideoStore_DeleteMissing(t *testing.T) {
	assert.ErrorIs(t, NewVideoStore().Delete(context.Background(), uuid.New()), repository.ErrNotFound)
}

func TestStore_Conventions(t *testing.T) {
	repotest.Run(t, New())
}
