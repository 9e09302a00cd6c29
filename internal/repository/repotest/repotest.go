// Package repotest holds behavior checks every repository.Store backend must
// pass. Backend packages call Run from their own tests.
package repotest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Run exercises store against the conventions documented on the repository
// interfaces. The store may be shared with earlier runs, so every row is keyed
// by fresh IDs and emails.
func Run(t *testing.T, store repository.Store) {
	t.Run("DuplicateEmail", func(t *testing.T) { duplicateEmail(t, store) })
	t.Run("MissingReadsAreNilNil", func(t *testing.T) { missingReads(t, store) })
	t.Run("ConcurrentComments", func(t *testing.T) { concurrentComments(t, store) })
	t.Run("ConcurrentAddMember", func(t *testing.T) { concurrentAddMember(t, store) })
	t.Run("ListByCreatorNewestFirst", func(t *testing.T) { listByCreator(t, store) })
	t.Run("VideoLifecycle", func(t *testing.T) { videoLifecycle(t, store) })
}

func newUser(t *testing.T, store repository.Store) *models.User {
	t.Helper()
	id := uuid.New()
	u := &models.User{
		ID:           id,
		Name:         "user-" + id.String()[:8],
		Email:        id.String() + "@example.com",
		PasswordHash: "hash",
		Plan:         models.PlanFree,
		WorkspaceIDs: []uuid.UUID{},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func newWorkspace(t *testing.T, store repository.Store, creator uuid.UUID, createdAt time.Time) *models.Workspace {
	t.Helper()
	ws := &models.Workspace{
		ID:        uuid.New(),
		Name:      "ws",
		CreatorID: creator,
		MemberIDs: []uuid.UUID{creator},
		VideoIDs:  []uuid.UUID{},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	require.NoError(t, store.Workspaces.Create(context.Background(), ws))
	return ws
}

func newVideo(t *testing.T, store repository.Store, ws *models.Workspace) *models.Video {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	v := &models.Video{
		ID:             uuid.New(),
		Title:          "clip.mp4",
		URL:            "https://cdn.test/clip.mp4",
		StorageKey:     "videos/clip.mp4",
		StorageBackend: "memory",
		ContentType:    "video/mp4",
		Size:           4,
		WorkspaceID:    ws.ID,
		UploaderID:     ws.CreatorID,
		Comments:       []models.Comment{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, store.Videos.Create(context.Background(), v))
	return v
}

func duplicateEmail(t *testing.T, store repository.Store) {
	ctx := context.Background()
	first := newUser(t, store)

	dup := *first
	dup.ID = uuid.New()
	assert.ErrorIs(t, store.Users.Create(ctx, &dup), repository.ErrDuplicate)

	got, err := store.Users.GetByEmail(ctx, first.Email)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, first.ID, got.ID)
}

func missingReads(t *testing.T, store repository.Store) {
	ctx := context.Background()

	u, err := store.Users.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, u)

	u, err = store.Users.GetByEmail(ctx, uuid.New().String()+"@example.com")
	assert.NoError(t, err)
	assert.Nil(t, u)

	ws, err := store.Workspaces.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, ws)

	v, err := store.Videos.GetByID(ctx, uuid.New())
	assert.NoError(t, err)
	assert.Nil(t, v)

	_, err = store.Workspaces.AddMember(ctx, uuid.New(), uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, store.Videos.Delete(ctx, uuid.New()), repository.ErrNotFound)
	assert.ErrorIs(t, store.Users.SetPlan(ctx, uuid.New(), models.PlanPro), repository.ErrNotFound)
}

func concurrentComments(t *testing.T, store repository.Store) {
	ctx := context.Background()
	creator := newUser(t, store)
	ws := newWorkspace(t, store, creator.ID, time.Now().UTC())
	v := newVideo(t, store, ws)

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := store.Videos.AppendComment(ctx, v.ID, models.Comment{
				Name:      "viewer",
				Text:      "note",
				Timestamp: float64(i),
				Date:      time.Now().UTC(),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := store.Videos.GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Len(t, got.Comments, n)

	seen := make(map[float64]bool, n)
	for _, c := range got.Comments {
		seen[c.Timestamp] = true
	}
	assert.Len(t, seen, n)
}

func concurrentAddMember(t *testing.T, store repository.Store) {
	ctx := context.Background()
	creator := newUser(t, store)
	invitee := newUser(t, store)
	ws := newWorkspace(t, store, creator.ID, time.Now().UTC())

	const n = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		added int
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := store.Workspaces.AddMember(ctx, ws.ID, invitee.ID)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				added++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, added)

	got, err := store.Workspaces.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.ElementsMatch(t, []uuid.UUID{creator.ID, invitee.ID}, got.MemberIDs)
}

func listByCreator(t *testing.T, store repository.Store) {
	ctx := context.Background()
	creator := newUser(t, store)
	other := newUser(t, store)
	base := time.Now().UTC().Truncate(time.Millisecond)

	older := newWorkspace(t, store, creator.ID, base)
	newer := newWorkspace(t, store, creator.ID, base.Add(time.Minute))
	newWorkspace(t, store, other.ID, base)

	list, err := store.Workspaces.ListByCreator(ctx, creator.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Equal(t, older.ID, list[1].ID)

	empty, err := store.Workspaces.ListByCreator(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func videoLifecycle(t *testing.T, store repository.Store) {
	ctx := context.Background()
	creator := newUser(t, store)
	ws := newWorkspace(t, store, creator.ID, time.Now().UTC())
	v := newVideo(t, store, ws)
	require.NoError(t, store.Workspaces.AddVideo(ctx, ws.ID, v.ID))

	got, err := store.Workspaces.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.Contains(t, got.VideoIDs, v.ID)

	updated, err := store.Videos.SetPublic(ctx, v.ID, true)
	require.NoError(t, err)
	assert.True(t, updated.IsPublic)
	assert.Equal(t, v.StorageKey, updated.StorageKey)

	list, err := store.Videos.ListByWorkspace(ctx, ws.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, v.ID, list[0].ID)

	require.NoError(t, store.Workspaces.RemoveVideo(ctx, ws.ID, v.ID))
	require.NoError(t, store.Videos.Delete(ctx, v.ID))

	gone, err := store.Videos.GetByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	got, err = store.Workspaces.GetByID(ctx, ws.ID)
	require.NoError(t, err)
	assert.NotContains(t, got.VideoIDs, v.ID)
}
