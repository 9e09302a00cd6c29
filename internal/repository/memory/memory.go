// Package memory is an in-process repository backend. It backs the test
// suite and STORE_BACKEND=memory for local runs; nothing survives a restart.
package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
)

// New returns a Store whose three repositories share nothing but the
// process.
func New() repository.Store {
	return repository.Store{
		Users:      NewUserStore(),
		Workspaces: NewWorkspaceStore(),
		Videos:     NewVideoStore(),
	}
}

type UserStore struct {
	mu      sync.RWMutex
	byID    map[uuid.UUID]*models.User
	byEmail map[string]uuid.UUID
}

func NewUserStore() *UserStore {
	return &UserStore{
		byID:    make(map[uuid.UUID]*models.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (s *UserStore) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, taken := s.byEmail[email]; taken {
		return repository.ErrDuplicate
	}
	if _, taken := s.byID[user.ID]; taken {
		return repository.ErrDuplicate
	}
	s.byID[user.ID] = cloneUser(user)
	s.byEmail[email] = user.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	return cloneUser(s.byID[id]), nil
}

func (s *UserStore) GetByIDs(_ context.Context, ids []uuid.UUID) ([]models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]models.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := s.byID[id]; ok {
			users = append(users, *cloneUser(u))
		}
	}
	return users, nil
}

func (s *UserStore) AddWorkspace(_ context.Context, userID, workspaceID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	if !slices.Contains(u.WorkspaceIDs, workspaceID) {
		u.WorkspaceIDs = append(u.WorkspaceIDs, workspaceID)
	}
	return nil
}

func (s *UserStore) SetPlan(_ context.Context, userID uuid.UUID, plan models.Plan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.byID[userID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Plan = plan
	return nil
}

type WorkspaceStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Workspace
}

func NewWorkspaceStore() *WorkspaceStore {
	return &WorkspaceStore{byID: make(map[uuid.UUID]*models.Workspace)}
}

func (s *WorkspaceStore) Create(_ context.Context, ws *models.Workspace) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byID[ws.ID]; taken {
		return repository.ErrDuplicate
	}
	s.byID[ws.ID] = cloneWorkspace(ws)
	return nil
}

func (s *WorkspaceStore) GetByID(_ context.Context, id uuid.UUID) (*models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ws, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneWorkspace(ws), nil
}

func (s *WorkspaceStore) ListByCreator(_ context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Workspace, 0)
	for _, ws := range s.byID {
		if ws.CreatorID == userID {
			out = append(out, *cloneWorkspace(ws))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *WorkspaceStore) AddMember(_ context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.byID[workspaceID]
	if !ok {
		return false, repository.ErrNotFound
	}
	if slices.Contains(ws.MemberIDs, userID) {
		return false, nil
	}
	ws.MemberIDs = append(ws.MemberIDs, userID)
	ws.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (s *WorkspaceStore) AddVideo(_ context.Context, workspaceID, videoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.byID[workspaceID]
	if !ok {
		return repository.ErrNotFound
	}
	if !slices.Contains(ws.VideoIDs, videoID) {
		ws.VideoIDs = append(ws.VideoIDs, videoID)
		ws.UpdatedAt = time.Now().UTC()
	}
	return nil
}

func (s *WorkspaceStore) RemoveVideo(_ context.Context, workspaceID, videoID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ws, ok := s.byID[workspaceID]
	if !ok {
		return repository.ErrNotFound
	}
	ws.VideoIDs = slices.DeleteFunc(ws.VideoIDs, func(id uuid.UUID) bool { return id == videoID })
	ws.UpdatedAt = time.Now().UTC()
	return nil
}

type VideoStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*models.Video
}

func NewVideoStore() *VideoStore {
	return &VideoStore{byID: make(map[uuid.UUID]*models.Video)}
}

func (s *VideoStore) Create(_ context.Context, video *models.Video) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byID[video.ID]; taken {
		return repository.ErrDuplicate
	}
	s.byID[video.ID] = cloneVideo(video)
	return nil
}

func (s *VideoStore) GetByID(_ context.Context, id uuid.UUID) (*models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.byID[id]
	if !ok {
		return nil, nil
	}
	return cloneVideo(v), nil
}

func (s *VideoStore) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]models.Video, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Video, 0)
	for _, v := range s.byID {
		if v.WorkspaceID == workspaceID {
			out = append(out, *cloneVideo(v))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *VideoStore) SetPublic(_ context.Context, id uuid.UUID, isPublic bool) (*models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v.IsPublic = isPublic
	v.UpdatedAt = time.Now().UTC()
	return cloneVideo(v), nil
}

func (s *VideoStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.byID, id)
	return nil
}

func (s *VideoStore) AppendComment(_ context.Context, videoID uuid.UUID, comment models.Comment) ([]models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.byID[videoID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	v.Comments = append(v.Comments, comment)
	v.UpdatedAt = time.Now().UTC()
	return slices.Clone(v.Comments), nil
}

func cloneUser(u *models.User) *models.User {
	c := *u
	c.WorkspaceIDs = slices.Clone(u.WorkspaceIDs)
	return &c
}

func cloneWorkspace(ws *models.Workspace) *models.Workspace {
	c := *ws
	c.MemberIDs = slices.Clone(ws.MemberIDs)
	c.VideoIDs = slices.Clone(ws.VideoIDs)
	return &c
}

func cloneVideo(v *models.Video) *models.Video {
	c := *v
	c.Comments = slices.Clone(v.Comments)
	return &c
}
