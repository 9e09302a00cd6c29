package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/apperr"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/policy"
	"github.com/lalith-99/reelroom/internal/repository"
	"go.uber.org/zap"
)

// Workspaces manages workspace membership and builds the expanded views the
// API returns.
type Workspaces struct {
	workspaces repository.WorkspaceRepository
	users      repository.UserRepository
	videos     repository.VideoRepository
	logger     *zap.Logger
	now        func() time.Time
}

func NewWorkspaces(workspaces repository.WorkspaceRepository, users repository.UserRepository, videos repository.VideoRepository, logger *zap.Logger) *Workspaces {
	return &Workspaces{
		workspaces: workspaces,
		users:      users,
		videos:     videos,
		logger:     logger,
		now:        time.Now,
	}
}

// Create makes ownerID the creator and only member of a new workspace.
func (s *Workspaces) Create(ctx context.Context, ownerID uuid.UUID, name string) (*models.WorkspaceView, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.InvalidInput("workspace name is required")
	}

	now := s.now().UTC()
	ws := &models.Workspace{
		ID:        uuid.New(),
		Name:      name,
		CreatorID: ownerID,
		MemberIDs: []uuid.UUID{ownerID},
		VideoIDs:  []uuid.UUID{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.workspaces.Create(ctx, ws); err != nil {
		return nil, apperr.Internal("create workspace", err)
	}

	// The user's workspace list is informational only; listings query the
	// workspaces themselves, so a failure here is not surfaced.
	if err := s.users.AddWorkspace(ctx, ownerID, ws.ID); err != nil {
		s.logger.Warn("failed to record workspace on owner",
			zap.String("workspace_id", ws.ID.String()),
			zap.String("user_id", ownerID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("workspace created",
		zap.String("workspace_id", ws.ID.String()),
		zap.String("user_id", ownerID.String()),
	)
	return s.view(ctx, ws)
}

// Get returns the expanded workspace if requesterID can access it.
func (s *Workspaces) Get(ctx context.Context, workspaceID, requesterID uuid.UUID) (*models.WorkspaceView, error) {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAccessWorkspace(requesterID, ws) {
		return nil, apperr.Forbidden("you do not have access to this workspace")
	}
	return s.view(ctx, ws)
}

// ListForUser returns the workspaces userID created, newest first.
func (s *Workspaces) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.WorkspaceView, error) {
	list, err := s.workspaces.ListByCreator(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list workspaces", err)
	}

	views := make([]models.WorkspaceView, 0, len(list))
	for i := range list {
		v, err := s.view(ctx, &list[i])
		if err != nil {
			return nil, err
		}
		views = append(views, *v)
	}
	return views, nil
}

// Invite adds targetID to the workspace. The inviter must be on the pro
// plan and able to access the workspace.
func (s *Workspaces) Invite(ctx context.Context, workspaceID, inviterID, targetID uuid.UUID) error {
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return err
	}

	inviter, err := s.users.GetByID(ctx, inviterID)
	if err != nil {
		return apperr.Internal("load inviter", err)
	}
	if inviter == nil {
		return apperr.Unauthorized("unknown user")
	}
	if !policy.CanAccessWorkspace(inviterID, ws) {
		return apperr.Forbidden("you do not have access to this workspace")
	}
	if !policy.CanInvite(inviter, ws) {
		return apperr.Forbidden("a pro plan is required to invite members")
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return apperr.Internal("load invitee", err)
	}
	if target == nil {
		return apperr.NotFound("user")
	}
	if policy.CanAccessWorkspace(targetID, ws) {
		return apperr.Conflict("user is already a member of this workspace")
	}

	added, err := s.workspaces.AddMember(ctx, workspaceID, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("workspace")
		}
		return apperr.Internal("add member", err)
	}
	if !added {
		return apperr.Conflict("user is already a member of this workspace")
	}

	if err := s.users.AddWorkspace(ctx, targetID, workspaceID); err != nil {
		s.logger.Warn("failed to record workspace on invitee",
			zap.String("workspace_id", workspaceID.String()),
			zap.String("user_id", targetID.String()),
			zap.Error(err),
		)
	}

	s.logger.Info("member invited",
		zap.String("workspace_id", workspaceID.String()),
		zap.String("inviter_id", inviterID.String()),
		zap.String("user_id", targetID.String()),
	)
	return nil
}

func (s *Workspaces) load(ctx context.Context, workspaceID uuid.UUID) (*models.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, apperr.Internal("load workspace", err)
	}
	if ws == nil {
		return nil, apperr.NotFound("workspace")
	}
	return ws, nil
}

// view expands creator and members to user summaries and lists the
// workspace's videos as title/url pairs.
func (s *Workspaces) view(ctx context.Context, ws *models.Workspace) (*models.WorkspaceView, error) {
	ids := append([]uuid.UUID{ws.CreatorID}, ws.MemberIDs...)
	users, err := s.users.GetByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal("load workspace members", err)
	}
	byID := make(map[uuid.UUID]models.UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u.Summary()
	}

	videos, err := s.videos.ListByWorkspace(ctx, ws.ID)
	if err != nil {
		return nil, apperr.Internal("load workspace videos", err)
	}

	view := &models.WorkspaceView{
		ID:        ws.ID,
		Name:      ws.Name,
		Creator:   byID[ws.CreatorID],
		Members:   make([]models.UserSummary, 0, len(ws.MemberIDs)),
		Videos:    make([]models.VideoSummary, 0, len(videos)),
		CreatedAt: ws.CreatedAt,
		UpdatedAt: ws.UpdatedAt,
	}
	if view.Creator.ID == uuid.Nil {
		view.Creator.ID = ws.CreatorID
	}
	for _, id := range ws.MemberIDs {
		if u, ok := byID[id]; ok {
			view.Members = append(view.Members, u)
		}
	}
	for _, v := range videos {
		view.Videos = append(view.Videos, v.Summary())
	}
	return view, nil
}
