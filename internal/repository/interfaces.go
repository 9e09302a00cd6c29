package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/lalith-99/reelroom/internal/models"
)

// Conventions shared by every backend:
//
//   - Reads return (nil, nil) when the row does not exist. The caller decides
//     whether that is a 404.
//   - Mutations on a missing row return ErrNotFound.
//   - A unique-key violation returns ErrDuplicate.
//   - List methods return an empty slice, never nil, so JSON renders [].
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate key")
)

type UserRepository interface {
	// Create inserts a user. Email uniqueness is enforced by the store.
	Create(ctx context.Context, user *models.User) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByIDs returns the users that exist, in no particular order.
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)

	// AddWorkspace appends to the denormalized workspace list. Idempotent.
	AddWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error

	SetPlan(ctx context.Context, userID uuid.UUID, plan models.Plan) error
}

type WorkspaceRepository interface {
	Create(ctx context.Context, ws *models.Workspace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error)

	// ListByCreator returns the workspaces userID created, newest first.
	ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error)

	// AddMember atomically adds userID to the member set. added is false
	// when the user was already a member.
	AddMember(ctx context.Context, workspaceID, userID uuid.UUID) (added bool, err error)

	AddVideo(ctx context.Context, workspaceID, videoID uuid.UUID) error
	RemoveVideo(ctx context.Context, workspaceID, videoID uuid.UUID) error
}

type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error)

	// ListByWorkspace returns the workspace's videos, newest first.
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Video, error)

	// SetPublic updates the visibility flag and returns the updated video.
	SetPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Video, error)

	Delete(ctx context.Context, id uuid.UUID) error

	// AppendComment atomically appends to the comment list and returns the
	// full list after the append.
	AppendComment(ctx context.Context, videoID uuid.UUID, comment models.Comment) ([]models.Comment, error)
}

// Store bundles the three repositories of one backend.
type Store struct {
	Users      UserRepository
	Workspaces WorkspaceRepository
	Videos     VideoRepository
}
