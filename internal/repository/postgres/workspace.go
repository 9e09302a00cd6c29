package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
)

type WorkspaceStore struct {
	pool *pgxpool.Pool
}

func NewWorkspaceStore(pool *pgxpool.Pool) *WorkspaceStore {
	return &WorkspaceStore{pool: pool}
}

// Members come from workspace_members; video references are derived from
// the videos table, so there is no separate list to keep in sync.
const selectWorkspace = `
	SELECT w.id, w.name, w.creator_id, w.created_at, w.updated_at,
	       ARRAY(SELECT m.user_id::text FROM workspace_members m
	             WHERE m.workspace_id = w.id ORDER BY m.joined_at),
	       ARRAY(SELECT v.id::text FROM videos v
	             WHERE v.workspace_id = w.id ORDER BY v.created_at)
	FROM workspaces w`

func scanWorkspace(row pgx.Row) (*models.Workspace, error) {
	var (
		ws      models.Workspace
		members []string
		videos  []string
	)
	if err := row.Scan(&ws.ID, &ws.Name, &ws.CreatorID, &ws.CreatedAt, &ws.UpdatedAt, &members, &videos); err != nil {
		return nil, err
	}
	ws.MemberIDs = parseIDs(members)
	ws.VideoIDs = parseIDs(videos)
	return &ws, nil
}

// Create writes the workspace row and its member rows in one transaction.
func (s *WorkspaceStore) Create(ctx context.Context, ws *models.Workspace) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO workspaces (id, name, creator_id, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5)`,
			ws.ID, ws.Name, ws.CreatorID, ws.CreatedAt, ws.UpdatedAt)
		if err != nil {
			if pgErrCode(err) == pgUniqueViolation {
				return repository.ErrDuplicate
			}
			return fmt.Errorf("insert workspace: %w", err)
		}

		for _, member := range ws.MemberIDs {
			_, err := tx.Exec(ctx, `
				INSERT INTO workspace_members (workspace_id, user_id, joined_at)
				VALUES ($1, $2, $3)
				ON CONFLICT (workspace_id, user_id) DO NOTHING`,
				ws.ID, member, ws.CreatedAt)
			if err != nil {
				return fmt.Errorf("insert workspace member: %w", err)
			}
		}
		return nil
	})
}

func (s *WorkspaceStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Workspace, error) {
	ws, err := scanWorkspace(s.pool.QueryRow(ctx, selectWorkspace+` WHERE w.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get workspace: %w", err)
	}
	return ws, nil
}

func (s *WorkspaceStore) ListByCreator(ctx context.Context, userID uuid.UUID) ([]models.Workspace, error) {
	rows, err := s.pool.Query(ctx, selectWorkspace+` WHERE w.creator_id = $1 ORDER BY w.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	workspaces := make([]models.Workspace, 0)
	for rows.Next() {
		ws, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		workspaces = append(workspaces, *ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate workspaces: %w", err)
	}
	return workspaces, nil
}

// AddMember relies on the (workspace_id, user_id) primary key: a second
// insert for the same pair affects zero rows.
func (s *WorkspaceStore) AddMember(ctx context.Context, workspaceID, userID uuid.UUID) (bool, error) {
	var added bool
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO workspace_members (workspace_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT (workspace_id, user_id) DO NOTHING`,
			workspaceID, userID)
		if err != nil {
			if pgErrCode(err) == pgForeignKeyViolation {
				return repository.ErrNotFound
			}
			return fmt.Errorf("add member: %w", err)
		}
		added = tag.RowsAffected() == 1
		if !added {
			return nil
		}
		if _, err := tx.Exec(ctx, `UPDATE workspaces SET updated_at = now() WHERE id = $1`, workspaceID); err != nil {
			return fmt.Errorf("touch workspace: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// AddVideo and RemoveVideo only bump updated_at: the video list is read
// from the videos table.
func (s *WorkspaceStore) AddVideo(ctx context.Context, workspaceID, _ uuid.UUID) error {
	return s.touch(ctx, workspaceID)
}

func (s *WorkspaceStore) RemoveVideo(ctx context.Context, workspaceID, _ uuid.UUID) error {
	return s.touch(ctx, workspaceID)
}

func (s *WorkspaceStore) touch(ctx context.Context, workspaceID uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `UPDATE workspaces SET updated_at = now() WHERE id = $1`, workspaceID)
	if err != nil {
		return fmt.Errorf("touch workspace: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
