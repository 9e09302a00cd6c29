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

type VideoStore struct {
	pool *pgxpool.Pool
}

func NewVideoStore(pool *pgxpool.Pool) *VideoStore {
	return &VideoStore{pool: pool}
}

const selectVideo = `
	SELECT id, title, url, storage_key, storage_backend, content_type, size_bytes,
	       workspace_id, uploader_id, is_public, created_at, updated_at
	FROM videos`

func scanVideo(row pgx.Row) (*models.Video, error) {
	var v models.Video
	err := row.Scan(
		&v.ID,
		&v.Title,
		&v.URL,
		&v.StorageKey,
		&v.StorageBackend,
		&v.ContentType,
		&v.Size,
		&v.WorkspaceID,
		&v.UploaderID,
		&v.IsPublic,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	v.Comments = make([]models.Comment, 0)
	return &v, nil
}

func (s *VideoStore) Create(ctx context.Context, v *models.Video) error {
	query := `
		INSERT INTO videos (id, title, url, storage_key, storage_backend, content_type, size_bytes,
		                    workspace_id, uploader_id, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := s.pool.Exec(ctx, query,
		v.ID, v.Title, v.URL, v.StorageKey, v.StorageBackend, v.ContentType, v.Size,
		v.WorkspaceID, v.UploaderID, v.IsPublic, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		switch pgErrCode(err) {
		case pgUniqueViolation:
			return repository.ErrDuplicate
		case pgForeignKeyViolation:
			return repository.ErrNotFound
		}
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

func (s *VideoStore) GetByID(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	v, err := scanVideo(s.pool.QueryRow(ctx, selectVideo+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get video: %w", err)
	}

	comments, err := s.listComments(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	v.Comments = append(v.Comments, comments[id]...)
	return v, nil
}

func (s *VideoStore) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]models.Video, error) {
	rows, err := s.pool.Query(ctx, selectVideo+` WHERE workspace_id = $1 ORDER BY created_at DESC`, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	videos := make([]models.Video, 0)
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		v, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, *v)
		ids = append(ids, v.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate videos: %w", err)
	}
	if len(ids) == 0 {
		return videos, nil
	}

	comments, err := s.listComments(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range videos {
		videos[i].Comments = append(videos[i].Comments, comments[videos[i].ID]...)
	}
	return videos, nil
}

// listComments loads comments for several videos in one query, in insertion
// order.
func (s *VideoStore) listComments(ctx context.Context, videoIDs []uuid.UUID) (map[uuid.UUID][]models.Comment, error) {
	query := `
		SELECT video_id, name, body, position_seconds, created_at
		FROM video_comments
		WHERE video_id = ANY($1::uuid[])
		ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query, idStrings(videoIDs))
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.Comment, len(videoIDs))
	for rows.Next() {
		var (
			videoID uuid.UUID
			c       models.Comment
		)
		if err := rows.Scan(&videoID, &c.Name, &c.Text, &c.Timestamp, &c.Date); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out[videoID] = append(out[videoID], c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}
	return out, nil
}

func (s *VideoStore) SetPublic(ctx context.Context, id uuid.UUID, isPublic bool) (*models.Video, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE videos SET is_public = $2, updated_at = now() WHERE id = $1`, id, isPublic)
	if err != nil {
		return nil, fmt.Errorf("set video visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, repository.ErrNotFound
	}

	v, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

// Delete cascades to video_comments.
func (s *VideoStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM videos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// AppendComment is a single INSERT, so concurrent appends never overwrite
// each other. The foreign key turns a missing video into ErrNotFound.
func (s *VideoStore) AppendComment(ctx context.Context, videoID uuid.UUID, c models.Comment) ([]models.Comment, error) {
	query := `
		INSERT INTO video_comments (video_id, name, body, position_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	if _, err := s.pool.Exec(ctx, query, videoID, c.Name, c.Text, c.Timestamp, c.Date); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `UPDATE videos SET updated_at = now() WHERE id = $1`, videoID); err != nil {
		return nil, fmt.Errorf("touch video: %w", err)
	}

	comments, err := s.listComments(ctx, []uuid.UUID{videoID})
	if err != nil {
		return nil, err
	}
	return append(make([]models.Comment, 0, len(comments[videoID])), comments[videoID]...), nil
}
