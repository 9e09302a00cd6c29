package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/reelroom/internal/models"
	"github.com/lalith-99/reelroom/internal/repository"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

// selectUser aggregates the denormalized workspace list alongside the row.
const selectUser = `
	SELECT u.id, u.name, u.email, u.password_hash, u.plan, u.created_at,
	       ARRAY(SELECT uw.workspace_id::text FROM user_workspaces uw
	             WHERE uw.user_id = u.id ORDER BY uw.added_at)
	FROM users u`

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u          models.User
		plan       string
		workspaces []string
	)
	if err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &plan, &u.CreatedAt, &workspaces); err != nil {
		return nil, err
	}
	u.Plan = models.Plan(plan)
	u.WorkspaceIDs = parseIDs(workspaces)
	return &u, nil
}

func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, plan, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := s.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash, string(user.Plan), user.CreatedAt)
	if err != nil {
		if pgErrCode(err) == pgUniqueViolation {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE u.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, selectUser+` WHERE u.email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	users := make([]models.User, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}

	rows, err := s.pool.Query(ctx, selectUser+` WHERE u.id = ANY($1::uuid[])`, idStrings(ids))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func (s *UserStore) AddWorkspace(ctx context.Context, userID, workspaceID uuid.UUID) error {
	query := `
		INSERT INTO user_workspaces (user_id, workspace_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, workspace_id) DO NOTHING`

	if _, err := s.pool.Exec(ctx, query, userID, workspaceID); err != nil {
		if pgErrCode(err) == pgForeignKeyViolation {
			return repository.ErrNotFound
		}
		return fmt.Errorf("add user workspace: %w", err)
	}
	return nil
}

func (s *UserStore) SetPlan(ctx context.Context, userID uuid.UUID, plan models.Plan) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET plan = $2 WHERE id = $1`, userID, string(plan))
	if err != nil {
		return fmt.Errorf("set plan: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.String())
	}
	return out
}

func parseIDs(ss []string) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ss))
	for _, s := range ss {
		if id, err := uuid.Parse(s); err == nil {
			out = append(out, id)
		}
	}
	return out
}
