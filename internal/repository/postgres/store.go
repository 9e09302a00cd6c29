package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lalith-99/reelroom/internal/repository"
)

// New returns the three repositories sharing one pool. The pool is
// goroutine-safe.
func New(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Users:      NewUserStore(pool),
		Workspaces: NewWorkspaceStore(pool),
		Videos:     NewVideoStore(pool),
	}
}
