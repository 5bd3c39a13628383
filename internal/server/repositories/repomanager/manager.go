package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/modus/internal/dbx"
	"github.com/dmitrijs2005/modus/internal/server/repositories/posts"
	"github.com/dmitrijs2005/modus/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can
// use the same repository inside and outside transactions.
type RepositoryManager interface {
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
