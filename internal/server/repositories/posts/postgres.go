package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/modus/internal/common"
	"github.com/dmitrijs2005/modus/internal/dbx"
	"github.com/dmitrijs2005/modus/internal/server/models"
)

// PostgresRepository implements post storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateIfAbsent relies on the content-addressed primary key: a conflict
// means the identical payload is already stored, so it is skipped.
func (r *PostgresRepository) CreateIfAbsent(ctx context.Context, post *models.Post) error {
	query :=
		`INSERT INTO posts (id, payload)
		 VALUES ($1, $2)
		 ON CONFLICT (id) DO NOTHING
		 `

	if _, err := r.db.ExecContext(ctx, query, post.ID, post.Payload); err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	query :=
		`SELECT id, payload FROM posts
		 WHERE id = $1
		 `

	post := &models.Post{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&post.ID, &post.Payload)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return post, nil
}
