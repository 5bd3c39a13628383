package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dmitrijs2005/modus/internal/server/models"
	"github.com/dmitrijs2005/modus/internal/server/repositories/repomanager"
)

// PostService stores posts under the sha256 digest of their payload, so
// resubmitting identical content yields the same id instead of a
// duplicate row.
type PostService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewPostService(db *sql.DB, m repomanager.RepositoryManager) *PostService {
	return &PostService{db: db, repomanager: m}
}

// PostID derives the content address of a payload. json.Marshal sorts
// map keys, so equal payloads always serialize the same way.
func PostID(payload map[string]any) (string, json.RawMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("encoding post payload: %w", err)
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:]), raw, nil
}

// Create stores the payload and returns its content-addressed id.
func (s *PostService) Create(ctx context.Context, payload map[string]any) (string, error) {
	id, raw, err := PostID(payload)
	if err != nil {
		return "", err
	}

	repo := s.repomanager.Posts(s.db)
	if err := repo.CreateIfAbsent(ctx, &models.Post{ID: id, Payload: raw}); err != nil {
		return "", fmt.Errorf("error creating post: %w", err)
	}
	return id, nil
}

// Get returns the post stored under id.
func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	repo := s.repomanager.Posts(s.db)
	return repo.GetByID(ctx, id)
}
