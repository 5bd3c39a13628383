// Package services contains server-side business logic: account
// registration and login, content-addressed posts, and image blobs.
package services

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/modus/internal/common"
	"github.com/dmitrijs2005/modus/internal/server/models"
	"github.com/dmitrijs2005/modus/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/modus/internal/validation"
)

// UserService handles registration and credential verification.
type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager) *UserService {
	return &UserService{db: db, repomanager: m}
}

// DigestPassword returns the hex sha256 digest stored instead of the
// plaintext password.
func DigestPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates a new user. The password is digested before it
// reaches the repository.
func (s *UserService) Register(ctx context.Context, email, username, password string) (*models.User, error) {
	user := &models.User{
		Email:          email,
		Username:       username,
		PasswordDigest: DigestPassword(password),
	}
	repo := s.repomanager.Users(s.db)
	u, err := repo.Create(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return u, nil
}

// Login verifies the credentials and returns the user. A missing
// account and a wrong password both come back as
// common.ErrorInvalidCredentials, so callers cannot tell which emails
// are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorInvalidCredentials
		}
		return nil, common.ErrorInternal
	}

	digest := DigestPassword(password)
	if subtle.ConstantTimeCompare([]byte(digest), []byte(user.PasswordDigest)) != 1 {
		return nil, common.ErrorInvalidCredentials
	}
	return user, nil
}

// EmailLookup adapts the users repository into the uniqueness oracle
// the validation chain consumes.
func (s *UserService) EmailLookup() validation.Lookup {
	return validation.LookupFunc(func(ctx context.Context, filter map[string]any) (bool, error) {
		email, _ := filter["email"].(string)
		repo := s.repomanager.Users(s.db)
		return repo.ExistsByEmail(ctx, email)
	})
}
