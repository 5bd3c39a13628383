package users

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/modus/internal/common"
	"github.com/dmitrijs2005/modus/internal/server/models"
)

func newSQLMockDB(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate_ReturnsID(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO users")).
		WithArgs("a@b.com", "a", "digest").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("uid-1"))

	u, err := repo.Create(context.Background(), &models.User{
		Email:          "a@b.com",
		Username:       "a",
		PasswordDigest: "digest",
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if u.ID != "uid-1" {
		t.Fatalf("id: got %q", u.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	rows := sqlmock.NewRows([]string{"id", "email", "username", "password_digest"}).
		AddRow("uid-1", "a@b.com", "a", "digest")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, username, password_digest FROM users")).
		WithArgs("a@b.com").
		WillReturnRows(rows)

	u, err := repo.GetByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("GetByEmail error: %v", err)
	}
	if u.Username != "a" || u.PasswordDigest != "digest" {
		t.Fatalf("unexpected user: %+v", u)
	}
}

func TestGetByEmail_NotFound(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, username, password_digest FROM users")).
		WithArgs("missing@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "username", "password_digest"}))

	_, err := repo.GetByEmail(context.Background(), "missing@b.com")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("expected ErrorNotFound, got %v", err)
	}
}

func TestExistsByEmail(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := repo.ExistsByEmail(context.Background(), "a@b.com")
	if err != nil {
		t.Fatalf("ExistsByEmail error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists=true")
	}
}

func TestExistsByEmail_DBError(t *testing.T) {
	repo, mock := newSQLMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs("a@b.com").
		WillReturnError(errors.New("connection refused"))

	_, err := repo.ExistsByEmail(context.Background(), "a@b.com")
	if err == nil {
		t.Fatal("expected error")
	}
}
