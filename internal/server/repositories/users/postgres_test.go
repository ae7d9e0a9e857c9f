package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/mvoronin/parceltrack/internal/common"
	"github.com/mvoronin/parceltrack/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+users\s*\(username,\s*role,\s*salt,\s*password_hash\).*RETURNING\s+id,\s*created_at`
	mock.ExpectQuery(q).
		WithArgs("alice", "agent", []byte("salt"), []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("u-1", time.Now()))

	u := &models.User{UserName: "alice", Role: models.RoleAgent, Salt: []byte("salt"), PasswordHash: []byte("hash")}
	got, err := repo.Create(context.Background(), u)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "u-1" {
		t.Fatalf("unexpected user: %+v", got)
	}
}

func TestGetByID_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*role,\s*salt,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "role", "salt", "password_hash", "created_at"}).
			AddRow("u-1", "alice", "customer", []byte("s"), []byte("h"), time.Now()))

	got, err := repo.GetByID(context.Background(), "u-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.Role != models.RoleCustomer {
		t.Fatalf("unexpected role: %v", got.Role)
	}
}

func TestGetByLogin_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*username,\s*role,\s*salt,\s*password_hash,\s*created_at\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1`
	mock.ExpectQuery(q).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByLogin(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestGetByID_BadRole(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*WHERE\s+id\s*=\s*\$1`
	mock.ExpectQuery(q).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "username", "role", "salt", "password_hash", "created_at"}).
			AddRow("u-1", "alice", "superuser", []byte("s"), []byte("h"), time.Now()))

	_, err := repo.GetByID(context.Background(), "u-1")
	if err == nil {
		t.Fatalf("expected error for unknown stored role")
	}
}
