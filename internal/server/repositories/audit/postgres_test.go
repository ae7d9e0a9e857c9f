package audit

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

const qInsert = `(?s)^INSERT\s+INTO\s+audit_entries\s*\(id,\s*package_id,\s*actor_id,\s*actor_role,\s*action,\s*detail,\s*ts\).*RETURNING\s+seq`

func testEntry() *models.AuditEntry {
	return &models.AuditEntry{
		ID:        "e-1",
		PackageID: "p-1",
		ActorID:   "agent-1",
		ActorRole: models.RoleAgent,
		Action:    models.ActionDecryptAttempted,
		Detail:    models.DetailDenied,
		Timestamp: time.Now().UTC(),
	}
}

func TestAppend_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).
		WillReturnRows(sqlmock.NewRows([]string{"seq"}).AddRow(int64(7)))

	e := testEntry()
	if err := repo.Append(context.Background(), e); err != nil {
		t.Fatalf("Append error: %v", err)
	}
	if e.Seq != 7 {
		t.Fatalf("seq not assigned: %+v", e)
	}
}

func TestAppend_StorageError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qInsert).WillReturnError(errors.New("disk full"))

	err := repo.Append(context.Background(), testEntry())
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}

func TestQueryByPackage_Order(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+seq,.*WHERE\s+package_id\s*=\s*\$1\s+ORDER\s+BY\s+ts,\s*seq`
	now := time.Now().UTC()
	mock.ExpectQuery(q).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"seq", "id", "package_id", "actor_id", "actor_role", "action", "detail", "ts"}).
			AddRow(int64(1), "e-1", "p-1", "adm", "admin", "created", "", now).
			AddRow(int64(2), "e-2", "p-1", "agent-1", "agent", "status_changed", "delivered", now.Add(time.Minute)))

	got, err := repo.QueryByPackage(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("QueryByPackage error: %v", err)
	}
	if len(got) != 2 || got[0].Action != models.ActionCreated || got[1].ActorRole != models.RoleAgent {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestQueryByAgent_Error(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+seq,.*WHERE\s+actor_id\s*=\s*\$1\s+ORDER\s+BY\s+ts\s+DESC,\s*seq\s+DESC`
	mock.ExpectQuery(q).WithArgs("agent-1").WillReturnError(errors.New("db down"))

	_, err := repo.QueryByAgent(context.Background(), "agent-1")
	if !errors.Is(err, common.ErrStorage) {
		t.Fatalf("want ErrStorage, got %v", err)
	}
}
