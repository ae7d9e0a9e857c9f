package packages

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

const (
	qInsertPackage = `(?s)^INSERT\s+INTO\s+packages\s*\(id,\s*owner_id,\s*encrypted_payload,\s*status,\s*created_at,\s*updated_at\)`
	qInsertAgent   = `(?s)^INSERT\s+INTO\s+package_agents\s*\(package_id,\s*agent_id\)`
	qSelectPackage = `(?s)^SELECT\s+id,\s*owner_id,\s*encrypted_payload,\s*status,\s*created_at,\s*updated_at\s+FROM\s+packages\s+WHERE\s+id\s*=\s*\$1`
	qSelectAgents  = `(?s)^SELECT\s+agent_id\s+FROM\s+package_agents\s+WHERE\s+package_id\s*=\s*\$1`
	qSelectForUpd  = `(?s)^SELECT\s+status\s+FROM\s+packages\s+WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE`
	qUpdateStatus  = `(?s)^UPDATE\s+packages\s+SET\s+status\s*=\s*\$1,\s*updated_at\s*=\s*\$2\s+WHERE\s+id\s*=\s*\$3`
)

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(qInsertPackage).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertAgent).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertAgent).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	pkg := &models.Package{
		Owner:            "cust-1",
		AssignedAgents:   []string{"agent-1", "agent-2"},
		EncryptedPayload: []byte{0x01},
	}
	got, err := repo.Create(context.Background(), pkg)
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID == "" || got.Status != models.StatusPending {
		t.Fatalf("unexpected package: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_Validation(t *testing.T) {
	repo, _, db := newRepoWithMock(t)
	defer db.Close()

	_, err := repo.Create(context.Background(), &models.Package{
		Owner:            "",
		AssignedAgents:   []string{"agent-1"},
		EncryptedPayload: []byte{0x01},
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}

	_, err = repo.Create(context.Background(), &models.Package{
		Owner:            "cust-1",
		EncryptedPayload: []byte{0x01},
	})
	if !errors.Is(err, common.ErrValidation) {
		t.Fatalf("want ErrValidation for empty agent set, got %v", err)
	}
}

func TestCreate_RollbackOnAgentInsertError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(qInsertPackage).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(qInsertAgent).WillReturnError(errors.New("fk violation"))
	mock.ExpectRollback()

	_, err := repo.Create(context.Background(), &models.Package{
		Owner:            "cust-1",
		AssignedAgents:   []string{"ghost-agent"},
		EncryptedPayload: []byte{0x01},
	})
	if err == nil {
		t.Fatalf("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(qSelectPackage).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "owner_id", "encrypted_payload", "status", "created_at", "updated_at"}).
			AddRow("p-1", "cust-1", []byte{0x01}, "in_transit", now, now))
	mock.ExpectQuery(qSelectAgents).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id"}).AddRow("agent-1").AddRow("agent-2"))

	got, err := repo.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Status != models.StatusInTransit || len(got.AssignedAgents) != 2 {
		t.Fatalf("unexpected package: %+v", got)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(qSelectPackage).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost")
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestSetStatus_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectQuery(qSelectForUpd).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("pending"))
	mock.ExpectExec(qUpdateStatus).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(qSelectPackage).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "owner_id", "encrypted_payload", "status", "created_at", "updated_at"}).
			AddRow("p-1", "cust-1", []byte{0x01}, "delivered", now, now))
	mock.ExpectQuery(qSelectAgents).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id"}).AddRow("agent-1"))
	mock.ExpectCommit()

	got, err := repo.SetStatus(context.Background(), "p-1", models.StatusDelivered)
	if err != nil {
		t.Fatalf("SetStatus error: %v", err)
	}
	if got.Status != models.StatusDelivered {
		t.Fatalf("unexpected status: %v", got.Status)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetStatus_InvalidTransition(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(qSelectForUpd).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("delivered"))
	mock.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), "p-1", models.StatusFailed)
	if !errors.Is(err, common.ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
}

func TestSetStatus_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectQuery(qSelectForUpd).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.SetStatus(context.Background(), "ghost", models.StatusDelivered)
	if !errors.Is(err, common.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestListByAssignedAgent(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	q := `(?s)^SELECT\s+p\.id,.*FROM\s+packages\s+p\s+JOIN\s+package_agents`
	mock.ExpectQuery(q).
		WithArgs("agent-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "owner_id", "encrypted_payload", "status", "created_at", "updated_at"}).
			AddRow("p-2", "cust-1", []byte{0x02}, "pending", now, now).
			AddRow("p-1", "cust-2", []byte{0x01}, "delivered", now.Add(-time.Hour), now))
	mock.ExpectQuery(qSelectAgents).
		WithArgs("p-2").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id"}).AddRow("agent-1"))
	mock.ExpectQuery(qSelectAgents).
		WithArgs("p-1").
		WillReturnRows(sqlmock.NewRows([]string{"agent_id"}).AddRow("agent-1"))

	got, err := repo.ListByAssignedAgent(context.Background(), "agent-1")
	if err != nil {
		t.Fatalf("ListByAssignedAgent error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "p-2" {
		t.Fatalf("unexpected result: %+v", got)
	}
}
