package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/keyvault/internal/common"
	"github.com/dmitrijs2005/keyvault/internal/server/models"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	var _ RepositoryManager = NewPostgresRepositoryManager(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := NewPostgresRepositoryManager(db)
	if err := m.RunMigrations(context.Background()); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestPostgresWithTx_Commit(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT\s+INTO\s+access_keys`).
		WithArgs("SKY-AAA", "trial", false, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManager(db)
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Keys().Create(ctx, &models.AccessKey{Key: "SKY-AAA", DurationClass: models.DurationTrial, CreatedAt: now})
	})
	if err != nil {
		t.Fatalf("WithTx error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresWithTx_RollbackOnError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE\s+access_keys`).WithArgs("SKY-AAA").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	m := NewPostgresRepositoryManager(db)
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Keys().MarkUsed(ctx, "SKY-AAA")
	})
	if !errors.Is(err, common.ErrKeyAlreadyUsed) {
		t.Fatalf("want ErrKeyAlreadyUsed, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPostgresWithTx_AccountsRepository(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE\s+FROM\s+accounts`).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	m := NewPostgresRepositoryManager(db)
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		return repos.Accounts().Delete(ctx, "alice")
	})
	if err != nil {
		t.Fatalf("WithTx error: %v", err)
	}
}

func TestPostgresWithTx_BeginError(t *testing.T) {
	db, mock := newDB(t)
	defer db.Close()

	mock.ExpectBegin().WillReturnError(errors.New("no conn"))

	m := NewPostgresRepositoryManager(db)
	called := false
	err := m.WithTx(context.Background(), func(ctx context.Context, repos Repositories) error {
		called = true
		return nil
	})
	if err == nil || called {
		t.Fatalf("expected begin error without calling fn, got err=%v called=%v", err, called)
	}
}

func TestOpenPostgres_PingError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectClose()

	orig := sqlOpen
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		if driver != "pgx" {
			t.Fatalf("unexpected driver %q", driver)
		}
		return db, nil
	}
	defer func() { sqlOpen = orig }()

	if _, err := OpenPostgres(context.Background(), "postgres://x"); err == nil {
		t.Fatalf("expected ping error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
