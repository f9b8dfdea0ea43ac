package clients

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

var clientRowColumns = []string{"id", "tenant_id", "name", "platform_username", "platform_password", "platform_api_key", "platform_configured", "created_at", "updated_at"}

func TestPGRepoGetByIDScansCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	mock.ExpectQuery("FROM clients").
		WithArgs("client-1").
		WillReturnRows(sqlmock.NewRows(clientRowColumns).
			AddRow("client-1", "tenant-1", "Acme", "user", "pass", "key-1", true, now, now))

	repo := &PGRepo{DB: db}
	client, err := repo.GetByID(context.Background(), "client-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if !client.Credentials.Configured || client.Credentials.APIKey != "key-1" {
		t.Fatalf("unexpected credentials %+v", client.Credentials)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectQuery("FROM clients").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	repo := &PGRepo{DB: db}
	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGRepoUpdateCredentials(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	now := time.Now().UTC()
	creds := Credentials{Username: "user", Password: "pass", Configured: true}

	mock.ExpectExec("UPDATE clients").
		WithArgs("client-1", "tenant-1", "user", "pass", nil, true, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE clients").
		WithArgs("client-2", "tenant-1", "user", "pass", nil, true, now).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := &PGRepo{DB: db}
	if err := repo.UpdateCredentials(context.Background(), "tenant-1", "client-1", creds, now); err != nil {
		t.Fatalf("UpdateCredentials: %v", err)
	}
	if err := repo.UpdateCredentials(context.Background(), "tenant-1", "client-2", creds, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}
