package db

import (
	"context"
	"database/sql"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

// withMockDB routes openDB to a sqlmock connection that tracks pings.
func withMockDB(t *testing.T, setup func(sqlmock.Sqlmock)) {
	t.Helper()
	prev := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
		if err != nil {
			return nil, err
		}
		if setup != nil {
			setup(mock)
		} else {
			mock.ExpectPing()
		}
		return db, nil
	}
	t.Cleanup(func() { openDB = prev })
}

func resetSingleton() {
	singletonMu.Lock()
	singletonDB = nil
	singletonInFly = false
	singletonMu.Unlock()
}

func TestGetSingletonReturnsSamePointer(t *testing.T) {
	withMockDB(t, nil)
	resetSingleton()

	db1, err := GetSingleton(context.Background(), "postgres://ignored", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("GetSingleton first: %v", err)
	}
	db2, err := GetSingleton(context.Background(), "postgres://ignored", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("GetSingleton second: %v", err)
	}
	if db1 != db2 {
		t.Fatalf("expected singleton pointers to match")
	}
}

func TestOptionsFromEnvAppliesOverrides(t *testing.T) {
	withMockDB(t, nil)

	t.Setenv("DB_MAX_OPEN_CONNS", "7")
	t.Setenv("DB_MAX_IDLE_CONNS", "3")
	t.Setenv("DB_CONN_MAX_LIFETIME", "20m")
	t.Setenv("DB_CONN_MAX_IDLE_TIME", "45s")
	t.Setenv("DB_PING_TIMEOUT", "1s")
	t.Setenv("DB_CONNECT_ATTEMPTS", "2")

	opts := OptionsFromEnv(DefaultServerOptions())
	db, err := Connect(context.Background(), "postgres://ignored", opts)
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()

	if stats := db.Stats(); stats.MaxOpenConnections != 7 {
		t.Fatalf("expected MaxOpenConnections=7, got %d", stats.MaxOpenConnections)
	}
	if opts.MaxIdleConns != 3 || opts.ConnMaxLifetime != 20*time.Minute || opts.ConnMaxIdleTime != 45*time.Second {
		t.Fatalf("unexpected pool overrides %+v", opts)
	}
	if opts.PingTimeout != time.Second || opts.ConnectAttempts != 2 {
		t.Fatalf("unexpected connect overrides %+v", opts)
	}
}

func TestConnectRetriesPing(t *testing.T) {
	withMockDB(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing()
	})

	opts := DefaultMigrateOptions()
	opts.ConnectBackoff = time.Millisecond
	db, err := Connect(context.Background(), "postgres://ignored", opts)
	if err != nil {
		t.Fatalf("expected connect to succeed on third ping: %v", err)
	}
	db.Close()
}

func TestConnectGivesUpAfterAttempts(t *testing.T) {
	withMockDB(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
		mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	})

	opts := DefaultMigrateOptions()
	opts.ConnectAttempts = 2
	opts.ConnectBackoff = time.Millisecond
	if _, err := Connect(context.Background(), "postgres://ignored", opts); err == nil {
		t.Fatalf("expected connect to fail")
	}
}

func TestConnectRequiresURL(t *testing.T) {
	if _, err := Connect(context.Background(), " ", DefaultServerOptions()); err == nil {
		t.Fatalf("expected error for empty url")
	}
}

func TestGetSingletonRetriesAfterFailure(t *testing.T) {
	var calls int32
	withMockDB(t, nil)
	mocked := openDB
	openDB = func(name, dsn string) (*sql.DB, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("driver unavailable")
		}
		return mocked(name, dsn)
	}
	resetSingleton()

	if _, err := GetSingleton(context.Background(), "postgres://ignored", DefaultLambdaOptions()); err == nil {
		t.Fatalf("expected first call to fail")
	}
	db2, err := GetSingleton(context.Background(), "postgres://ignored", DefaultLambdaOptions())
	if err != nil {
		t.Fatalf("expected second call to succeed: %v", err)
	}
	if db2 == nil {
		t.Fatalf("expected db after retry")
	}
	resetSingleton()
}

func TestPingRequiresDatabase(t *testing.T) {
	if err := Ping(context.Background(), nil, time.Second); err == nil {
		t.Fatalf("expected error for nil database")
	}
}

func TestPingUsesDriver(t *testing.T) {
	withMockDB(t, func(mock sqlmock.Sqlmock) {
		mock.ExpectPing()
		mock.ExpectPing()
	})

	db, err := Connect(context.Background(), "postgres://ignored", DefaultMigrateOptions())
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer db.Close()
	if err := Ping(context.Background(), db, 0); err != nil {
		t.Fatalf("Ping: %v", err)
	}
}
