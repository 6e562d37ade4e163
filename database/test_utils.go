package database

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apilog "quicker-admin/models/log"
)

// SetupSQLiteTestDB returns a migrated in-memory database.
// The pool is pinned to one connection since every :memory: connection is a separate database.
func SetupSQLiteTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), gormConfig(gormlogger.Discard))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// SetupSQLiteFileTestDB returns a migrated database file opened with the
// production DSN and a pool of several connections, so transactions from
// different goroutines really run side by side.
func SetupSQLiteFileTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "quicker_test.db")
	db, err := gorm.Open(sqlite.Open(SQLiteDSN(path)), gormConfig(gormlogger.Discard))
	if err != nil {
		t.Fatalf("failed to open test database file: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// StartBackgroundWrites inserts an API log row every interval on its own
// goroutine until the returned stop function is called. stop reports how
// many inserts failed.
func StartBackgroundWrites(t testing.TB, db *gorm.DB, interval time.Duration) (stop func() int) {
	t.Helper()

	done := make(chan struct{})
	var wg sync.WaitGroup
	failures := 0
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				row := apilog.ApiLog{ApiKeyID: 1, Endpoint: "/api/v1/verify", Method: "POST", StatusCode: 200, Timestamp: time.Now().UTC()}
				if err := db.Create(&row).Error; err != nil {
					failures++
				}
			}
		}
	}()

	var once sync.Once
	stop = func() int {
		once.Do(func() {
			close(done)
			wg.Wait()
		})
		return failures
	}
	t.Cleanup(func() { stop() })
	return stop
}
