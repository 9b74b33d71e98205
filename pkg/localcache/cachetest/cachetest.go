// Package cachetest opens throwaway sqlite caches for tests.
package cachetest

import (
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/nearbuy-backend/pkg/localcache"
)

// New returns a cache backed by an in-memory database private to t.
func New(t testing.TB) *localcache.SQLiteStore {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	if err != nil {
		t.Fatalf("open cache db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("cache db handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	store, err := localcache.NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("init cache: %v", err)
	}
	return store
}
