package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/atvirokodosprendimai/switchcore/internal/adapters/gormdb"
	"github.com/atvirokodosprendimai/switchcore/migrations"
)

func openTestDB(t *testing.T) *gormdb.DB {
	t.Helper()
	ctx := context.Background()

	db, err := gormdb.OpenSQLite(filepath.Join(t.TempDir(), "store.sqlite"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	wdb, err := db.WriteSQLDB()
	if err != nil {
		t.Fatalf("writer sql db: %v", err)
	}
	if err := migrations.Up(ctx, wdb, migrations.DialectSQLite); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}
