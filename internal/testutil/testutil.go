// Package testutil はテスト用の共通ヘルパーを提供します。
package testutil

import (
	"strconv"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/gorm"

	"github.com/yourusername/task-keeper/internal/store"
)

var dbSeq atomic.Int64

// OpenInMemoryDB はテストごとに独立したインメモリ SQLite を開き、テーブルを作成します。
// クローズは t.Cleanup で行います。
func OpenInMemoryDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := "file:" + name + "_" + strconv.FormatInt(dbSeq.Add(1), 10) + "?mode=memory&cache=shared"

	db, err := store.Open(store.Options{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("get sql db: %v", err)
	}
	// 共有キャッシュでのロック競合を避けるため接続は1本に絞る
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = store.Close(db) })

	if err := store.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
