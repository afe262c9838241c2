// Package store は gorm を使った永続化層を提供します。
// users / tasks テーブルへのアクセスはすべてこのパッケージを経由します。
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/yourusername/task-keeper/internal/models"
)

var (
	// ErrDuplicate はユーザー名またはメールアドレスが既に使われていることを表します。
	ErrDuplicate = errors.New("store: duplicate record")
	// ErrNotFound は所有者で絞り込んだ結果、対象行が存在しないことを表します。
	ErrNotFound = errors.New("store: record not found")
)

const defaultQueryTimeout = 3 * time.Second

// Options はデータベース接続の設定です。
type Options struct {
	Driver       string // "sqlite" または "mysql"
	DSN          string
	QueryTimeout time.Duration
	Debug        bool // true の場合 SQL をログ出力する
}

// Open はドライバに応じて gorm の接続を開きます。テーブル作成は行いません。
func Open(opts Options) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch opts.Driver {
	case "", "sqlite":
		dsn := opts.DSN
		if dsn == "" {
			dsn = "task-keeper.db"
		}
		dialector = sqlite.Open(sqliteDSN(dsn))
	case "mysql":
		if opts.DSN == "" {
			return nil, errors.New("mysql dsn is required")
		}
		dialector = mysql.Open(mysqlDSN(opts.DSN))
	default:
		return nil, fmt.Errorf("unsupported db driver: %s", opts.Driver)
	}

	level := logger.Silent
	if opts.Debug {
		level = logger.Info
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), queryTimeout(opts.QueryTimeout))
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// Migrate は users / tasks テーブルを作成または更新します。
func Migrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil db")
	}
	return db.AutoMigrate(&models.User{}, &models.Task{})
}

// Close は接続を閉じます。
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// sqliteDSN は外部キー制約とビジータイムアウトを有効にした DSN を返します。
func sqliteDSN(dsn string) string {
	var pragmas []string
	if !strings.Contains(dsn, "foreign_keys") {
		pragmas = append(pragmas, "_pragma=foreign_keys(1)")
	}
	if !strings.Contains(dsn, "busy_timeout") {
		pragmas = append(pragmas, "_pragma=busy_timeout(5000)")
	}
	if len(pragmas) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + strings.Join(pragmas, "&")
}

// mysqlDSN は created_at などを time.Time として読めるよう parseTime を補います。
func mysqlDSN(dsn string) string {
	if strings.Contains(dsn, "parseTime=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "parseTime=true"
}

func queryTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultQueryTimeout
	}
	return d
}

// isDuplicateKey は一意制約違反かどうかを判定します。
// TranslateError に対応していないドライバ向けにメッセージも確認します。
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "Duplicate entry")
}
