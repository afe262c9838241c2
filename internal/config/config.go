// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// セッションストアの種類
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// データベースドライバの種類
const (
	DBDriverSQLite = "sqlite"
	DBDriverMySQL  = "mysql"
)

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // APIサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り）

	// セッション設定
	SessionSecret     string // セッションクッキー署名用の秘密鍵
	SessionStore      string // memory または redis
	SessionRedisURL   string // SessionStore=redis のときの接続URL
	SessionTTLMinutes int    // セッションの有効期限（分）
	CookieSecure      bool   // Secure 属性を付けるかどうか

	// データベース設定
	DBDriver              string // sqlite または mysql
	DBDSN                 string // ドライバに渡す接続文字列
	DBQueryTimeoutSeconds int    // 1クエリあたりのタイムアウト（秒）
	DBAutoMigrate         bool   // serve 起動時にテーブルを作成/更新するか

	// パスワード設定
	BcryptCost int // bcrypt のコスト
}

// Load は環境変数から設定を読み込みます。
// .env.local ファイルが存在する場合はそこから読み込みます。
func Load() (*Config, error) {
	loadEnvFile()

	ginMode := getEnv("GIN_MODE", "debug")
	config := &Config{
		Port:    getEnv("PORT", "8080"),
		GinMode: ginMode,

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		SessionSecret:     getEnv("SESSION_SECRET", ""),
		SessionStore:      strings.ToLower(getEnv("SESSION_STORE", SessionStoreMemory)),
		SessionRedisURL:   getEnv("SESSION_REDIS_URL", "redis://127.0.0.1:6379/0"),
		SessionTTLMinutes: getEnvAsInt("SESSION_TTL_MINUTES", 720),
		// HTTPS 配信が前提の release モードでは既定で Secure を付ける
		CookieSecure: getEnvAsBool("COOKIE_SECURE", ginMode == "release"),

		DBDriver:              strings.ToLower(getEnv("DB_DRIVER", DBDriverSQLite)),
		DBDSN:                 getEnv("DB_DSN", "task-keeper.db"),
		DBQueryTimeoutSeconds: getEnvAsInt("DB_QUERY_TIMEOUT_SECONDS", 3),
		DBAutoMigrate:         getEnvAsBool("DB_AUTO_MIGRATE", true),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile() {
	if err := godotenv.Load(".env.local"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, ".env.local"))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.SessionStore {
	case SessionStoreMemory, SessionStoreRedis:
	default:
		return fmt.Errorf("SESSION_STORE must be %q or %q, got %q", SessionStoreMemory, SessionStoreRedis, c.SessionStore)
	}
	switch c.DBDriver {
	case DBDriverSQLite, DBDriverMySQL:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DBDriverSQLite, DBDriverMySQL, c.DBDriver)
	}
	if c.SessionStore == SessionStoreRedis && c.SessionRedisURL == "" {
		return fmt.Errorf("SESSION_REDIS_URL is required when SESSION_STORE=redis")
	}
	if c.SessionTTLMinutes <= 0 {
		return fmt.Errorf("SESSION_TTL_MINUTES must be positive")
	}

	// ローカル開発では秘密鍵は任意（未設定時は起動時に一時鍵を生成する）
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.DBDSN == "" {
			return fmt.Errorf("DB_DSN is required in release mode")
		}
	}

	return nil
}

// SessionTTL はセッションの有効期限を返します。
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// QueryTimeout は1クエリあたりのタイムアウトを返します。
func (c *Config) QueryTimeout() time.Duration {
	if c.DBQueryTimeoutSeconds <= 0 {
		return 3 * time.Second
	}
	return time.Duration(c.DBQueryTimeoutSeconds) * time.Second
}

// String は秘密情報を伏せた設定内容を返します。
func (c *Config) String() string {
	secret := "unset"
	if c.SessionSecret != "" {
		secret = "***"
	}
	return fmt.Sprintf("Config{port: %s, mode: %s, db: %s, session: %s (ttl %dm, secret %s)}",
		c.Port, c.GinMode, c.DBDriver, c.SessionStore, c.SessionTTLMinutes, secret)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsBool は環境変数を真偽値として取得します。
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
