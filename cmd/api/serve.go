package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yourusername/task-keeper/internal/auth"
	"github.com/yourusername/task-keeper/internal/config"
	"github.com/yourusername/task-keeper/internal/httpx"
	"github.com/yourusername/task-keeper/internal/session"
	"github.com/yourusername/task-keeper/internal/store"
	"github.com/yourusername/task-keeper/internal/tasks"
)

const shutdownTimeout = 5 * time.Second

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.New(os.Stdout, "[task-keeper] ", log.LstdFlags)

	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Printf("loaded %s", cfg)

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(db); err != nil {
			logger.Printf("close db: %v", err)
		}
	}()
	if cfg.DBAutoMigrate {
		if err := store.Migrate(db); err != nil {
			return fmt.Errorf("migrate db: %w", err)
		}
	}

	sessionStore, closeSessions, err := openSessionStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeSessions(); err != nil {
			logger.Printf("close session store: %v", err)
		}
	}()

	if cfg.SessionSecret == "" {
		secret, err := randomSecret()
		if err != nil {
			return err
		}
		cfg.SessionSecret = secret
		logger.Printf("SESSION_SECRET is unset; using a temporary key (sessions will not survive restarts)")
	}

	router, err := buildRouter(cfg, db, sessionStore, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("Starting API server on %s (mode: %s)", srv.Addr, cfg.GinMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	// シグナルを待つ
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("start server: %w", err)
		}
		return nil
	case sig := <-sigc:
		logger.Printf("received %s, shutting down", sig)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runInitDB() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close(db) }()

	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("migrate db: %w", err)
	}
	log.Printf("database initialized (driver: %s)", cfg.DBDriver)
	return nil
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := store.Open(store.Options{
		Driver:       cfg.DBDriver,
		DSN:          cfg.DBDSN,
		QueryTimeout: cfg.QueryTimeout(),
		Debug:        cfg.GinMode == gin.DebugMode,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return db, nil
}

// openSessionStore は設定に応じたセッションストアと、その後始末関数を返します。
func openSessionStore(ctx context.Context, cfg *config.Config) (session.Store, func() error, error) {
	switch cfg.SessionStore {
	case config.SessionStoreRedis:
		rs, err := session.NewRedisStoreFromURL(ctx, cfg.SessionRedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("connect session redis: %w", err)
		}
		return rs, rs.Close, nil
	default:
		return session.NewMemoryStore(), func() error { return nil }, nil
	}
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return string(b), nil
}

// buildRouter はミドルウェアとルーティングを組み立てます。
func buildRouter(cfg *config.Config, db *gorm.DB, sessionStore session.Store, logger *log.Logger) (*gin.Engine, error) {
	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(httpx.RequestID())

	// CORSミドルウェアの設定（カンマ区切りの文字列を配列に変換）
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = splitOrigins(cfg.CORSAllowedOrigins)
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsConfig.ExposeHeaders = []string{httpx.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	ttl := cfg.SessionTTL()
	router.Use(auth.CookieSessions(auth.CookieOptions{
		Secret: []byte(cfg.SessionSecret),
		MaxAge: int(ttl / time.Second),
		Secure: cfg.CookieSecure,
	}))

	timeout := cfg.QueryTimeout()
	authSvc, err := auth.NewService(
		store.NewUserStore(db, timeout),
		auth.NewBcryptHasher(cfg.BcryptCost),
		session.NewManager(sessionStore, ttl),
		logger,
	)
	if err != nil {
		return nil, fmt.Errorf("build auth service: %w", err)
	}
	taskSvc, err := tasks.NewService(store.NewTaskStore(db, timeout), logger)
	if err != nil {
		return nil, fmt.Errorf("build task service: %w", err)
	}

	setupRoutes(router, authSvc, taskSvc, logger)
	return router, nil
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "task-keeper-api",
		"version": version,
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, authSvc *auth.Service, taskSvc *tasks.Service, logger *log.Logger) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		auth.NewHandler(authSvc, logger).Register(api.Group("/auth"))

		protected := api.Group("")
		protected.Use(auth.RequireSession(authSvc, logger))
		tasks.NewHandler(taskSvc, auth.IdentityFrom, logger).Register(protected)
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"http://localhost:5173"}
	}
	return origins
}
