// Package auth はサインアップ・ログイン・ログアウトとセッション検証を提供します。
package auth

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/yourusername/task-keeper/internal/apperr"
	"github.com/yourusername/task-keeper/internal/models"
	"github.com/yourusername/task-keeper/internal/session"
	"github.com/yourusername/task-keeper/internal/store"
)

const (
	msgMissingFields      = "Missing fields"
	msgMissingCredentials = "Missing credentials"
	msgAlreadyExists      = "Username or email already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgAuthRequired       = "Authentication required"
)

// CredentialStore はユーザー情報の永続化先です。
// Create は重複時に store.ErrDuplicate を返し、FindByIdentifier は未登録時に (nil, nil) を返します。
type CredentialStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByIdentifier(ctx context.Context, identifier string) (*models.User, error)
}

// SignupRequest は POST /api/auth/signup のリクエストです。
type SignupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest は POST /api/auth/login のリクエストです。identifier はユーザー名かメールアドレスです。
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// Result はサインアップ・ログイン成功時の結果です。
type Result struct {
	Identity session.Identity
	Token    string
}

// StatusResult は GET /api/auth/status のレスポンスです。
type StatusResult struct {
	LoggedIn bool   `json:"logged_in"`
	UserID   *int64 `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
}

// Service は認証処理をまとめた構造体です。
type Service struct {
	users     CredentialStore
	hasher    Hasher
	sessions  *session.Manager
	logger    *log.Logger
	dummyHash string
}

// NewService は Service を作成します。
func NewService(users CredentialStore, hasher Hasher, sessions *session.Manager, logger *log.Logger) (*Service, error) {
	if users == nil {
		return nil, errors.New("credential store is nil")
	}
	if hasher == nil {
		return nil, errors.New("hasher is nil")
	}
	if sessions == nil {
		return nil, errors.New("session manager is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	// 未登録ユーザーでも照合処理を走らせ、応答時間から存在を推測されないようにする
	dummyHash, err := hasher.Hash("task-keeper-dummy-password")
	if err != nil {
		return nil, err
	}
	return &Service{
		users:     users,
		hasher:    hasher,
		sessions:  sessions,
		logger:    logger,
		dummyHash: dummyHash,
	}, nil
}

// Signup はユーザーを登録し、そのユーザーのセッションを発行します。
// previous はクライアントが既に持っているセッショントークンで、発行時に破棄されます。
func (s *Service) Signup(ctx context.Context, previous string, req SignupRequest) (*Result, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		return nil, apperr.Validation(msgMissingFields)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, ErrPasswordTooLong) {
			return nil, apperr.Validation("Password must be at most 72 bytes")
		}
		s.logger.Printf("signup: hash password for %s: %v", username, err)
		return nil, apperr.Internal("Could not create user", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.Conflict(msgAlreadyExists)
		}
		s.logger.Printf("signup: insert user %s: %v", username, err)
		return nil, apperr.Internal("Could not create user", err)
	}

	id := session.Identity{UserID: user.ID, Username: user.Username}
	token, err := s.sessions.Rotate(ctx, previous, id)
	if err != nil {
		s.logger.Printf("signup: create session for user %d: %v", user.ID, err)
		return nil, apperr.Internal("Could not create session", err)
	}

	s.logger.Printf("user %s (id=%d) signed up", user.Username, user.ID)
	return &Result{Identity: id, Token: token}, nil
}

// Login は資格情報を照合し、成功時にセッションを発行します。
// 未登録とパスワード不一致は同じエラーを返します。
func (s *Service) Login(ctx context.Context, previous string, req LoginRequest) (*Result, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" || req.Password == "" {
		return nil, apperr.Validation(msgMissingCredentials)
	}

	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		s.logger.Printf("login: lookup %s: %v", identifier, err)
		return nil, apperr.Internal("Login failed due to an internal error", err)
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	if !s.hasher.Verify(req.Password, hash) || user == nil {
		s.logger.Printf("failed login attempt for %s", identifier)
		return nil, apperr.Unauthorized(msgInvalidCredentials)
	}

	id := session.Identity{UserID: user.ID, Username: user.Username}
	token, err := s.sessions.Rotate(ctx, previous, id)
	if err != nil {
		s.logger.Printf("login: create session for user %d: %v", user.ID, err)
		return nil, apperr.Internal("Login failed due to an internal error", err)
	}

	s.logger.Printf("user %s (id=%d) logged in", user.Username, user.ID)
	return &Result{Identity: id, Token: token}, nil
}

// Logout は有効なセッションを破棄します。セッションがない場合は認証エラーです。
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		s.logger.Printf("logout: lookup session: %v", err)
		return apperr.Internal("Logout failed", err)
	}
	if id == nil {
		return apperr.Unauthorized(msgAuthRequired)
	}
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.logger.Printf("logout: destroy session for user %d: %v", id.UserID, err)
		return apperr.Internal("Logout failed", err)
	}
	s.logger.Printf("user %s (id=%d) logged out", id.Username, id.UserID)
	return nil
}

// Status は現在のログイン状態を返します。失敗しません。
func (s *Service) Status(ctx context.Context, token string) StatusResult {
	id, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		s.logger.Printf("status: lookup session: %v", err)
		return StatusResult{}
	}
	if id == nil {
		return StatusResult{}
	}
	userID := id.UserID
	return StatusResult{LoggedIn: true, UserID: &userID, Username: id.Username}
}

// Authenticate はトークンに対応する操作主体を返します。
// セッションがなければ認証エラー、ストア障害なら内部エラーを返します。
func (s *Service) Authenticate(ctx context.Context, token string) (*session.Identity, error) {
	id, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		s.logger.Printf("authenticate: lookup session: %v", err)
		return nil, apperr.Internal("Could not verify session", err)
	}
	if id == nil {
		return nil, apperr.Unauthorized(msgAuthRequired)
	}
	return id, nil
}
