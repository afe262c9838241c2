// Package session はサーバー側で保持するログインセッションを管理します。
// クライアントには推測不能なトークンだけを渡し、ユーザー情報はストア側に保存します。
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// Identity はセッションに紐づく操作主体です。
type Identity struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
}

// Record はストアに保存するセッション情報です。
type Record struct {
	Identity
	IssuedAt time.Time `json:"issued_at"`
}

// Store はセッションの保存先です。
// Load は存在しないトークンに対して (nil, nil) を返します。
// Delete は存在しないトークンに対してもエラーを返しません。
type Store interface {
	Save(ctx context.Context, token string, record *Record, ttl time.Duration) error
	Load(ctx context.Context, token string) (*Record, error)
	Delete(ctx context.Context, token string) error
}

// Manager はセッションの発行・参照・破棄を担います。
type Manager struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewManager は Manager を作成します。
func NewManager(store Store, ttl time.Duration) *Manager {
	return &Manager{
		store: store,
		ttl:   ttl,
		now:   time.Now,
	}
}

// TTL はセッションの有効期限を返します。
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Create は新しいセッションを発行し、トークンを返します。
func (m *Manager) Create(ctx context.Context, id Identity) (string, error) {
	token, err := generateToken()
	if err != nil {
		return "", err
	}
	record := &Record{Identity: id, IssuedAt: m.now().UTC()}
	if err := m.store.Save(ctx, token, record, m.ttl); err != nil {
		return "", err
	}
	return token, nil
}

// Rotate は previous のセッションを破棄してから新しいセッションを発行します。
// 同じクライアントが古いセッションを持ち続けないようにするために使います。
func (m *Manager) Rotate(ctx context.Context, previous string, id Identity) (string, error) {
	if previous != "" {
		if err := m.Destroy(ctx, previous); err != nil {
			return "", err
		}
	}
	return m.Create(ctx, id)
}

// Lookup はトークンに対応する操作主体を返します。
// 不明なトークンや期限切れの場合は (nil, nil) を返します。
func (m *Manager) Lookup(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	record, err := m.store.Load(ctx, token)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.IssuedAt.IsZero() || (m.ttl > 0 && m.now().Sub(record.IssuedAt) > m.ttl) {
		_ = m.store.Delete(ctx, token)
		return nil, nil
	}
	id := record.Identity
	return &id, nil
}

// Destroy はセッションを破棄します。二重に呼んでもエラーになりません。
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return m.store.Delete(ctx, token)
}

// ErrEmptyToken は空トークンでストアを操作しようとしたことを表します。
var ErrEmptyToken = errors.New("session: empty token")

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
