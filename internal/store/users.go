package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/task-keeper/internal/models"
)

// UserStore は users テーブルへのアクセスを提供します。
type UserStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewUserStore は UserStore を作成します。
func NewUserStore(db *gorm.DB, timeout time.Duration) *UserStore {
	return &UserStore{db: db, timeout: queryTimeout(timeout)}
}

// Create は重複確認と挿入を1トランザクションで行います。
// ユーザー名かメールアドレスが既に存在する場合は ErrDuplicate を返します。
// 失敗時はロールバックされ、行は残りません。
func (s *UserStore) Create(ctx context.Context, user *models.User) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).
			Where("username = ? OR email = ?", user.Username, user.Email).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicate
		}
		return tx.Create(user).Error
	})
	if isDuplicateKey(err) {
		return ErrDuplicate
	}
	return err
}

// FindByIdentifier はユーザー名またはメールアドレスが identifier と一致する行を返します。
// ユーザー名の一致を優先します。見つからない場合は (nil, nil) を返します。
func (s *UserStore) FindByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	for _, column := range []string{"username", "email"} {
		var user models.User
		err := s.db.WithContext(ctx).Where(column+" = ?", identifier).Take(&user).Error
		if err == nil {
			return &user, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return nil, nil
}

// Delete はユーザーを削除します。タスクは外部キーの ON DELETE CASCADE で消えます。
func (s *UserStore) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res := s.db.WithContext(ctx).Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
