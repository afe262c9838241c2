package store

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/task-keeper/internal/models"
)

// TaskStore は tasks テーブルへのアクセスを提供します。
// 参照・更新・削除はすべて (id, user_id) の組で絞り込みます。
type TaskStore struct {
	db      *gorm.DB
	timeout time.Duration
}

// NewTaskStore は TaskStore を作成します。
func NewTaskStore(db *gorm.DB, timeout time.Duration) *TaskStore {
	return &TaskStore{db: db, timeout: queryTimeout(timeout)}
}

// Create はタスクを1件挿入し、採番された ID を task に設定します。
func (s *TaskStore) Create(ctx context.Context, task *models.Task) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(task).Error
	})
}

// ListByOwner は ownerID が所有するタスクを作成日時の新しい順に返します。
func (s *TaskStore) ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var tasks []models.Task
	err := s.db.WithContext(ctx).
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].DueDate = normalizeDueDate(tasks[i].DueDate)
		tasks[i].DueTime = normalizeDueTime(tasks[i].DueTime)
	}
	return tasks, nil
}

// UpdateOwned は所有者で絞り込んだ UPDATE を実行します。
// 変更行数が 0 の場合は同じトランザクション内で存在を確認し、
// 所有するタスクが残っていれば変更なしとして成功、なければ ErrNotFound を返します。
func (s *TaskStore) UpdateOwned(ctx context.Context, ownerID, taskID int64, name string, dueDate, dueTime *string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", taskID, ownerID).
			Updates(map[string]any{
				"name":     name,
				"due_date": dueDate,
				"due_time": dueTime,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		var count int64
		if err := tx.Model(&models.Task{}).
			Where("id = ? AND user_id = ?", taskID, ownerID).
			Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteOwned は所有者で絞り込んだ DELETE を実行します。
// 削除行がない場合は ErrNotFound を返します。
func (s *TaskStore) DeleteOwned(ctx context.Context, ownerID, taskID int64) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", taskID, ownerID).Delete(&models.Task{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// normalizeDueDate はドライバごとの DATE 表現（"2024-03-01" や RFC3339）を YYYY-MM-DD に揃えます。
func normalizeDueDate(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	s := *v
	if len(s) > 10 {
		s = s[:10]
	}
	return &s
}

// normalizeDueTime は "14:30:00" のような TIME 表現を HH:MM に揃えます。
func normalizeDueTime(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	s := *v
	if len(s) == 7 {
		// MySQL は 9 時台を "9:30:00" と返すことがある
		s = "0" + s
	}
	if len(s) > 5 {
		s = s[:5]
	}
	return &s
}
