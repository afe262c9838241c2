// Package tasks は利用者ごとの ToDo の作成・一覧・更新・削除を提供します。
package tasks

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/yourusername/task-keeper/internal/apperr"
	"github.com/yourusername/task-keeper/internal/models"
	"github.com/yourusername/task-keeper/internal/session"
	"github.com/yourusername/task-keeper/internal/store"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"

	msgAuthRequired = "Authentication required"
	msgNameRequired = "Task name is required"
	msgNotFound     = "Task not found"
	msgInvalidBody  = "Request body must be a JSON object"
)

// Repository はタスクの永続化先です。更新・削除は所有者で絞り込み、
// 対象がなければ store.ErrNotFound を返します。
type Repository interface {
	Create(ctx context.Context, task *models.Task) error
	ListByOwner(ctx context.Context, ownerID int64) ([]models.Task, error)
	UpdateOwned(ctx context.Context, ownerID, taskID int64, name string, dueDate, dueTime *string) error
	DeleteOwned(ctx context.Context, ownerID, taskID int64) error
}

// Input は作成・更新リクエストの本文です。
// due_date / due_time は省略・null・空文字のいずれも「未設定」として扱います。
type Input struct {
	Name    string  `json:"name"`
	DueDate *string `json:"due_date"`
	DueTime *string `json:"due_time"`
}

// View は一覧で返すタスクの表現です。未設定の期日は null になります。
type View struct {
	ID      int64   `json:"id"`
	Name    string  `json:"name"`
	DueDate *string `json:"due_date"`
	DueTime *string `json:"due_time"`
}

type normalizedInput struct {
	name    string
	dueDate *string
	dueTime *string
}

// Service はタスク操作をまとめた構造体です。
type Service struct {
	repo   Repository
	logger *log.Logger
}

// NewService は Service を作成します。
func NewService(repo Repository, logger *log.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.New("task repository is nil")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Service{repo: repo, logger: logger}, nil
}

// Create は actor が所有するタスクを作成し、その ID を返します。
func (s *Service) Create(ctx context.Context, actor *session.Identity, in Input) (int64, error) {
	if actor == nil {
		return 0, apperr.Unauthorized(msgAuthRequired)
	}
	norm, err := normalize(in)
	if err != nil {
		return 0, err
	}

	task := &models.Task{
		UserID:  actor.UserID,
		Name:    norm.name,
		DueDate: norm.dueDate,
		DueTime: norm.dueTime,
	}
	if err := s.repo.Create(ctx, task); err != nil {
		s.logger.Printf("create task for user %d: %v", actor.UserID, err)
		return 0, apperr.Internal("Could not create task", err)
	}
	s.logger.Printf("task %d created by user %d", task.ID, actor.UserID)
	return task.ID, nil
}

// List は actor が所有するタスクを新しい順に返します。
func (s *Service) List(ctx context.Context, actor *session.Identity) ([]View, error) {
	if actor == nil {
		return nil, apperr.Unauthorized(msgAuthRequired)
	}
	rows, err := s.repo.ListByOwner(ctx, actor.UserID)
	if err != nil {
		s.logger.Printf("list tasks for user %d: %v", actor.UserID, err)
		return nil, apperr.Internal("Could not fetch tasks", err)
	}
	views := make([]View, 0, len(rows))
	for _, row := range rows {
		views = append(views, View{
			ID:      row.ID,
			Name:    row.Name,
			DueDate: emptyToNil(row.DueDate),
			DueTime: emptyToNil(row.DueTime),
		})
	}
	return views, nil
}

// Update は actor が所有するタスクを更新します。
// 存在しない場合と他人のタスクの場合は区別せず NotFound を返します。
func (s *Service) Update(ctx context.Context, actor *session.Identity, taskID int64, in Input) error {
	if actor == nil {
		return apperr.Unauthorized(msgAuthRequired)
	}
	norm, err := normalize(in)
	if err != nil {
		return err
	}
	if taskID <= 0 {
		return apperr.NotFound(msgNotFound)
	}

	if err := s.repo.UpdateOwned(ctx, actor.UserID, taskID, norm.name, norm.dueDate, norm.dueTime); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgNotFound)
		}
		s.logger.Printf("update task %d for user %d: %v", taskID, actor.UserID, err)
		return apperr.Internal("Could not update task", err)
	}
	s.logger.Printf("task %d updated by user %d", taskID, actor.UserID)
	return nil
}

// Delete は actor が所有するタスクを削除します。
func (s *Service) Delete(ctx context.Context, actor *session.Identity, taskID int64) error {
	if actor == nil {
		return apperr.Unauthorized(msgAuthRequired)
	}
	if taskID <= 0 {
		return apperr.NotFound(msgNotFound)
	}

	if err := s.repo.DeleteOwned(ctx, actor.UserID, taskID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound(msgNotFound)
		}
		s.logger.Printf("delete task %d for user %d: %v", taskID, actor.UserID, err)
		return apperr.Internal("Could not delete task", err)
	}
	s.logger.Printf("task %d deleted by user %d", taskID, actor.UserID)
	return nil
}

func normalize(in Input) (normalizedInput, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return normalizedInput{}, apperr.Validation(msgNameRequired)
	}

	out := normalizedInput{name: name}
	if date := emptyToNil(in.DueDate); date != nil {
		parsed, err := time.Parse(dateLayout, *date)
		if err != nil {
			return normalizedInput{}, apperr.Validation("due_date must be YYYY-MM-DD")
		}
		v := parsed.Format(dateLayout)
		out.dueDate = &v
	}
	if clock := emptyToNil(in.DueTime); clock != nil {
		v, err := parseClock(*clock)
		if err != nil {
			return normalizedInput{}, apperr.Validation("due_time must be HH:MM")
		}
		out.dueTime = &v
	}
	return out, nil
}

// parseClock は HH:MM または HH:MM:SS を受け付け、HH:MM に揃えます。
func parseClock(raw string) (string, error) {
	if t, err := time.Parse(timeLayout, raw); err == nil {
		return t.Format(timeLayout), nil
	}
	t, err := time.Parse("15:04:05", raw)
	if err != nil {
		return "", err
	}
	return t.Format(timeLayout), nil
}

func emptyToNil(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
