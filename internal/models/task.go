package models

import "time"

// Task は利用者ごとの ToDo を表します。
// DueDate は YYYY-MM-DD、DueTime は HH:MM 形式で、未設定の場合は nil です。
type Task struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"not null;index"`
	Name      string    `gorm:"size:255;not null"`
	DueDate   *string   `gorm:"type:date"`
	DueTime   *string   `gorm:"type:time"`
	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
