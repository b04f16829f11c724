package task

import "time"

type Task struct {
	ID           int64      `gorm:"primaryKey"`
	Title        string     `gorm:"column:title;not null"`
	Description  string     `gorm:"column:description"`
	Status       string     `gorm:"column:status;default:'open'"`
	AssignedToID *int64     `gorm:"column:assigned_to_id;index"`
	AssignedByID *int64     `gorm:"column:assigned_by_id;index"`
	CreatedByID  int64      `gorm:"column:created_by_id;not null"`
	DueDate      *time.Time `gorm:"column:due_date"`
	Version      int64      `gorm:"column:version;not null;default:1"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Task) TableName() string {
	return "tasks"
}
