package gtd

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;index;not null;column:owner_id" json:"owner_id"`
	ContextID   uuid.UUID  `gorm:"type:uuid;index;not null;column:context_id" json:"context_id"`
	ProjectID   *uuid.UUID `gorm:"type:uuid;index;column:project_id" json:"project_id,omitempty"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Notes       string     `gorm:"column:notes" json:"notes"`
	WaitingOn   string     `gorm:"column:waiting_on" json:"waiting_on,omitempty"`
	Order       float64    `gorm:"not null;column:sort_order" json:"order"`
	DueAt       *time.Time `gorm:"column:due_at" json:"due_at,omitempty"`
	CompletedAt *time.Time `gorm:"index;column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Task) TableName() string { return "task" }

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Task) Done() bool { return t.CompletedAt != nil }
