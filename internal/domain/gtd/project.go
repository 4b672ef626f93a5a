package gtd

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Project struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID     uuid.UUID  `gorm:"type:uuid;index;not null;column:owner_id" json:"owner_id"`
	Title       string     `gorm:"not null;column:title" json:"title"`
	Notes       string     `gorm:"column:notes" json:"notes"`
	Order       float64    `gorm:"not null;column:sort_order" json:"order"`
	CompletedAt *time.Time `gorm:"index;column:completed_at" json:"completed_at,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updated_at"`
}

func (Project) TableName() string { return "project" }

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
