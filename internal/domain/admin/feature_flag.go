package admin

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	// FlagSignup gates account registration; when off, visitors are pointed at the waitlist.
	FlagSignup = "signup"
	// FlagAvatar enables the rendered initials avatar.
	FlagAvatar = "avatar"
)

type FeatureFlag struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key         string    `gorm:"uniqueIndex;not null;column:key" json:"key"`
	Description string    `gorm:"column:description" json:"description,omitempty"`
	Enabled     bool      `gorm:"not null;column:enabled" json:"enabled"`
	// AllowedUsers holds user ids or emails the flag is on for even when Enabled is false.
	AllowedUsers datatypes.JSONSlice[string] `gorm:"column:allowed_users" json:"allowed_users,omitempty"`
	CreatedAt    time.Time                   `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time                   `gorm:"not null" json:"updated_at"`
}

func (FeatureFlag) TableName() string { return "feature_flag" }

func (f *FeatureFlag) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
