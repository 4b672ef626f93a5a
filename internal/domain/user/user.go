package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Email       string         `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password    string         `gorm:"not null;column:password" json:"-"`
	FirstName   string         `gorm:"not null;column:first_name" json:"first_name"`
	LastName    string         `gorm:"not null;column:last_name" json:"last_name"`
	AvatarColor string         `gorm:"column:avatar_color" json:"avatar_color"`
	Preferences datatypes.JSON `gorm:"column:preferences" json:"preferences,omitempty"`

	// Verification mail is not sent yet; the column is kept so it can be filled later.
	EmailVerifiedAt *time.Time `gorm:"column:email_verified_at" json:"email_verified_at,omitempty"`

	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Preferences is the decoded shape of User.Preferences.
type Preferences struct {
	Theme            string     `json:"theme,omitempty"`
	DefaultContextID *uuid.UUID `json:"default_context_id,omitempty"`
	ShowCompleted    bool       `json:"show_completed,omitempty"`
}
