package gtd

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ContextRole string

const (
	RoleInbox      ContextRole = "INBOX"
	RoleProjects   ContextRole = "PROJECTS"
	RoleWaitingFor ContextRole = "WAITING_FOR"
	RoleNone       ContextRole = "NONE"
)

// SystemRoles must exist exactly once per user.
var SystemRoles = []ContextRole{RoleInbox, RoleProjects, RoleWaitingFor}

func (r ContextRole) IsSystem() bool {
	return r == RoleInbox || r == RoleProjects || r == RoleWaitingFor
}

// Context is a bucket tasks are filed into.
type Context struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID   uuid.UUID   `gorm:"type:uuid;index;not null;column:owner_id" json:"owner_id"`
	Name      string      `gorm:"not null;column:name" json:"name"`
	Role      ContextRole `gorm:"type:varchar(16);not null;default:'NONE';column:role" json:"role"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}

func (Context) TableName() string { return "context" }

func (c *Context) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Role == "" {
		c.Role = RoleNone
	}
	return nil
}

// DefaultContexts are created for every new account.
func DefaultContexts(ownerID uuid.UUID) []*Context {
	return []*Context{
		{OwnerID: ownerID, Name: "Inbox", Role: RoleInbox},
		{OwnerID: ownerID, Name: "Projects", Role: RoleProjects},
		{OwnerID: ownerID, Name: "Waiting For", Role: RoleWaitingFor},
		{OwnerID: ownerID, Name: "Home", Role: RoleNone},
		{OwnerID: ownerID, Name: "Work", Role: RoleNone},
		{OwnerID: ownerID, Name: "Errands", Role: RoleNone},
	}
}
