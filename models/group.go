package models

import (
	"time"

	"gorm.io/gorm"
)

// Group is a collaboration circle with a shared garden.
type Group struct {
	ID          string        `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name        string        `gorm:"size:120;not null" json:"name"`
	Slug        string        `gorm:"uniqueIndex;not null" json:"slug"`
	Description string        `gorm:"type:text" json:"description"`
	ClassName   string        `gorm:"size:120" json:"class_name,omitempty"`
	CreatedBy   string        `gorm:"index;not null" json:"created_by"`
	Members     []GroupMember `gorm:"foreignKey:GroupID" json:"-"`

	Timestamps
}

func (g *Group) BeforeCreate(tx *gorm.DB) error {
	newID(&g.ID)
	return nil
}

const (
	RoleOwner  = "owner"
	RoleMember = "member"
)

type GroupMember struct {
	ID       string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	GroupID  string    `gorm:"not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID   string    `gorm:"not null;uniqueIndex:idx_group_member;index" json:"user_id"`
	Role     string    `gorm:"size:30;default:'member'" json:"role"`
	JoinedAt time.Time `gorm:"autoCreateTime" json:"joined_at"`
}

func (m *GroupMember) BeforeCreate(tx *gorm.DB) error {
	newID(&m.ID)
	return nil
}
