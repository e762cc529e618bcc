package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local engagement record for a gateway identity.
// ID is the gateway's external user id, so it is set by the caller, not generated.
type User struct {
	ID         string     `gorm:"primaryKey;type:varchar(64)" json:"id"`
	Username   string     `gorm:"index;not null" json:"username"`
	Title      string     `gorm:"default:'Seedling'" json:"title"`
	Quote      string     `gorm:"type:text" json:"quote,omitempty"`
	Pronouns   string     `json:"pronouns,omitempty"`
	XP         int64      `gorm:"column:xp;default:0" json:"xp"`
	Level      int        `gorm:"default:1" json:"level"`
	Streak     int        `gorm:"default:0" json:"streak"`
	LastActive *time.Time `json:"last_active,omitempty"`

	Timestamps
}

// AddXP adds experience and re-derives the level in the same step so the two
// never drift apart.
func (u *User) AddXP(xp int64, level func(int64) int) {
	u.XP += xp
	if u.XP < 0 {
		u.XP = 0
	}
	u.Level = level(u.XP)
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// newID fills an empty string primary key before insert.
func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// BeforeCreate keeps user ids non-empty for locally seeded users.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	newID(&u.ID)
	return nil
}
