package models

import (
	"time"

	"gorm.io/gorm"
)

type GoalType string

const (
	GoalPersonal GoalType = "personal"
	GoalGroup    GoalType = "group"
)

type GoalStatus string

const (
	GoalInProgress GoalStatus = "in_progress"
	GoalCompleted  GoalStatus = "completed"
)

// Goal is owned by its creator; group goals are visible to the group.
type Goal struct {
	ID           string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Title        string     `gorm:"size:200;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	Type         GoalType   `gorm:"size:30;default:'personal'" json:"type"`
	Status       GoalStatus `gorm:"size:30;default:'in_progress'" json:"status"`
	Progress     int        `gorm:"default:0" json:"progress"`
	CreatedBy    string     `gorm:"index;not null" json:"created_by"`
	GroupID      *string    `gorm:"index" json:"group_id,omitempty"`
	ReflectionID *string    `json:"reflection_id,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`

	Timestamps
}

func (g *Goal) BeforeCreate(tx *gorm.DB) error {
	newID(&g.ID)
	return nil
}

// Completed reports the terminal state.
func (g *Goal) Completed() bool {
	return g.Status == GoalCompleted
}
