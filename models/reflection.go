package models

import (
	"time"

	"gorm.io/gorm"
)

// DisplayMode controls how a reflection's author is shown.
type DisplayMode string

const (
	DisplayNamed     DisplayMode = "named"
	DisplayPseudonym DisplayMode = "pseudonym"
	DisplayAnonymous DisplayMode = "anonymous"
)

// Reflection is a journal entry. Keywords are derived once, at creation.
type Reflection struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string          `gorm:"index;not null" json:"user_id"`
	Content     string          `gorm:"type:text;not null" json:"content"`
	DisplayName *string         `json:"display_name"`
	IsAnonymous bool            `gorm:"default:false" json:"is_anonymous"`
	IsGroup     bool            `gorm:"default:false" json:"is_group"`
	GroupID     *string         `gorm:"index" json:"group_id,omitempty"`
	PromptID    *string         `json:"prompt_id,omitempty"`
	Keywords    []string        `gorm:"serializer:json;type:text" json:"keywords"`
	Tags        []ReflectionTag `gorm:"foreignKey:ReflectionID" json:"tags,omitempty"`
	CreatedAt   time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (r *Reflection) BeforeCreate(tx *gorm.DB) error {
	newID(&r.ID)
	return nil
}

// TagNames flattens the attached tags.
func (r *Reflection) TagNames() []string {
	names := make([]string, 0, len(r.Tags))
	for _, t := range r.Tags {
		names = append(names, t.Tag)
	}
	return names
}

type ReflectionTag struct {
	ID           string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ReflectionID string `gorm:"index;not null" json:"reflection_id"`
	Tag          string `gorm:"size:50;not null" json:"tag"`
}

func (t *ReflectionTag) BeforeCreate(tx *gorm.DB) error {
	newID(&t.ID)
	return nil
}

// Comment is a reply on a reflection thread.
type Comment struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"index;not null" json:"user_id"`
	ReflectionID string    `gorm:"index;not null" json:"reflection_id"`
	Content      string    `gorm:"type:text;not null" json:"content"`
	CreatedAt    time.Time `json:"created_at"`
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	newID(&c.ID)
	return nil
}

// Vote is one user's +1 or -1 on a reflection; a later vote replaces it.
type Vote struct {
	ID           string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID       string    `gorm:"not null;uniqueIndex:idx_user_vote" json:"user_id"`
	ReflectionID string    `gorm:"not null;uniqueIndex:idx_user_vote;index" json:"reflection_id"`
	Value        int       `gorm:"not null" json:"value"`
	CreatedAt    time.Time `json:"created_at"`
}

func (v *Vote) BeforeCreate(tx *gorm.DB) error {
	newID(&v.ID)
	return nil
}

// Prompt is a journaling question; one daily prompt is active per day.
type Prompt struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Text      string     `gorm:"type:text;not null" json:"text"`
	IsDaily   bool       `gorm:"default:false;index" json:"is_daily"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (p *Prompt) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}
