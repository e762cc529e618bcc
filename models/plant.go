package models

import (
	"strconv"
	"time"

	"gorm.io/gorm"
)

// Species names used by the word-count tiers.
const (
	SpeciesSunflower      = "Sunflower"
	SpeciesKnowledgeShrub = "Knowledge Shrub"
	SpeciesWisdomTree     = "Wisdom Tree"
)

// PlantSpecies is immutable reference data: Stages maps a stage index
// ("0", "1", ...) to an asset key.
type PlantSpecies struct {
	ID              string            `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Name            string            `gorm:"uniqueIndex;not null" json:"name"`
	Rarity          string            `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	Stages          map[string]string `gorm:"serializer:json;type:text" json:"stages"`
	XPValue         int64             `gorm:"column:xp_value;default:10" json:"xp_value"`
	UnlockCondition string            `gorm:"size:200" json:"unlock_condition,omitempty"`
}

func (s *PlantSpecies) BeforeCreate(tx *gorm.DB) error {
	newID(&s.ID)
	return nil
}

// MaxStage is the highest numeric stage key, or 0 when none parse.
func (s *PlantSpecies) MaxStage() int {
	top := 0
	for k := range s.Stages {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if n > top {
			top = n
		}
	}
	return top
}

// StageAsset returns the asset key for a stage.
func (s *PlantSpecies) StageAsset(stage int) string {
	return s.Stages[strconv.Itoa(stage)]
}

// UserPlant is a plant instance. A nil GroupID means it lives in the
// planter's personal garden; otherwise it belongs to the group garden.
type UserPlant struct {
	ID          string       `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string       `gorm:"index;not null" json:"user_id"`
	GroupID     *string      `gorm:"index" json:"group_id,omitempty"`
	SpeciesID   string       `gorm:"index;not null" json:"species_id"`
	Species     PlantSpecies `gorm:"foreignKey:SpeciesID" json:"species"`
	Stage       int          `gorm:"default:0" json:"stage"`
	PlantedAt   time.Time    `json:"planted_at"`
	LastWatered time.Time    `json:"last_watered"`
}

func (p *UserPlant) BeforeCreate(tx *gorm.DB) error {
	newID(&p.ID)
	return nil
}

// Grow advances one stage, never past the species' last stage.
func (p *UserPlant) Grow(now time.Time) {
	p.Stage++
	if top := p.Species.MaxStage(); p.Stage > top {
		p.Stage = top
	}
	p.LastWatered = now
}
