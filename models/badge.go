package models

import (
	"time"

	"gorm.io/gorm"
)

// BadgeType: static config seeded at startup
type BadgeType struct {
	ID          string           `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Code        string           `gorm:"uniqueIndex;not null" json:"code"` // e.g., "CONSISTENT_GARDENER"
	Name        string           `gorm:"not null" json:"name"`
	Description string           `json:"description"`
	IconURL     string           `gorm:"type:text" json:"icon_url"`
	Rarity      string           `gorm:"type:varchar(16);default:'common'" json:"rarity"`
	Criteria    map[string]int64 `gorm:"serializer:json;type:text" json:"criteria"` // e.g., {"streak": 7}
	CreatedAt   time.Time        `gorm:"autoCreateTime" json:"created_at"`
}

func (b *BadgeType) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

// UserBadge: awarded instance, at most one per (user, badge)
type UserBadge struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"user_id"`
	BadgeTypeID string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"badge_type_id"`
	BadgeType   BadgeType `gorm:"foreignKey:BadgeTypeID" json:"badge"`
	AwardedAt   time.Time `json:"awarded_at"`
}

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	newID(&b.ID)
	return nil
}

// DefaultBadges are seeded when missing.
var DefaultBadges = []BadgeType{
	{
		Code:        "CONSISTENT_GARDENER",
		Name:        "Consistent Gardener",
		Description: "Reflected seven days in a row",
		IconURL:     "badges/consistent-gardener.png",
		Rarity:      "rare",
		Criteria:    map[string]int64{"streak": 7},
	},
	{
		Code:        "DEEP_ROOTS",
		Name:        "Deep Roots",
		Description: "Reached level 5",
		IconURL:     "badges/deep-roots.png",
		Rarity:      "epic",
		Criteria:    map[string]int64{"level": 5},
	},
	{
		Code:        "FIRST_SEED",
		Name:        "First Seed",
		Description: "Wrote your first reflection",
		IconURL:     "badges/first-seed.png",
		Rarity:      "common",
		Criteria:    map[string]int64{"reflections": 1},
	},
}

// DefaultSpecies are seeded when missing.
var DefaultSpecies = []PlantSpecies{
	{
		Name:   SpeciesSunflower,
		Rarity: "common",
		Stages: map[string]string{
			"0": "plants/sunflower-0.png",
			"1": "plants/sunflower-1.png",
			"2": "plants/sunflower-2.png",
		},
		XPValue: 10,
	},
	{
		Name:   SpeciesKnowledgeShrub,
		Rarity: "rare",
		Stages: map[string]string{
			"0": "plants/shrub-0.png",
			"1": "plants/shrub-1.png",
			"2": "plants/shrub-2.png",
			"3": "plants/shrub-3.png",
		},
		XPValue: 20,
	},
	{
		Name:   SpeciesWisdomTree,
		Rarity: "epic",
		Stages: map[string]string{
			"0": "plants/tree-0.png",
			"1": "plants/tree-1.png",
			"2": "plants/tree-2.png",
			"3": "plants/tree-3.png",
			"4": "plants/tree-4.png",
		},
		XPValue:         40,
		UnlockCondition: "200+ word reflection",
	},
}
