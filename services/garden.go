package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reflection-garden/events"
	"reflection-garden/models"
	"reflection-garden/repository"
	"reflection-garden/utils"
)

// Word-count tier boundaries.
const (
	shrubMinWords = 50
	treeMinWords  = 200
)

// SpeciesForWordCount picks the species a reflection of n words grows.
func SpeciesForWordCount(n int) string {
	switch {
	case n < shrubMinWords:
		return models.SpeciesSunflower
	case n < treeMinWords:
		return models.SpeciesKnowledgeShrub
	default:
		return models.SpeciesWisdomTree
	}
}

// GardenService creates and renders plants.
type GardenService struct {
	assets utils.AssetResolver
	now    func() time.Time
}

func NewGardenService(assets utils.AssetResolver, now func() time.Time) *GardenService {
	if assets == nil {
		assets = utils.StaticAssets{}
	}
	if now == nil {
		now = time.Now
	}
	return &GardenService{assets: assets, now: now}
}

// PlantForReflection plants the tiered species for refl in the group garden
// when the reflection belongs to a group, else in the author's garden. It
// returns nil without error when the species is not in the reference data.
func (s *GardenService) PlantForReflection(ctx context.Context, repo repository.Repository, refl *models.Reflection, box *outbox) (*models.UserPlant, error) {
	name := SpeciesForWordCount(WordCount(refl.Content))
	species, err := repo.FindSpeciesByName(ctx, name)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find species %s: %w", name, err)
	}

	now := s.now()
	plant := &models.UserPlant{
		UserID:      refl.UserID,
		GroupID:     refl.GroupID,
		SpeciesID:   species.ID,
		Stage:       0,
		PlantedAt:   now,
		LastWatered: now,
	}
	if err := repo.CreatePlant(ctx, plant); err != nil {
		return nil, fmt.Errorf("create plant: %w", err)
	}
	plant.Species = *species

	ev := events.NewPlant{
		UserID:    refl.UserID,
		PlantID:   plant.ID,
		PlantType: species.Name,
		Image:     s.assets.URL(ctx, species.StageAsset(plant.Stage)),
	}
	if plant.GroupID != nil {
		ev.GroupID = *plant.GroupID
	}
	box.add(events.ScopeTopic(refl.UserID, plant.GroupID), ev)
	return plant, nil
}

// PlantView is a plant rendered for clients.
type PlantView struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Stage       int       `json:"stage"`
	MaxStage    int       `json:"max_stage"`
	Image       string    `json:"image"`
	GroupID     *string   `json:"group_id,omitempty"`
	PlantedAt   time.Time `json:"planted_at"`
	LastWatered time.Time `json:"last_watered"`
}

func (s *GardenService) View(ctx context.Context, p models.UserPlant) PlantView {
	return PlantView{
		ID:          p.ID,
		Name:        p.Species.Name,
		Stage:       p.Stage,
		MaxStage:    p.Species.MaxStage(),
		Image:       s.assets.URL(ctx, p.Species.StageAsset(p.Stage)),
		GroupID:     p.GroupID,
		PlantedAt:   p.PlantedAt,
		LastWatered: p.LastWatered,
	}
}

func (s *GardenService) Views(ctx context.Context, plants []models.UserPlant) []PlantView {
	out := make([]PlantView, 0, len(plants))
	for _, p := range plants {
		out = append(out, s.View(ctx, p))
	}
	return out
}

// BadgeURL resolves a badge icon key.
func (s *GardenService) BadgeURL(ctx context.Context, key string) string {
	return s.assets.URL(ctx, key)
}
