package services

import (
	"context"
	"fmt"
	"log"

	"reflection-garden/models"
	"reflection-garden/repository"
)

// SeedReferenceData inserts the default species and badge catalog. Rows that
// already exist are left untouched.
func SeedReferenceData(ctx context.Context, repo repository.Repository) error {
	return repo.Transaction(ctx, func(tx repository.Repository) error {
		for _, sp := range models.DefaultSpecies {
			if err := tx.EnsureSpecies(ctx, &sp); err != nil {
				return fmt.Errorf("seed species %s: %w", sp.Name, err)
			}
		}
		for _, b := range models.DefaultBadges {
			if err := tx.EnsureBadgeType(ctx, &b); err != nil {
				return fmt.Errorf("seed badge %s: %w", b.Code, err)
			}
		}
		log.Printf("🌻 [Seed] reference data ready")
		return nil
	})
}
