package services

import (
	"context"
	"errors"
	"log"
	"time"

	"reflection-garden/models"
	"reflection-garden/repository"
)

// DefaultPrompts seed the rotation when no daily prompt exists.
var DefaultPrompts = []string{
	"What challenges did you overcome today?",
	"What new ideas or insights did you gain?",
	"How did you collaborate with others today?",
}

// PromptService serves and rotates the daily journaling prompt.
type PromptService struct {
	*base
	hour uint
}

// rotationBoundary is the latest rotation time at or before now.
func (s *PromptService) rotationBoundary(now time.Time) time.Time {
	y, m, d := now.Date()
	b := time.Date(y, m, d, int(s.hour), 0, 0, 0, now.Location())
	if now.Before(b) {
		b = b.AddDate(0, 0, -1)
	}
	return b
}

// DailyPrompt returns the active prompt. When none is active, or the active
// one predates the last rotation time because the scheduled run was missed,
// a new one is rotated in.
func (s *PromptService) DailyPrompt(ctx context.Context) (*models.Prompt, error) {
	const op = "daily prompt"
	p, err := s.repo.CurrentDailyPrompt(ctx)
	switch {
	case err == nil:
		if p.UsedAt != nil && !p.UsedAt.Before(s.rotationBoundary(s.clock())) {
			return p, nil
		}
	case !errors.Is(err, repository.ErrNotFound):
		return nil, classify(op, err)
	}
	return s.Rotate(ctx)
}

// Rotate activates the least recently used daily prompt.
func (s *PromptService) Rotate(ctx context.Context) (*models.Prompt, error) {
	const op = "rotate prompt"
	var out models.Prompt
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.NextUnusedPrompt(ctx)
		if errors.Is(err, repository.ErrNotFound) {
			if err := seedPrompts(ctx, tx); err != nil {
				return err
			}
			p, err = tx.NextUnusedPrompt(ctx)
		}
		if err != nil {
			return err
		}
		now := s.clock()
		p.UsedAt = &now
		if err := tx.SavePrompt(ctx, p); err != nil {
			return err
		}
		out = *p
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	log.Printf("📝 [Prompts] daily prompt is now %q", out.Text)
	return &out, nil
}

func seedPrompts(ctx context.Context, tx repository.Repository) error {
	for _, text := range DefaultPrompts {
		if err := tx.CreatePrompt(ctx, &models.Prompt{Text: text, IsDaily: true}); err != nil {
			return err
		}
	}
	return nil
}
