package services

import (
	"context"
	"strings"

	"reflection-garden/events"
	"reflection-garden/models"
	"reflection-garden/repository"
)

// CommentService handles replies on reflection threads.
type CommentService struct {
	*base
}

// AddComment stores a reply and pushes it to everyone watching the thread.
func (s *CommentService) AddComment(ctx context.Context, reflectionID, actorID, content string) (*models.Comment, error) {
	const op = "add comment"
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationErr(op, "content is required")
	}

	box := &outbox{}
	var comment models.Comment
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		author, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		refl, err := tx.GetReflection(ctx, reflectionID)
		if err != nil {
			return err
		}
		ok, err := canSeeReflection(ctx, tx, refl, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return forbidden(op, "reflection is not visible to this user")
		}
		comment = models.Comment{
			UserID:       actorID,
			ReflectionID: refl.ID,
			Content:      content,
			CreatedAt:    s.clock(),
		}
		if err := tx.CreateComment(ctx, &comment); err != nil {
			return err
		}
		box.add(events.ReflectionTopic(refl.ID), events.NewComment{
			ReflectionID: refl.ID,
			Comment: events.CommentPayload{
				Author:    author.Username,
				Content:   comment.Content,
				CreatedAt: comment.CreatedAt,
			},
		})
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	box.flush(s.notify)
	return &comment, nil
}

// Vote records the actor's +1 or -1 on a visible reflection, replacing any
// earlier vote, and returns the reflection's updated tally.
func (s *CommentService) Vote(ctx context.Context, reflectionID, actorID string, value int) (*repository.ReflectionTally, error) {
	const op = "vote"
	if value != 1 && value != -1 {
		return nil, validationErr(op, "value must be 1 or -1")
	}

	var tally repository.ReflectionTally
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		refl, err := tx.GetReflection(ctx, reflectionID)
		if err != nil {
			return err
		}
		ok, err := canSeeReflection(ctx, tx, refl, actorID)
		if err != nil {
			return err
		}
		if !ok {
			return forbidden(op, "reflection is not visible to this user")
		}
		if err := tx.SaveVote(ctx, &models.Vote{
			UserID:       actorID,
			ReflectionID: refl.ID,
			Value:        value,
			CreatedAt:    s.clock(),
		}); err != nil {
			return err
		}
		tallies, err := tx.ReflectionTallies(ctx, []string{refl.ID})
		if err != nil {
			return err
		}
		tally = tallies[refl.ID]
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return &tally, nil
}
