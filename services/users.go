package services

import (
	"context"
	"errors"
	"strings"

	"reflection-garden/models"
	"reflection-garden/repository"
)

const defaultSearchLimit = 50

// UserService keeps local engagement records in step with gateway identities.
type UserService struct {
	*base
}

// EnsureUser returns the record for a gateway id, creating it on first sight.
// A changed username is written back.
func (s *UserService) EnsureUser(ctx context.Context, id, username string) (*models.User, error) {
	const op = "ensure user"
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, validationErr(op, "user id is required")
	}
	username = strings.TrimSpace(username)

	release := s.locks.lock(id)
	defer release()

	user, err := s.repo.GetUser(ctx, id)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		if username == "" {
			username = id
		}
		// another replica may insert first; the re-read returns its row
		if err := s.repo.CreateUser(ctx, &models.User{ID: id, Username: username, Level: LevelForXP(0)}); err != nil {
			return nil, classify(op, err)
		}
		user, err = s.repo.GetUser(ctx, id)
		if err != nil {
			return nil, classify(op, err)
		}
		return user, nil
	case err != nil:
		return nil, classify(op, err)
	}
	if username != "" && username != user.Username {
		err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
			fresh, err := tx.GetUserForUpdate(ctx, id)
			if err != nil {
				return err
			}
			fresh.Username = username
			user = fresh
			return tx.SaveUser(ctx, fresh)
		})
		if err != nil {
			return nil, classify(op, err)
		}
	}
	return user, nil
}

// UserSummary is the public slice of a user shown in invitations.
type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Title    string `json:"title"`
	Level    int    `json:"level"`
}

// SearchUsers lists other users whose name matches q.
func (s *UserService) SearchUsers(ctx context.Context, actorID, q string, limit int) ([]UserSummary, error) {
	const op = "search users"
	if limit <= 0 || limit > 100 {
		limit = defaultSearchLimit
	}
	users, err := s.repo.SearchUsers(ctx, actorID, q, limit)
	if err != nil {
		return nil, classify(op, err)
	}
	res := make([]UserSummary, len(users))
	for i, u := range users {
		res[i] = UserSummary{ID: u.ID, Username: u.Username, Title: u.Title, Level: u.Level}
	}
	return res, nil
}
