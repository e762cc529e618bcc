package services

import (
	"context"
	"strings"
	"time"

	"reflection-garden/events"
	"reflection-garden/models"
	"reflection-garden/repository"
)

// DueDateLayout is the accepted due date format.
const DueDateLayout = "2006-01-02"

// GoalService manages personal and group goals.
type GoalService struct {
	*base
}

type CreateGoalInput struct {
	ActorID      string
	Title        string
	Description  string
	Type         models.GoalType
	GroupID      *string
	ReflectionID *string
	DueDate      string
}

// GoalPatch holds optional updates; nil fields are left alone.
type GoalPatch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Progress    *int    `json:"progress"`
	DueDate     *string `json:"due_date"`
}

func parseDueDate(op, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.Parse(DueDateLayout, s)
	if err != nil {
		return nil, validationErr(op, "due_date must be YYYY-MM-DD")
	}
	return &d, nil
}

func goalPayload(g *models.Goal) events.GoalPayload {
	return events.GoalPayload{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Type:        string(g.Type),
		Status:      string(g.Status),
		Progress:    g.Progress,
		DueDate:     g.DueDate,
		CreatedAt:   g.CreatedAt,
		GroupID:     g.GroupID,
	}
}

func goalTopic(g *models.Goal) string {
	return events.ScopeTopic(g.CreatedBy, g.GroupID)
}

// CreateGoal validates and stores a goal, then announces it to its scope.
func (s *GoalService) CreateGoal(ctx context.Context, in CreateGoalInput) (*models.Goal, error) {
	const op = "create goal"
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, validationErr(op, "title is required")
	}
	goalType := in.Type
	if goalType == "" {
		goalType = models.GoalPersonal
	}
	groupID := optionalID(in.GroupID)
	switch goalType {
	case models.GoalPersonal:
		if groupID != nil {
			return nil, validationErr(op, "personal goals cannot belong to a group")
		}
	case models.GoalGroup:
		if groupID == nil {
			return nil, validationErr(op, "group goals need a group_id")
		}
	default:
		return nil, validationErr(op, "type must be personal or group")
	}
	due, err := parseDueDate(op, in.DueDate)
	if err != nil {
		return nil, err
	}

	box := &outbox{}
	var goal models.Goal
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUser(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if groupID != nil {
			if err := requireMember(ctx, tx, op, *groupID, user.ID); err != nil {
				return err
			}
		}
		goal = models.Goal{
			Title:        title,
			Description:  strings.TrimSpace(in.Description),
			Type:         goalType,
			Status:       models.GoalInProgress,
			CreatedBy:    user.ID,
			GroupID:      groupID,
			ReflectionID: optionalID(in.ReflectionID),
			DueDate:      due,
		}
		if err := tx.CreateGoal(ctx, &goal); err != nil {
			return err
		}
		box.add(goalTopic(&goal), events.GoalCreated{GoalPayload: goalPayload(&goal)})
		if groupID == nil {
			box.add(events.UserTopic(user.ID), stateUpdate(user))
			box.add(events.UserTopic(user.ID), events.GardenUpdate{UserID: user.ID})
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	box.flush(s.notify)
	return &goal, nil
}

// ownedGoal loads a goal and checks the actor created it.
func ownedGoal(ctx context.Context, tx repository.Repository, op, goalID, actorID string) (*models.Goal, error) {
	g, err := tx.GetGoal(ctx, goalID)
	if err != nil {
		return nil, classify(op, err)
	}
	if g.CreatedBy != actorID {
		return nil, forbidden(op, "goal belongs to another user")
	}
	return g, nil
}

// UpdateGoal applies a patch. A completed goal keeps its progress at 100.
func (s *GoalService) UpdateGoal(ctx context.Context, goalID, actorID string, patch GoalPatch) (*models.Goal, error) {
	const op = "update goal"
	if patch.Progress != nil && (*patch.Progress < 0 || *patch.Progress > 100) {
		return nil, validationErr(op, "progress must be between 0 and 100")
	}
	var due *time.Time
	if patch.DueDate != nil {
		d, err := parseDueDate(op, *patch.DueDate)
		if err != nil {
			return nil, err
		}
		due = d
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, validationErr(op, "title cannot be blank")
	}

	box := &outbox{}
	var goal *models.Goal
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		g, err := ownedGoal(ctx, tx, op, goalID, actorID)
		if err != nil {
			return err
		}
		if patch.Progress != nil && g.Completed() && *patch.Progress != 100 {
			return validationErr(op, "goal is completed")
		}
		if patch.Title != nil {
			g.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			g.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Progress != nil {
			g.Progress = *patch.Progress
		}
		if due != nil {
			g.DueDate = due
		}
		if err := tx.SaveGoal(ctx, g); err != nil {
			return err
		}
		box.add(goalTopic(g), events.GoalUpdated{GoalPayload: goalPayload(g)})
		goal = g
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	box.flush(s.notify)
	return goal, nil
}

type CompleteGoalResult struct {
	Goal models.Goal
	// User is set when this call completed the goal and rewarded XP.
	User   *models.User
	Badges []Grant
}

// CompleteGoal moves a goal into its terminal state. Only the first
// completion rewards XP; later calls change nothing but still announce the goal.
func (s *GoalService) CompleteGoal(ctx context.Context, goalID, actorID string) (*CompleteGoalResult, error) {
	const op = "complete goal"
	release := s.locks.lock(actorID)
	defer release()

	box := &outbox{}
	var res CompleteGoalResult
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		g, err := ownedGoal(ctx, tx, op, goalID, actorID)
		if err != nil {
			return err
		}
		first := !g.Completed()
		g.Status = models.GoalCompleted
		g.Progress = 100
		if err := tx.SaveGoal(ctx, g); err != nil {
			return err
		}
		res.Goal = *g
		box.add(goalTopic(g), events.GoalUpdated{GoalPayload: goalPayload(g)})

		if first {
			user, err := tx.GetUserForUpdate(ctx, actorID)
			if err != nil {
				return err
			}
			user.AddXP(GoalCompletionXP, LevelForXP)
			grants, err := s.badges.Evaluate(ctx, tx, user)
			if err != nil {
				return err
			}
			if err := tx.SaveUser(ctx, user); err != nil {
				return err
			}
			queueBadges(box, user.ID, grants)
			box.add(events.UserTopic(user.ID), stateUpdate(user))
			res.User, res.Badges = user, grants
		}
		box.add(events.UserTopic(actorID), events.GardenUpdate{UserID: actorID})
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	for _, g := range res.Badges {
		s.metrics.BadgeGranted(g.Badge.Code)
	}
	box.flush(s.notify)
	return &res, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, goalID, actorID string) error {
	const op = "delete goal"
	box := &outbox{}
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		g, err := ownedGoal(ctx, tx, op, goalID, actorID)
		if err != nil {
			return err
		}
		if err := tx.DeleteGoal(ctx, g.ID); err != nil {
			return err
		}
		box.add(goalTopic(g), events.GoalDeleted{GoalID: g.ID})
		return nil
	})
	if err != nil {
		return classify(op, err)
	}
	box.flush(s.notify)
	return nil
}

type GoalLists struct {
	Personal []models.Goal `json:"personal"`
	Group    []models.Goal `json:"group"`
}

// ListGoals returns the actor's personal goals and the group goals of
// every group they belong to.
func (s *GoalService) ListGoals(ctx context.Context, actorID string) (*GoalLists, error) {
	const op = "list goals"
	personal, err := s.repo.ListPersonalGoals(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	group, err := s.repo.ListGroupGoalsForUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	return &GoalLists{Personal: personal, Group: group}, nil
}
