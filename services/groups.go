package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"reflection-garden/events"
	"reflection-garden/models"
	"reflection-garden/repository"
)

// GroupService manages collaboration circles and their shared views.
type GroupService struct {
	*base
}

type CreateGroupInput struct {
	ActorID     string
	Name        string
	Description string
	ClassName   string
	Members     []string
}

// GroupView is a group with its counts and shared garden.
type GroupView struct {
	models.Group
	repository.GroupCounts
	Garden []PlantView `json:"garden,omitempty"`
}

// uniqueSlug derives a URL slug from the name and suffixes it when taken.
func uniqueSlug(ctx context.Context, tx repository.Repository, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "group"
	}
	taken, err := tx.SlugTaken(ctx, base)
	if err != nil {
		return "", err
	}
	if !taken {
		return base, nil
	}
	return base + "-" + uuid.NewString()[:8], nil
}

// CreateGroup stores the group with the actor as owner and the listed
// users as members, then tells every member about it.
func (s *GroupService) CreateGroup(ctx context.Context, in CreateGroupInput) (*models.Group, error) {
	const op = "create group"
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, validationErr(op, "name is required")
	}

	box := &outbox{}
	var group models.Group
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		if _, err := tx.GetUser(ctx, in.ActorID); err != nil {
			return err
		}
		sl, err := uniqueSlug(ctx, tx, name)
		if err != nil {
			return err
		}
		group = models.Group{
			Name:        name,
			Slug:        sl,
			Description: strings.TrimSpace(in.Description),
			ClassName:   strings.TrimSpace(in.ClassName),
			CreatedBy:   in.ActorID,
		}
		if err := tx.CreateGroup(ctx, &group); err != nil {
			return err
		}
		if err := tx.AddMember(ctx, &models.GroupMember{GroupID: group.ID, UserID: in.ActorID, Role: models.RoleOwner}); err != nil {
			return err
		}

		members := []string{in.ActorID}
		seen := map[string]bool{in.ActorID: true}
		for _, id := range in.Members {
			id = strings.TrimSpace(id)
			if id == "" || seen[id] {
				continue
			}
			seen[id] = true
			if _, err := tx.GetUser(ctx, id); err != nil {
				return classify(op, err)
			}
			if err := tx.AddMember(ctx, &models.GroupMember{GroupID: group.ID, UserID: id, Role: models.RoleMember}); err != nil {
				return err
			}
			members = append(members, id)
		}

		ev := events.GroupCreated{
			ID:          group.ID,
			Name:        group.Name,
			Slug:        group.Slug,
			Description: group.Description,
			ClassName:   group.ClassName,
			MemberCount: len(members),
		}
		box.add(events.GroupTopic(group.ID), ev)
		for _, id := range members {
			box.add(events.UserTopic(id), ev)
		}
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	log.Printf("🌱 [Groups] %s created %q (%s)", in.ActorID, group.Name, group.Slug)
	box.flush(s.notify)
	return &group, nil
}

func (s *GroupService) view(ctx context.Context, g models.Group, withGarden bool) (GroupView, error) {
	counts, err := s.repo.GroupCounts(ctx, g.ID)
	if err != nil {
		return GroupView{}, err
	}
	v := GroupView{Group: g, GroupCounts: counts}
	if withGarden {
		plants, err := s.repo.ListGroupPlants(ctx, g.ID)
		if err != nil {
			return GroupView{}, err
		}
		v.Garden = s.garden.Views(ctx, plants)
	}
	return v, nil
}

// ListGroups returns the actor's groups with their counts.
func (s *GroupService) ListGroups(ctx context.Context, actorID string) ([]GroupView, error) {
	const op = "list groups"
	groups, err := s.repo.ListGroupsForUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	out := make([]GroupView, 0, len(groups))
	for _, g := range groups {
		v, err := s.view(ctx, g, false)
		if err != nil {
			return nil, classify(op, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// GetGroup returns one group with its shared garden. Only members may look.
func (s *GroupService) GetGroup(ctx context.Context, groupID, actorID string) (*GroupView, error) {
	const op = "get group"
	if err := requireMember(ctx, s.repo, op, groupID, actorID); err != nil {
		return nil, classify(op, err)
	}
	g, err := s.repo.GetGroup(ctx, groupID)
	if err != nil {
		return nil, classify(op, err)
	}
	v, err := s.view(ctx, *g, true)
	if err != nil {
		return nil, classify(op, err)
	}
	return &v, nil
}

// GroupActivity merges the group's reflections and goals, newest first.
func (s *GroupService) GroupActivity(ctx context.Context, groupID, actorID string) ([]Activity, error) {
	const op = "group activity"
	if err := requireMember(ctx, s.repo, op, groupID, actorID); err != nil {
		return nil, classify(op, err)
	}
	reflections, err := s.repo.ListGroupReflections(ctx, groupID)
	if err != nil {
		return nil, classify(op, err)
	}
	goals, err := s.repo.ListGroupGoals(ctx, groupID)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := reflectionActivities(ctx, s.repo, reflections, len(goals))
	if err != nil {
		return nil, classify(op, err)
	}
	names := &userNames{lookup: s.repo.GetUser, cache: map[string]string{}}
	for _, g := range goals {
		out = append(out, goalActivity(g, names.get(ctx, g.CreatedBy)))
	}
	sortActivities(out)
	return out, nil
}

// CanJoinTopic reports whether actor may subscribe to topic. Users see only
// their own topic; group and reflection topics follow membership.
func (s *GroupService) CanJoinTopic(ctx context.Context, actorID, topic string) (bool, error) {
	family, id, err := events.ParseTopic(topic)
	if err != nil {
		return false, nil
	}
	switch family {
	case events.FamilyUser:
		return id == actorID, nil
	case events.FamilyGroup:
		return s.repo.IsMember(ctx, id, actorID)
	case events.FamilyReflection:
		refl, err := s.repo.GetReflection(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return canSeeReflection(ctx, s.repo, refl, actorID)
	}
	return false, nil
}

// canSeeReflection: authors see their own, members see their group's.
func canSeeReflection(ctx context.Context, repo repository.Repository, r *models.Reflection, actorID string) (bool, error) {
	if r.UserID == actorID {
		return true, nil
	}
	if r.GroupID == nil {
		return false, nil
	}
	return repo.IsMember(ctx, *r.GroupID, actorID)
}
