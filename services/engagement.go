package services

import (
	"context"
	"log"
	"strings"
	"time"

	"reflection-garden/events"
	"reflection-garden/models"
	"reflection-garden/repository"
)

const maxTagLen = 50

// EngagementService converts journaling actions into XP, streak, plant and
// badge changes and announces them.
type EngagementService struct {
	*base
}

type SubmitReflectionInput struct {
	ActorID     string
	Content     string
	DisplayMode models.DisplayMode
	Pseudonym   string
	Tags        []string
	GroupID     *string
	PromptID    *string
}

type SubmitReflectionResult struct {
	Reflection models.Reflection
	Plant      *models.UserPlant
	User       models.User
	Badges     []Grant
}

// resolveDisplayName: anonymous hides the author, a non-blank pseudonym
// replaces the name, and every other combination falls back to the username.
func resolveDisplayName(mode models.DisplayMode, pseudonym, username string) (*string, bool) {
	switch p := strings.TrimSpace(pseudonym); {
	case mode == models.DisplayAnonymous:
		return nil, true
	case mode == models.DisplayPseudonym && p != "":
		return &p, false
	default:
		name := username
		return &name, false
	}
}

func cleanTags(tags []string) ([]models.ReflectionTag, error) {
	seen := make(map[string]bool, len(tags))
	var out []models.ReflectionTag
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[t] {
			continue
		}
		if len(t) > maxTagLen {
			return nil, validationErr("submit reflection", "tag longer than 50 characters")
		}
		seen[t] = true
		out = append(out, models.ReflectionTag{Tag: t})
	}
	return out, nil
}

func optionalID(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := strings.TrimSpace(*id)
	return &v
}

// SubmitReflection stores the reflection, grows a plant, rewards XP,
// advances the streak and grants badges in one transaction. Events go out
// only after the commit.
func (s *EngagementService) SubmitReflection(ctx context.Context, in SubmitReflectionInput) (*SubmitReflectionResult, error) {
	const op = "submit reflection"
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, validationErr(op, "content is required")
	}
	tags, err := cleanTags(in.Tags)
	if err != nil {
		return nil, err
	}
	groupID := optionalID(in.GroupID)

	release := s.locks.lock(in.ActorID)
	defer release()

	now := s.clock()
	box := &outbox{}
	var res SubmitReflectionResult
	err = s.repo.Transaction(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUserForUpdate(ctx, in.ActorID)
		if err != nil {
			return err
		}
		if groupID != nil {
			if err := requireMember(ctx, tx, op, *groupID, user.ID); err != nil {
				return err
			}
		}

		name, anonymous := resolveDisplayName(in.DisplayMode, in.Pseudonym, user.Username)
		refl := models.Reflection{
			UserID:      user.ID,
			Content:     content,
			DisplayName: name,
			IsAnonymous: anonymous,
			IsGroup:     groupID != nil,
			GroupID:     groupID,
			PromptID:    optionalID(in.PromptID),
			Keywords:    ExtractKeywords(content),
			Tags:        tags,
			CreatedAt:   now,
		}
		if err := tx.CreateReflection(ctx, &refl); err != nil {
			return err
		}

		plant, err := s.garden.PlantForReflection(ctx, tx, &refl, box)
		if err != nil {
			return err
		}

		user.AddXP(ReflectionXP, LevelForXP)
		streak, active := UpdateStreak(user.Streak, user.LastActive, now)
		user.Streak, user.LastActive = streak, &active

		grants, err := s.badges.Evaluate(ctx, tx, user)
		if err != nil {
			return err
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}

		queueBadges(box, user.ID, grants)
		payload := reflectionPayload(&refl)
		if groupID != nil {
			box.add(events.GroupTopic(*groupID), events.NewGroupReflection{GroupID: *groupID, Reflection: payload})
		} else {
			box.add(events.UserTopic(user.ID), events.NewReflection{Reflection: payload})
		}
		box.add(events.UserTopic(user.ID), stateUpdate(user))
		box.add(events.UserTopic(user.ID), events.GardenUpdate{UserID: user.ID})

		res = SubmitReflectionResult{Reflection: refl, Plant: plant, User: *user, Badges: grants}
		return nil
	})
	if err != nil {
		log.Printf("❌ [Engagement] %s for %s: %v", op, in.ActorID, err)
		return nil, classify(op, err)
	}

	s.metrics.ReflectionSubmitted()
	for _, g := range res.Badges {
		s.metrics.BadgeGranted(g.Badge.Code)
	}
	box.flush(s.notify)
	log.Printf("📝 [Engagement] reflection %s by %s → XP=%d, Lvl=%d, Streak=%d",
		res.Reflection.ID, res.User.ID, res.User.XP, res.User.Level, res.User.Streak)
	return &res, nil
}

type WaterResult struct {
	Plant PlantView `json:"plant"`
	// Grew is false when the plant was already at its last stage.
	Grew bool `json:"grew"`
}

// WaterPlant grows a plant by one stage, clamped to its species' last
// stage. Personal plants may be watered only by their owner; group plants
// by any member of the group.
func (s *EngagementService) WaterPlant(ctx context.Context, plantID, actorID string) (*WaterResult, error) {
	const op = "water plant"
	release := s.locks.lock("plant:" + plantID)
	defer release()

	now := s.clock()
	box := &outbox{}
	var plant *models.UserPlant
	var grew bool
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		p, err := tx.GetPlant(ctx, plantID)
		if err != nil {
			return err
		}
		if p.GroupID != nil {
			if err := requireMember(ctx, tx, op, *p.GroupID, actorID); err != nil {
				return err
			}
		} else if p.UserID != actorID {
			return forbidden(op, "plant belongs to another user")
		}

		before := p.Stage
		p.Grow(now)
		grew = p.Stage != before
		if err := tx.SavePlant(ctx, p); err != nil {
			return err
		}

		if p.GroupID != nil {
			box.add(events.GroupTopic(*p.GroupID), events.GardenUpdate{GroupID: *p.GroupID})
		} else {
			box.add(events.UserTopic(p.UserID), events.GardenUpdate{UserID: p.UserID})
		}
		plant = p
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}

	s.metrics.PlantWatered()
	box.flush(s.notify)
	return &WaterResult{Plant: s.garden.View(ctx, *plant), Grew: grew}, nil
}

type CheckInResult struct {
	User   models.User
	Badges []Grant
}

// CheckIn records a visit: the streak advances at most once per day and
// badges are re-evaluated.
func (s *EngagementService) CheckIn(ctx context.Context, actorID string) (*CheckInResult, error) {
	const op = "check in"
	release := s.locks.lock(actorID)
	defer release()

	now := s.clock()
	box := &outbox{}
	var res CheckInResult
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUserForUpdate(ctx, actorID)
		if err != nil {
			return err
		}
		streak, active := UpdateStreak(user.Streak, user.LastActive, now)
		user.Streak, user.LastActive = streak, &active

		grants, err := s.badges.Evaluate(ctx, tx, user)
		if err != nil {
			return err
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		queueBadges(box, user.ID, grants)
		box.add(events.UserTopic(user.ID), stateUpdate(user))
		res = CheckInResult{User: *user, Badges: grants}
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

// BadgeView is a held badge rendered for clients.
type BadgeView struct {
	BadgeID   string    `json:"badge_id"`
	Code      string    `json:"code"`
	Name      string    `json:"badge_name"`
	Icon      string    `json:"icon"`
	AwardedAt time.Time `json:"awarded_at"`
}

type GardenState struct {
	Plants []PlantView `json:"plants"`
	XP     int64       `json:"xp"`
	Level  int         `json:"level"`
	Streak int         `json:"streak"`
	Badges []BadgeView `json:"badges"`
}

// GardenState is the pull-side snapshot clients refetch after a
// garden_update hint.
func (s *EngagementService) GardenState(ctx context.Context, actorID string) (*GardenState, error) {
	const op = "garden state"
	user, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	plants, err := s.repo.ListPersonalPlants(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	badges, err := s.badgeViews(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	return &GardenState{
		Plants: s.garden.Views(ctx, plants),
		XP:     user.XP,
		Level:  user.Level,
		Streak: user.Streak,
		Badges: badges,
	}, nil
}

func (s *EngagementService) badgeViews(ctx context.Context, userID string) ([]BadgeView, error) {
	held, err := s.repo.ListUserBadges(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]BadgeView, 0, len(held))
	for _, ub := range held {
		out = append(out, BadgeView{
			BadgeID:   ub.BadgeTypeID,
			Code:      ub.BadgeType.Code,
			Name:      ub.BadgeType.Name,
			Icon:      s.garden.BadgeURL(ctx, ub.BadgeType.IconURL),
			AwardedAt: ub.AwardedAt,
		})
	}
	return out, nil
}

// Profile bundles the user record with held badges.
type Profile struct {
	User   models.User `json:"user"`
	Badges []BadgeView `json:"badges"`
}

func (s *EngagementService) Profile(ctx context.Context, actorID string) (*Profile, error) {
	const op = "profile"
	user, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	badges, err := s.badgeViews(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	return &Profile{User: *user, Badges: badges}, nil
}

// Milestones lists the actor's progress toward each badge.
func (s *EngagementService) Milestones(ctx context.Context, actorID string) ([]Milestone, error) {
	const op = "milestones"
	user, err := s.repo.GetUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	out, err := s.badges.Milestones(ctx, s.repo, user)
	if err != nil {
		return nil, classify(op, err)
	}
	for i := range out {
		out[i].Icon = s.garden.BadgeURL(ctx, out[i].Icon)
	}
	return out, nil
}

// ProfilePatch carries optional profile fields; blank values are ignored.
type ProfilePatch struct {
	Title    string `json:"title"`
	Quote    string `json:"quote"`
	Pronouns string `json:"pronouns"`
}

func (s *EngagementService) UpdateProfile(ctx context.Context, actorID string, patch ProfilePatch) (*models.User, error) {
	const op = "update profile"
	release := s.locks.lock(actorID)
	defer release()

	var out models.User
	err := s.repo.Transaction(ctx, func(tx repository.Repository) error {
		user, err := tx.GetUserForUpdate(ctx, actorID)
		if err != nil {
			return err
		}
		if v := strings.TrimSpace(patch.Title); v != "" {
			user.Title = v
		}
		if v := strings.TrimSpace(patch.Quote); v != "" {
			user.Quote = v
		}
		if v := strings.TrimSpace(patch.Pronouns); v != "" {
			user.Pronouns = v
		}
		if err := tx.SaveUser(ctx, user); err != nil {
			return err
		}
		out = *user
		return nil
	})
	if err != nil {
		return nil, classify(op, err)
	}
	return &out, nil
}

func requireMember(ctx context.Context, repo repository.Repository, op, groupID, userID string) error {
	if _, err := repo.GetGroup(ctx, groupID); err != nil {
		return classify(op, err)
	}
	ok, err := repo.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden(op, "not a member of group "+groupID)
	}
	return nil
}

func queueBadges(box *outbox, userID string, grants []Grant) {
	for _, g := range grants {
		box.add(events.UserTopic(userID), events.NewBadge{
			UserID:    userID,
			BadgeID:   g.Badge.ID,
			BadgeName: g.Badge.Name,
		})
	}
}

func stateUpdate(u *models.User) events.UserStateUpdate {
	return events.UserStateUpdate{Streak: u.Streak, XP: u.XP, Level: u.Level}
}

func reflectionPayload(r *models.Reflection) events.ReflectionPayload {
	return events.ReflectionPayload{
		ID:          r.ID,
		Content:     r.Content,
		DisplayName: r.DisplayName,
		Tags:        r.TagNames(),
		CreatedAt:   r.CreatedAt,
	}
}
