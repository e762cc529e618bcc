package services

import (
	"context"
	"sort"
	"time"

	"reflection-garden/models"
	"reflection-garden/repository"
)

const (
	ActivityReflection = "reflection"
	ActivityGoal       = "goal"

	defaultActivityLimit = 10
	anonymousName        = "Anonymous"
)

// Activity is one entry of a merged reflection/goal feed.
type Activity struct {
	Type      string    `json:"type"`
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UserName  string    `json:"userName,omitempty"`
	Content   string    `json:"content,omitempty"`
	GoalName  string    `json:"goalName,omitempty"`
	Progress  *int      `json:"progress,omitempty"`
	Status    string    `json:"status,omitempty"`
	GroupID   *string   `json:"group_id,omitempty"`
	Upvotes   *int64    `json:"upvotes,omitempty"`
	Comments  *int64    `json:"comments,omitempty"`
}

func reflectionActivity(r models.Reflection, t repository.ReflectionTally) Activity {
	name := anonymousName
	if r.DisplayName != nil && *r.DisplayName != "" {
		name = *r.DisplayName
	}
	return Activity{
		Type:      ActivityReflection,
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		UserName:  name,
		Content:   r.Content,
		GroupID:   r.GroupID,
		Upvotes:   &t.Upvotes,
		Comments:  &t.Comments,
	}
}

func goalActivity(g models.Goal, userName string) Activity {
	progress := g.Progress
	return Activity{
		Type:      ActivityGoal,
		ID:        g.ID,
		CreatedAt: g.CreatedAt,
		UserName:  userName,
		GoalName:  g.Title,
		Progress:  &progress,
		Status:    string(g.Status),
		GroupID:   g.GroupID,
	}
}

// reflectionActivities renders reflections with their tallies. The result
// has spare capacity for extra entries.
func reflectionActivities(ctx context.Context, repo repository.Repository, reflections []models.Reflection, extra int) ([]Activity, error) {
	ids := make([]string, 0, len(reflections))
	for _, r := range reflections {
		ids = append(ids, r.ID)
	}
	tallies, err := repo.ReflectionTallies(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]Activity, 0, len(reflections)+extra)
	for _, r := range reflections {
		out = append(out, reflectionActivity(r, tallies[r.ID]))
	}
	return out, nil
}

// sortActivities orders newest first; ties keep insertion order.
func sortActivities(a []Activity) {
	sort.SliceStable(a, func(i, j int) bool { return a[i].CreatedAt.After(a[j].CreatedAt) })
}

// userNames memoizes username lookups for goal creators.
type userNames struct {
	lookup func(ctx context.Context, id string) (*models.User, error)
	cache  map[string]string
}

func (u *userNames) get(ctx context.Context, id string) string {
	if name, ok := u.cache[id]; ok {
		return name
	}
	name := ""
	if user, err := u.lookup(ctx, id); err == nil {
		name = user.Username
	}
	u.cache[id] = name
	return name
}

// RecentActivity merges the actor's and their groups' latest reflections
// and goals, newest first.
func (s *EngagementService) RecentActivity(ctx context.Context, actorID string, limit int) ([]Activity, error) {
	const op = "recent activity"
	if limit <= 0 || limit > 100 {
		limit = defaultActivityLimit
	}
	groups, err := s.repo.ListGroupsForUser(ctx, actorID)
	if err != nil {
		return nil, classify(op, err)
	}
	groupIDs := make([]string, 0, len(groups))
	for _, g := range groups {
		groupIDs = append(groupIDs, g.ID)
	}

	reflections, err := s.repo.ListRecentReflections(ctx, actorID, groupIDs, limit)
	if err != nil {
		return nil, classify(op, err)
	}
	goals, err := s.repo.ListRecentGoals(ctx, actorID, groupIDs, limit)
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
