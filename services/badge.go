package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"reflection-garden/models"
	"reflection-garden/repository"
)

// Criteria metrics understood by the evaluator. Every entry of a badge's
// criteria is a minimum; all must hold.
const (
	CriterionStreak      = "streak"
	CriterionLevel       = "level"
	CriterionXP          = "xp"
	CriterionReflections = "reflections"
	CriterionBadges      = "badges"
)

// Grant is a badge newly awarded by Evaluate.
type Grant struct {
	Badge     models.BadgeType
	UserBadge models.UserBadge
}

// BadgeService checks badge criteria against a user's state and records
// missing grants.
type BadgeService struct {
	now func() time.Time
}

func NewBadgeService(now func() time.Time) *BadgeService {
	if now == nil {
		now = time.Now
	}
	return &BadgeService{now: now}
}

// userStats is the derived state criteria are evaluated against.
type userStats struct {
	streak      int64
	level       int64
	xp          int64
	reflections int64
	badges      int64
}

func (s userStats) value(metric string) (int64, bool) {
	switch metric {
	case CriterionStreak:
		return s.streak, true
	case CriterionLevel:
		return s.level, true
	case CriterionXP:
		return s.xp, true
	case CriterionReflections:
		return s.reflections, true
	case CriterionBadges:
		return s.badges, true
	}
	return 0, false
}

// meetsCriteria requires a non-empty criteria set with every metric known
// and at or above its minimum.
func meetsCriteria(stats userStats, criteria map[string]int64) bool {
	if len(criteria) == 0 {
		return false
	}
	for metric, required := range criteria {
		v, ok := stats.value(metric)
		if !ok || v < required {
			return false
		}
	}
	return true
}

// Evaluate grants every badge whose criteria the user currently meets and
// does not hold. Badges are visited in code order. Grants that lose an
// insert race are skipped, so repeated calls never duplicate.
func (s *BadgeService) Evaluate(ctx context.Context, repo repository.Repository, user *models.User) ([]Grant, error) {
	types, err := repo.ListBadgeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badge types: %w", err)
	}
	if len(types) == 0 {
		return nil, nil
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Code < types[j].Code })

	stats, owned, err := loadStats(ctx, repo, user)
	if err != nil {
		return nil, err
	}

	var grants []Grant
	for _, bt := range types {
		if owned[bt.ID] || !meetsCriteria(stats, bt.Criteria) {
			continue
		}
		ub := models.UserBadge{UserID: user.ID, BadgeTypeID: bt.ID, AwardedAt: s.now()}
		added, err := repo.GrantBadge(ctx, &ub)
		if err != nil {
			return nil, fmt.Errorf("grant %s: %w", bt.Code, err)
		}
		if !added {
			continue
		}
		ub.BadgeType = bt
		grants = append(grants, Grant{Badge: bt, UserBadge: ub})
		stats.badges++
		log.Printf("🎖️ Badge awarded: %s → %s", bt.Name, user.ID)
	}
	return grants, nil
}

// loadStats derives the criteria inputs and the set of held badge type ids.
func loadStats(ctx context.Context, repo repository.Repository, user *models.User) (userStats, map[string]bool, error) {
	held, err := repo.ListUserBadges(ctx, user.ID)
	if err != nil {
		return userStats{}, nil, fmt.Errorf("list user badges: %w", err)
	}
	owned := make(map[string]bool, len(held))
	for _, ub := range held {
		owned[ub.BadgeTypeID] = true
	}
	reflections, err := repo.CountReflections(ctx, user.ID)
	if err != nil {
		return userStats{}, nil, fmt.Errorf("count reflections: %w", err)
	}
	return userStats{
		streak:      int64(user.Streak),
		level:       int64(user.Level),
		xp:          user.XP,
		reflections: reflections,
		badges:      int64(len(held)),
	}, owned, nil
}

// Milestone is the user's progress on one criterion of a badge.
type Milestone struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Metric      string `json:"metric"`
	Progress    int64  `json:"progress"`
	Target      int64  `json:"target"`
	Completed   bool   `json:"completed"`
}

// Milestones reports progress toward every badge, one entry per criterion.
// Progress is capped at the target. A held badge counts as completed even
// when the metric has since dropped, as a broken streak does. Icon is the
// raw asset key.
func (s *BadgeService) Milestones(ctx context.Context, repo repository.Repository, user *models.User) ([]Milestone, error) {
	types, err := repo.ListBadgeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list badge types: %w", err)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Code < types[j].Code })

	stats, owned, err := loadStats(ctx, repo, user)
	if err != nil {
		return nil, err
	}

	out := make([]Milestone, 0, len(types))
	for _, bt := range types {
		metrics := make([]string, 0, len(bt.Criteria))
		for m := range bt.Criteria {
			metrics = append(metrics, m)
		}
		sort.Strings(metrics)
		for _, m := range metrics {
			v, ok := stats.value(m)
			if !ok {
				continue
			}
			target := bt.Criteria[m]
			out = append(out, Milestone{
				Code:        bt.Code,
				Name:        bt.Name,
				Description: bt.Description,
				Icon:        bt.IconURL,
				Metric:      m,
				Progress:    min(v, target),
				Target:      target,
				Completed:   owned[bt.ID] || v >= target,
			})
		}
	}
	return out, nil
}
