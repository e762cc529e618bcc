// Package repository persists the garden's entities. Services depend on the
// Repository interface; GormRepository is the production implementation.
package repository

import (
	"context"
	"errors"

	"reflection-garden/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// Repository is the storage boundary used by the services. Every method
// runs against the current transaction when called inside Transaction.
type Repository interface {
	// Transaction runs fn atomically; any error rolls every write back.
	Transaction(ctx context.Context, fn func(tx Repository) error) error

	// Users
	GetUser(ctx context.Context, id string) (*models.User, error)
	// GetUserForUpdate reads the user row with a write lock held until commit.
	GetUserForUpdate(ctx context.Context, id string) (*models.User, error)
	// CreateUser is a no-op when the id already exists.
	CreateUser(ctx context.Context, u *models.User) error
	SaveUser(ctx context.Context, u *models.User) error
	SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]models.User, error)

	// Reflections
	CreateReflection(ctx context.Context, r *models.Reflection) error
	GetReflection(ctx context.Context, id string) (*models.Reflection, error)
	CountReflections(ctx context.Context, userID string) (int64, error)
	ListRecentReflections(ctx context.Context, userID string, groupIDs []string, limit int) ([]models.Reflection, error)
	ListGroupReflections(ctx context.Context, groupID string) ([]models.Reflection, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	// SaveVote inserts v or replaces the value of the user's earlier vote.
	SaveVote(ctx context.Context, v *models.Vote) error
	// ReflectionTallies returns vote sums and comment counts keyed by
	// reflection id. Reflections with neither are absent.
	ReflectionTallies(ctx context.Context, ids []string) (map[string]ReflectionTally, error)

	// Garden
	FindSpeciesByName(ctx context.Context, name string) (*models.PlantSpecies, error)
	EnsureSpecies(ctx context.Context, s *models.PlantSpecies) error
	CreatePlant(ctx context.Context, p *models.UserPlant) error
	GetPlant(ctx context.Context, id string) (*models.UserPlant, error)
	SavePlant(ctx context.Context, p *models.UserPlant) error
	ListPersonalPlants(ctx context.Context, userID string) ([]models.UserPlant, error)
	ListGroupPlants(ctx context.Context, groupID string) ([]models.UserPlant, error)

	// Badges
	ListBadgeTypes(ctx context.Context) ([]models.BadgeType, error)
	EnsureBadgeType(ctx context.Context, b *models.BadgeType) error
	ListUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
	// GrantBadge inserts the grant unless one exists; it reports whether a row was added.
	GrantBadge(ctx context.Context, ub *models.UserBadge) (bool, error)

	// Groups
	CreateGroup(ctx context.Context, g *models.Group) error
	GetGroup(ctx context.Context, id string) (*models.Group, error)
	SlugTaken(ctx context.Context, slug string) (bool, error)
	AddMember(ctx context.Context, m *models.GroupMember) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMemberIDs(ctx context.Context, groupID string) ([]string, error)
	ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error)
	GroupCounts(ctx context.Context, groupID string) (GroupCounts, error)

	// Goals
	CreateGoal(ctx context.Context, g *models.Goal) error
	GetGoal(ctx context.Context, id string) (*models.Goal, error)
	SaveGoal(ctx context.Context, g *models.Goal) error
	DeleteGoal(ctx context.Context, id string) error
	ListPersonalGoals(ctx context.Context, userID string) ([]models.Goal, error)
	ListGroupGoalsForUser(ctx context.Context, userID string) ([]models.Goal, error)
	ListRecentGoals(ctx context.Context, userID string, groupIDs []string, limit int) ([]models.Goal, error)
	ListGroupGoals(ctx context.Context, groupID string) ([]models.Goal, error)

	// Prompts
	CurrentDailyPrompt(ctx context.Context) (*models.Prompt, error)
	NextUnusedPrompt(ctx context.Context) (*models.Prompt, error)
	CreatePrompt(ctx context.Context, p *models.Prompt) error
	SavePrompt(ctx context.Context, p *models.Prompt) error
}

// ReflectionTally is the feedback a reflection has collected.
type ReflectionTally struct {
	Upvotes  int64 `json:"upvotes"`
	Comments int64 `json:"comments"`
}

// GroupCounts summarizes a group for listings.
type GroupCounts struct {
	Members     int64 `json:"memberCount"`
	Reflections int64 `json:"reflectionCount"`
	Goals       int64 `json:"goalCount"`
}
