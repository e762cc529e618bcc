package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"reflection-garden/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRepository implements Repository on gorm. The same type serves the
// root handle and transaction handles.
type GormRepository struct {
	DB *gorm.DB
}

func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{DB: db}
}

// AutoMigrate creates or updates every table the service uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Prompt{},
		&models.Reflection{},
		&models.ReflectionTag{},
		&models.Comment{},
		&models.Vote{},
		&models.PlantSpecies{},
		&models.UserPlant{},
		&models.BadgeType{},
		&models.UserBadge{},
		&models.Group{},
		&models.GroupMember{},
		&models.Goal{},
	)
}

func (r *GormRepository) db(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx)
}

func (r *GormRepository) Transaction(ctx context.Context, fn func(tx Repository) error) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormRepository{DB: tx})
	})
}

// notFound maps gorm's sentinel to ErrNotFound, keeping the cause wrapped.
func notFound(err error, what, id string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %s: %w", what, id, ErrNotFound)
	}
	return err
}

// --- Users ---

func (r *GormRepository) GetUser(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

func (r *GormRepository) GetUserForUpdate(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db(ctx).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&u, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "user", id)
	}
	return &u, nil
}

// CreateUser inserts u; an existing row with the same id is left untouched.
func (r *GormRepository) CreateUser(ctx context.Context, u *models.User) error {
	return r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoNothing: true,
	}).Create(u).Error
}

func (r *GormRepository) SaveUser(ctx context.Context, u *models.User) error {
	return r.db(ctx).Save(u).Error
}

func (r *GormRepository) SearchUsers(ctx context.Context, excludeID, query string, limit int) ([]models.User, error) {
	var users []models.User
	q := r.db(ctx).Model(&models.User{}).Where("id <> ?", excludeID).Order("username ASC").Limit(limit)
	if query != "" {
		q = q.Where("LOWER(username) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(query))+"%")
	}
	err := q.Find(&users).Error
	return users, err
}

// --- Reflections ---

func (r *GormRepository) CreateReflection(ctx context.Context, refl *models.Reflection) error {
	return r.db(ctx).Create(refl).Error
}

func (r *GormRepository) GetReflection(ctx context.Context, id string) (*models.Reflection, error) {
	var refl models.Reflection
	if err := r.db(ctx).Preload("Tags").First(&refl, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "reflection", id)
	}
	return &refl, nil
}

func (r *GormRepository) CountReflections(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db(ctx).Model(&models.Reflection{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepository) ListRecentReflections(ctx context.Context, userID string, groupIDs []string, limit int) ([]models.Reflection, error) {
	var out []models.Reflection
	q := r.db(ctx).Preload("Tags")
	if len(groupIDs) > 0 {
		q = q.Where("user_id = ? OR group_id IN ?", userID, groupIDs)
	} else {
		q = q.Where("user_id = ?", userID)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *GormRepository) ListGroupReflections(ctx context.Context, groupID string) ([]models.Reflection, error) {
	var out []models.Reflection
	err := r.db(ctx).Preload("Tags").
		Where("group_id = ?", groupID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) CreateComment(ctx context.Context, c *models.Comment) error {
	return r.db(ctx).Create(c).Error
}

func (r *GormRepository) SaveVote(ctx context.Context, v *models.Vote) error {
	return r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "reflection_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(v).Error
}

type reflectionTotal struct {
	ReflectionID string
	Total        int64
}

func (r *GormRepository) ReflectionTallies(ctx context.Context, ids []string) (map[string]ReflectionTally, error) {
	out := make(map[string]ReflectionTally, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var votes []reflectionTotal
	if err := r.db(ctx).Model(&models.Vote{}).
		Select("reflection_id, COALESCE(SUM(value), 0) AS total").
		Where("reflection_id IN ?", ids).
		Group("reflection_id").
		Scan(&votes).Error; err != nil {
		return nil, err
	}
	for _, v := range votes {
		t := out[v.ReflectionID]
		t.Upvotes = v.Total
		out[v.ReflectionID] = t
	}

	var comments []reflectionTotal
	if err := r.db(ctx).Model(&models.Comment{}).
		Select("reflection_id, COUNT(*) AS total").
		Where("reflection_id IN ?", ids).
		Group("reflection_id").
		Scan(&comments).Error; err != nil {
		return nil, err
	}
	for _, c := range comments {
		t := out[c.ReflectionID]
		t.Comments = c.Total
		out[c.ReflectionID] = t
	}
	return out, nil
}

// --- Garden ---

func (r *GormRepository) FindSpeciesByName(ctx context.Context, name string) (*models.PlantSpecies, error) {
	var s models.PlantSpecies
	if err := r.db(ctx).Where("name = ?", name).First(&s).Error; err != nil {
		return nil, notFound(err, "species", name)
	}
	return &s, nil
}

func (r *GormRepository) EnsureSpecies(ctx context.Context, s *models.PlantSpecies) error {
	return r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(s).Error
}

func (r *GormRepository) CreatePlant(ctx context.Context, p *models.UserPlant) error {
	return r.db(ctx).Omit("Species").Create(p).Error
}

func (r *GormRepository) GetPlant(ctx context.Context, id string) (*models.UserPlant, error) {
	var p models.UserPlant
	if err := r.db(ctx).Preload("Species").First(&p, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "plant", id)
	}
	return &p, nil
}

func (r *GormRepository) SavePlant(ctx context.Context, p *models.UserPlant) error {
	return r.db(ctx).Omit("Species").Save(p).Error
}

func (r *GormRepository) ListPersonalPlants(ctx context.Context, userID string) ([]models.UserPlant, error) {
	var out []models.UserPlant
	err := r.db(ctx).Preload("Species").
		Where("user_id = ? AND group_id IS NULL", userID).
		Order("planted_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListGroupPlants(ctx context.Context, groupID string) ([]models.UserPlant, error) {
	var out []models.UserPlant
	err := r.db(ctx).Preload("Species").
		Where("group_id = ?", groupID).
		Order("planted_at ASC").
		Find(&out).Error
	return out, err
}

// --- Badges ---

func (r *GormRepository) ListBadgeTypes(ctx context.Context) ([]models.BadgeType, error) {
	var out []models.BadgeType
	err := r.db(ctx).Order("code ASC").Find(&out).Error
	return out, err
}

func (r *GormRepository) EnsureBadgeType(ctx context.Context, b *models.BadgeType) error {
	return r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoNothing: true,
	}).Create(b).Error
}

func (r *GormRepository) ListUserBadges(ctx context.Context, userID string) ([]models.UserBadge, error) {
	var out []models.UserBadge
	err := r.db(ctx).Preload("BadgeType").
		Where("user_id = ?", userID).
		Order("awarded_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) GrantBadge(ctx context.Context, ub *models.UserBadge) (bool, error) {
	res := r.db(ctx).Omit("BadgeType").Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_type_id"}},
		DoNothing: true,
	}).Create(ub)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// --- Groups ---

func (r *GormRepository) CreateGroup(ctx context.Context, g *models.Group) error {
	return r.db(ctx).Omit("Members").Create(g).Error
}

func (r *GormRepository) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	var g models.Group
	if err := r.db(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "group", id)
	}
	return &g, nil
}

func (r *GormRepository) SlugTaken(ctx context.Context, slug string) (bool, error) {
	var n int64
	err := r.db(ctx).Model(&models.Group{}).Where("slug = ?", slug).Count(&n).Error
	return n > 0, err
}

func (r *GormRepository) AddMember(ctx context.Context, m *models.GroupMember) error {
	return r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "user_id"}},
		DoNothing: true,
	}).Create(m).Error
}

func (r *GormRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	var n int64
	err := r.db(ctx).Model(&models.GroupMember{}).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Count(&n).Error
	return n > 0, err
}

func (r *GormRepository) ListMemberIDs(ctx context.Context, groupID string) ([]string, error) {
	var ids []string
	err := r.db(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Order("joined_at ASC").
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *GormRepository) ListGroupsForUser(ctx context.Context, userID string) ([]models.Group, error) {
	var out []models.Group
	err := r.db(ctx).
		Select("groups.*").
		Joins("JOIN group_members ON group_members.group_id = groups.id").
		Where("group_members.user_id = ?", userID).
		Order("groups.created_at ASC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) GroupCounts(ctx context.Context, groupID string) (GroupCounts, error) {
	var c GroupCounts
	if err := r.db(ctx).Model(&models.GroupMember{}).Where("group_id = ?", groupID).Count(&c.Members).Error; err != nil {
		return c, err
	}
	if err := r.db(ctx).Model(&models.Reflection{}).Where("group_id = ?", groupID).Count(&c.Reflections).Error; err != nil {
		return c, err
	}
	if err := r.db(ctx).Model(&models.Goal{}).Where("group_id = ?", groupID).Count(&c.Goals).Error; err != nil {
		return c, err
	}
	return c, nil
}

// --- Goals ---

func (r *GormRepository) CreateGoal(ctx context.Context, g *models.Goal) error {
	return r.db(ctx).Create(g).Error
}

func (r *GormRepository) GetGoal(ctx context.Context, id string) (*models.Goal, error) {
	var g models.Goal
	if err := r.db(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "goal", id)
	}
	return &g, nil
}

func (r *GormRepository) SaveGoal(ctx context.Context, g *models.Goal) error {
	return r.db(ctx).Save(g).Error
}

func (r *GormRepository) DeleteGoal(ctx context.Context, id string) error {
	res := r.db(ctx).Delete(&models.Goal{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("goal %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *GormRepository) ListPersonalGoals(ctx context.Context, userID string) ([]models.Goal, error) {
	var out []models.Goal
	err := r.db(ctx).
		Where("created_by = ? AND type = ?", userID, models.GoalPersonal).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListGroupGoalsForUser(ctx context.Context, userID string) ([]models.Goal, error) {
	var out []models.Goal
	err := r.db(ctx).
		Select("goals.*").
		Joins("JOIN group_members ON group_members.group_id = goals.group_id").
		Where("group_members.user_id = ? AND goals.type = ?", userID, models.GoalGroup).
		Order("goals.created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *GormRepository) ListRecentGoals(ctx context.Context, userID string, groupIDs []string, limit int) ([]models.Goal, error) {
	var out []models.Goal
	q := r.db(ctx)
	if len(groupIDs) > 0 {
		q = q.Where("created_by = ? OR group_id IN ?", userID, groupIDs)
	} else {
		q = q.Where("created_by = ?", userID)
	}
	err := q.Order("created_at DESC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *GormRepository) ListGroupGoals(ctx context.Context, groupID string) ([]models.Goal, error) {
	var out []models.Goal
	err := r.db(ctx).Where("group_id = ?", groupID).Order("created_at DESC").Find(&out).Error
	return out, err
}

// --- Prompts ---

func (r *GormRepository) CurrentDailyPrompt(ctx context.Context) (*models.Prompt, error) {
	var p models.Prompt
	err := r.db(ctx).
		Where("is_daily = ? AND used_at IS NOT NULL", true).
		Order("used_at DESC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "prompt", "daily")
	}
	return &p, nil
}

// NextUnusedPrompt picks never-used prompts first, then the least recently used.
func (r *GormRepository) NextUnusedPrompt(ctx context.Context) (*models.Prompt, error) {
	var p models.Prompt
	err := r.db(ctx).
		Where("is_daily = ?", true).
		Order("CASE WHEN used_at IS NULL THEN 0 ELSE 1 END, used_at ASC, created_at ASC").
		First(&p).Error
	if err != nil {
		return nil, notFound(err, "prompt", "next")
	}
	return &p, nil
}

func (r *GormRepository) CreatePrompt(ctx context.Context, p *models.Prompt) error {
	return r.db(ctx).Create(p).Error
}

func (r *GormRepository) SavePrompt(ctx context.Context, p *models.Prompt) error {
	return r.db(ctx).Save(p).Error
}
