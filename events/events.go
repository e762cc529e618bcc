// Package events defines the closed set of real-time events and the
// topic-keyed transport that fans them out to live subscribers.
package events

import "time"

// Event names are the wire names clients listen for.
const (
	NameNewReflection      = "new_reflection"
	NameNewGroupReflection = "new_group_reflection"
	NameUserStateUpdate    = "user_state_update"
	NameGardenUpdate       = "garden_update"
	NameNewPlant           = "new_plant"
	NameNewBadge           = "new_badge"
	NameGoalCreated        = "goal_created"
	NameGoalUpdated        = "goal_updated"
	NameGoalDeleted        = "goal_deleted"
	NameGroupCreated       = "group_created"
	NameNewComment         = "new_comment"
)

// Event is implemented only by the payload types in this file.
type Event interface {
	EventName() string
	sealed()
}

// Publisher routes an event to every live subscriber of a topic.
type Publisher interface {
	Publish(topic string, ev Event) error
}

type ReflectionPayload struct {
	ID          string    `json:"id"`
	Content     string    `json:"content"`
	DisplayName *string   `json:"display_name"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"created_at"`
}

type NewReflection struct {
	Reflection ReflectionPayload `json:"reflection"`
}

type NewGroupReflection struct {
	GroupID    string            `json:"group_id"`
	Reflection ReflectionPayload `json:"reflection"`
}

type UserStateUpdate struct {
	Streak int   `json:"streak"`
	XP     int64 `json:"xp"`
	Level  int   `json:"level"`
}

// GardenUpdate tells the client to refetch garden state.
type GardenUpdate struct {
	UserID  string `json:"userId,omitempty"`
	GroupID string `json:"groupId,omitempty"`
}

type NewPlant struct {
	UserID    string `json:"user_id"`
	GroupID   string `json:"group_id,omitempty"`
	PlantID   string `json:"plant_id"`
	PlantType string `json:"plant_type"`
	Image     string `json:"image"`
}

type NewBadge struct {
	UserID    string `json:"userId"`
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
}

type GoalPayload struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	DueDate     *time.Time `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	GroupID     *string    `json:"group_id"`
}

type GoalCreated struct {
	GoalPayload
}

type GoalUpdated struct {
	GoalPayload
}

type GoalDeleted struct {
	GoalID string `json:"goal_id"`
}

type GroupCreated struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	ClassName   string `json:"class_name,omitempty"`
	MemberCount int    `json:"memberCount"`
}

type CommentPayload struct {
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type NewComment struct {
	ReflectionID string         `json:"reflectionId"`
	Comment      CommentPayload `json:"comment"`
}

func (NewReflection) EventName() string      { return NameNewReflection }
func (NewGroupReflection) EventName() string { return NameNewGroupReflection }
func (UserStateUpdate) EventName() string    { return NameUserStateUpdate }
func (GardenUpdate) EventName() string       { return NameGardenUpdate }
func (NewPlant) EventName() string           { return NameNewPlant }
func (NewBadge) EventName() string           { return NameNewBadge }
func (GoalCreated) EventName() string        { return NameGoalCreated }
func (GoalUpdated) EventName() string        { return NameGoalUpdated }
func (GoalDeleted) EventName() string        { return NameGoalDeleted }
func (GroupCreated) EventName() string       { return NameGroupCreated }
func (NewComment) EventName() string         { return NameNewComment }

func (NewReflection) sealed()      {}
func (NewGroupReflection) sealed() {}
func (UserStateUpdate) sealed()    {}
func (GardenUpdate) sealed()       {}
func (NewPlant) sealed()           {}
func (NewBadge) sealed()           {}
func (GoalCreated) sealed()        {}
func (GoalUpdated) sealed()        {}
func (GoalDeleted) sealed()        {}
func (GroupCreated) sealed()       {}
func (NewComment) sealed()         {}
