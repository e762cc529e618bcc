package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflection-garden/events"
	"reflection-garden/models"
)

func TestCreateGoal_Validation(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	g := f.group(t, "u1")
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateGoalInput
		kind Kind
	}{
		{"blank title", CreateGoalInput{ActorID: "u1", Title: "  "}, KindValidation},
		{"bad due date", CreateGoalInput{ActorID: "u1", Title: "Run", DueDate: "03/04/2024"}, KindValidation},
		{"personal with group", CreateGoalInput{ActorID: "u1", Title: "Run", GroupID: &g.ID}, KindValidation},
		{"group without id", CreateGoalInput{ActorID: "u1", Title: "Run", Type: models.GoalGroup}, KindValidation},
		{"unknown type", CreateGoalInput{ActorID: "u1", Title: "Run", Type: "weekly"}, KindValidation},
		{"unknown user", CreateGoalInput{ActorID: "ghost", Title: "Run"}, KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Goals.CreateGoal(ctx, tt.in)
			assert.True(t, IsKind(err, tt.kind), "got %v", err)
		})
	}
	assert.Empty(t, f.pub.Calls())
}

func TestCreateGoal_PersonalAndGroup(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	g := f.group(t, "u1")
	ctx := context.Background()

	personal, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: " Journal daily ", DueDate: "2024-04-01"})
	require.NoError(t, err)
	assert.Equal(t, "Journal daily", personal.Title)
	assert.Equal(t, models.GoalInProgress, personal.Status)
	require.NotNil(t, personal.DueDate)
	assert.Equal(t, "2024-04-01", personal.DueDate.Format(DueDateLayout))
	assert.Equal(t, 1, f.pub.Count(events.UserTopic("u1"), events.NameGoalCreated))

	shared, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: "Finish project", Type: models.GoalGroup, GroupID: &g.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, f.pub.Count(events.GroupTopic(g.ID), events.NameGoalCreated))

	_, err = f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u2", Title: "Sneak in", Type: models.GoalGroup, GroupID: &g.ID})
	assert.True(t, IsKind(err, KindAuthorization))

	lists, err := f.svc.Goals.ListGoals(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, lists.Personal, 1)
	assert.Equal(t, personal.ID, lists.Personal[0].ID)
	require.Len(t, lists.Group, 1)
	assert.Equal(t, shared.ID, lists.Group[0].ID)
}

func TestUpdateGoal(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	ctx := context.Background()

	goal, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: "Read"})
	require.NoError(t, err)
	f.pub.Reset()

	progress := 40
	got, err := f.svc.Goals.UpdateGoal(ctx, goal.ID, "u1", GoalPatch{Progress: &progress})
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
	assert.Equal(t, 1, f.pub.Count(events.UserTopic("u1"), events.NameGoalUpdated))

	over := 101
	_, err = f.svc.Goals.UpdateGoal(ctx, goal.ID, "u1", GoalPatch{Progress: &over})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.Goals.UpdateGoal(ctx, goal.ID, "u2", GoalPatch{Progress: &progress})
	assert.True(t, IsKind(err, KindAuthorization))

	_, err = f.svc.Goals.UpdateGoal(ctx, "missing", "u1", GoalPatch{Progress: &progress})
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCompleteGoal_RewardsOnce(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	ctx := context.Background()

	goal, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: "Meditate"})
	require.NoError(t, err)
	f.pub.Reset()

	res, err := f.svc.Goals.CompleteGoal(ctx, goal.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.GoalCompleted, res.Goal.Status)
	assert.Equal(t, 100, res.Goal.Progress)
	require.NotNil(t, res.User)
	assert.Equal(t, GoalCompletionXP, res.User.XP)

	topic := events.UserTopic("u1")
	assert.Equal(t, 1, f.pub.Count(topic, events.NameGoalUpdated))
	assert.Equal(t, 1, f.pub.Count(topic, events.NameUserStateUpdate))
	assert.Equal(t, 1, f.pub.Count(topic, events.NameGardenUpdate))

	again, err := f.svc.Goals.CompleteGoal(ctx, goal.ID, "u1")
	require.NoError(t, err)
	assert.Nil(t, again.User)

	u, err := f.repo.GetUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, GoalCompletionXP, u.XP)

	back := 50
	_, err = f.svc.Goals.UpdateGoal(ctx, goal.ID, "u1", GoalPatch{Progress: &back})
	assert.True(t, IsKind(err, KindValidation))
}

func TestDeleteGoal(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	ctx := context.Background()

	goal, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: "Sleep early"})
	require.NoError(t, err)

	assert.True(t, IsKind(f.svc.Goals.DeleteGoal(ctx, goal.ID, "u2"), KindAuthorization))
	require.NoError(t, f.svc.Goals.DeleteGoal(ctx, goal.ID, "u1"))
	assert.Equal(t, 1, f.pub.Count(events.UserTopic("u1"), events.NameGoalDeleted))
	assert.True(t, IsKind(f.svc.Goals.DeleteGoal(ctx, goal.ID, "u1"), KindNotFound))
}
