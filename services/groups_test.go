package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflection-garden/events"
	"reflection-garden/models"
)

func TestCreateGroup(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	ctx := context.Background()

	g, err := f.svc.Groups.CreateGroup(ctx, CreateGroupInput{
		ActorID: "u1",
		Name:    "Café Thinkers",
		Members: []string{"u2", "u2", "u1", " "},
	})
	require.NoError(t, err)
	assert.Equal(t, "cafe-thinkers", g.Slug)

	ids, err := f.repo.ListMemberIDs(ctx, g.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"u1", "u2"}, ids)

	assert.Equal(t, 1, f.pub.Count(events.GroupTopic(g.ID), events.NameGroupCreated))
	assert.Equal(t, 1, f.pub.Count(events.UserTopic("u1"), events.NameGroupCreated))
	assert.Equal(t, 1, f.pub.Count(events.UserTopic("u2"), events.NameGroupCreated))
	for _, c := range f.pub.Calls() {
		assert.Equal(t, 2, c.Event.(events.GroupCreated).MemberCount)
	}

	again, err := f.svc.Groups.CreateGroup(ctx, CreateGroupInput{ActorID: "u2", Name: "Café Thinkers"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(again.Slug, "cafe-thinkers-"))
	assert.Len(t, again.Slug, len("cafe-thinkers-")+8)
}

func TestCreateGroup_Errors(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	ctx := context.Background()

	_, err := f.svc.Groups.CreateGroup(ctx, CreateGroupInput{ActorID: "u1", Name: " "})
	assert.True(t, IsKind(err, KindValidation))

	_, err = f.svc.Groups.CreateGroup(ctx, CreateGroupInput{ActorID: "u1", Name: "Solo", Members: []string{"ghost"}})
	assert.True(t, IsKind(err, KindNotFound))

	groups, err := f.repo.ListGroupsForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, groups)
	assert.Empty(t, f.pub.Calls())
}

func TestGroupViews(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	f.user(t, "u3", "eve")
	g := f.group(t, "u1", "u2")
	ctx := context.Background()

	f.submit(t, SubmitReflectionInput{ActorID: "u2", Content: "shared thought", GroupID: &g.ID, DisplayMode: models.DisplayAnonymous})
	_, err := f.svc.Goals.CreateGoal(ctx, CreateGoalInput{ActorID: "u1", Title: "Ship it", Type: models.GoalGroup, GroupID: &g.ID})
	require.NoError(t, err)

	view, err := f.svc.Groups.GetGroup(ctx, g.ID, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.GroupCounts.Members)
	assert.Equal(t, int64(1), view.Reflections)
	assert.Equal(t, int64(1), view.Goals)
	assert.Len(t, view.Garden, 1)

	list, err := f.svc.Groups.ListGroups(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, g.ID, list[0].ID)

	items, err := f.svc.Groups.GroupActivity(ctx, g.ID, "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	names := map[string]string{}
	for _, it := range items {
		names[it.Type] = it.UserName
	}
	assert.Equal(t, "Anonymous", names[ActivityReflection])
	assert.Equal(t, "ada", names[ActivityGoal])

	_, err = f.svc.Groups.GetGroup(ctx, g.ID, "u3")
	assert.True(t, IsKind(err, KindAuthorization))
	_, err = f.svc.Groups.GroupActivity(ctx, g.ID, "u3")
	assert.True(t, IsKind(err, KindAuthorization))
	_, err = f.svc.Groups.GetGroup(ctx, "missing", "u1")
	assert.True(t, IsKind(err, KindNotFound))
}

func TestCanJoinTopic(t *testing.T) {
	f := newFixture(t)
	f.user(t, "u1", "ada")
	f.user(t, "u2", "bob")
	g := f.group(t, "u1")
	ctx := context.Background()

	own := f.submit(t, SubmitReflectionInput{ActorID: "u1", Content: "mine"}).Reflection
	shared := f.submit(t, SubmitReflectionInput{ActorID: "u1", Content: "ours", GroupID: &g.ID}).Reflection

	tests := []struct {
		actor string
		topic string
		want  bool
	}{
		{"u1", events.UserTopic("u1"), true},
		{"u2", events.UserTopic("u1"), false},
		{"u1", events.GroupTopic(g.ID), true},
		{"u2", events.GroupTopic(g.ID), false},
		{"u1", events.ReflectionTopic(own.ID), true},
		{"u2", events.ReflectionTopic(own.ID), false},
		{"u1", events.ReflectionTopic(shared.ID), true},
		{"u2", events.ReflectionTopic("missing"), false},
		{"u1", "garbage", false},
	}
	for _, tt := range tests {
		ok, err := f.svc.Groups.CanJoinTopic(ctx, tt.actor, tt.topic)
		require.NoError(t, err)
		assert.Equal(t, tt.want, ok, "%s on %s", tt.actor, tt.topic)
	}
}
