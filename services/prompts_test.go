package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyPrompt_SeedsAndStaysStable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.Contains(t, DefaultPrompts, first.Text)
	require.NotNil(t, first.UsedAt)

	again, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestRotate_CyclesThroughPrompts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	seen := map[string]bool{}
	var order []string
	for i := 0; i < len(DefaultPrompts); i++ {
		p, err := f.svc.Prompts.Rotate(ctx)
		require.NoError(t, err)
		seen[p.Text] = true
		order = append(order, p.ID)
		f.clock.Advance(24 * time.Hour)
	}
	assert.Len(t, seen, len(DefaultPrompts))

	p, err := f.svc.Prompts.Rotate(ctx)
	require.NoError(t, err)
	assert.Equal(t, order[0], p.ID, "least recently used comes back first")

	current, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, p.ID, current.ID)
}

func TestDailyPrompt_RotatesAfterMissedSchedule(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)

	// no scheduled rotation ran overnight
	f.clock.Advance(24 * time.Hour)
	next, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, next.ID)
	assert.True(t, next.UsedAt.Equal(f.clock.Now()))

	again, err := f.svc.Prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, next.ID, again.ID)
}

func TestDailyPrompt_HonoursRotationHour(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	prompts := New(Options{
		Repo:               f.repo,
		Publisher:          f.pub,
		Now:                f.clock.Now,
		PromptRotationHour: 12,
	}).Prompts

	morning, err := prompts.DailyPrompt(ctx)
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour) // 11:00, before today's rotation
	same, err := prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.Equal(t, morning.ID, same.ID)

	f.clock.Advance(2 * time.Hour) // 13:00
	afternoon, err := prompts.DailyPrompt(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, morning.ID, afternoon.ID)
}
