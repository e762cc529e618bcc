package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"reflection-garden/models"
)

func TestLevelForXP(t *testing.T) {
	tests := []struct {
		xp    int64
		level int
	}{
		{-50, 1},
		{0, 1},
		{10, 1},
		{24, 1},
		{25, 2},
		{99, 2},
		{100, 3},
		{625, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, LevelForXP(tt.xp), "xp=%d", tt.xp)
	}
}

func TestLevelForXP_Monotonic(t *testing.T) {
	prev := LevelForXP(0)
	for xp := int64(1); xp <= 5000; xp++ {
		l := LevelForXP(xp)
		assert.GreaterOrEqual(t, l, prev, "xp=%d", xp)
		prev = l
	}
}

func TestUpdateStreak(t *testing.T) {
	now := time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC)
	at := func(d time.Time) *time.Time { return &d }

	tests := []struct {
		name       string
		prev       int
		lastActive *time.Time
		want       int
	}{
		{"first activity", 0, nil, 1},
		{"same day earlier", 4, at(now.Add(-8 * time.Hour)), 4},
		{"same day later clock", 4, at(now.Add(time.Hour)), 4},
		{"yesterday late", 4, at(time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)), 5},
		{"yesterday early", 1, at(time.Date(2024, 3, 9, 0, 1, 0, 0, time.UTC)), 2},
		{"two days ago", 9, at(time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC)), 1},
		{"long gap", 30, at(now.AddDate(0, -2, 0)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, active := UpdateStreak(tt.prev, tt.lastActive, now)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, now, active)
		})
	}
}

func TestUpdateStreak_UsesNowsCalendar(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	// 23:30 UTC on the 9th is already the 10th in Tokyo.
	last := time.Date(2024, 3, 9, 23, 30, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 20, 0, 0, 0, tokyo)

	got, _ := UpdateStreak(3, &last, now)
	assert.Equal(t, 3, got)
}

func TestAddXP_ClampsAndLevels(t *testing.T) {
	u := &models.User{XP: 20, Level: 1}
	u.AddXP(10, LevelForXP)
	assert.Equal(t, int64(30), u.XP)
	assert.Equal(t, 2, u.Level)

	u.AddXP(-100, LevelForXP)
	assert.Equal(t, int64(0), u.XP)
	assert.Equal(t, 1, u.Level)
}
