package services

import (
	"math"
	"time"
)

// XP rewards
const (
	ReflectionXP     int64 = 10
	GoalCompletionXP int64 = 10
)

// LevelForXP is floor(sqrt(xp)/5)+1. Negative xp counts as zero.
func LevelForXP(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(math.Sqrt(float64(xp))/5) + 1
}

// UpdateStreak applies one day of activity. Days are compared on the
// calendar of now's location:
//   - first activity ever → 1
//   - last active yesterday → prev+1
//   - last active two or more days ago → 1
//   - already active today → prev
//
// The returned activity time is always now.
func UpdateStreak(prev int, lastActive *time.Time, now time.Time) (int, time.Time) {
	if lastActive == nil {
		return 1, now
	}
	switch days := calendarDays(lastActive.In(now.Location()), now); {
	case days == 1:
		return prev + 1, now
	case days > 1:
		return 1, now
	default:
		return prev, now
	}
}

// calendarDays counts midnights between a and b in b's location.
func calendarDays(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	da := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	db := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(db.Sub(da).Hours() / 24)
}
