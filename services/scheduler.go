package services

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartPromptScheduler rotates the daily prompt every day at the rotation
// hour. The caller shuts the returned scheduler down.
func (s *PromptService) StartPromptScheduler() (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler(gocron.WithLocation(s.loc))
	if err != nil {
		return nil, err
	}
	_, err = sched.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(s.hour, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.Rotate(ctx); err != nil {
				log.Printf("❌ [Scheduler] prompt rotation failed: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return nil, err
	}
	sched.Start()
	log.Printf("⏰ [Scheduler] daily prompt rotation at %02d:00 %s", s.hour, s.loc)
	return sched, nil
}
