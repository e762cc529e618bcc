package services

import (
	"time"

	"reflection-garden/events"
	"reflection-garden/metrics"
	"reflection-garden/repository"
	"reflection-garden/utils"
)

// Options wires the services. Repo and Publisher are required.
type Options struct {
	Repo      repository.Repository
	Publisher events.Publisher
	Assets    utils.AssetResolver
	Metrics   metrics.Recorder
	// Now defaults to time.Now.
	Now func() time.Time
	// Location is the calendar streaks are counted on; defaults to UTC.
	Location *time.Location
	// PromptRotationHour is the local hour a new daily prompt takes over.
	PromptRotationHour uint
}

// base is the state every service shares. The user locks are shared so
// actions of one user serialize across services.
type base struct {
	repo    repository.Repository
	notify  *Notifier
	garden  *GardenService
	badges  *BadgeService
	metrics metrics.Recorder
	locks   *userLocks
	now     func() time.Time
	loc     *time.Location
}

func (b *base) clock() time.Time {
	return b.now().In(b.loc)
}

// Services groups the inbound actions.
type Services struct {
	Engagement *EngagementService
	Goals      *GoalService
	Groups     *GroupService
	Comments   *CommentService
	Prompts    *PromptService
	Users      *UserService
}

func New(o Options) *Services {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Metrics == nil {
		o.Metrics = metrics.Noop{}
	}
	b := &base{
		repo:    o.Repo,
		notify:  NewNotifier(o.Publisher, o.Metrics),
		garden:  NewGardenService(o.Assets, o.Now),
		badges:  NewBadgeService(o.Now),
		metrics: o.Metrics,
		locks:   newUserLocks(),
		now:     o.Now,
		loc:     o.Location,
	}
	return &Services{
		Engagement: &EngagementService{base: b},
		Goals:      &GoalService{base: b},
		Groups:     &GroupService{base: b},
		Comments:   &CommentService{base: b},
		Prompts:    &PromptService{base: b, hour: o.PromptRotationHour},
		Users:      &UserService{base: b},
	}
}
