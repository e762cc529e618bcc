package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reflection-garden/models"
	"reflection-garden/repository"
	"reflection-garden/testutil"
)

type fixture struct {
	svc   *Services
	repo  *repository.GormRepository
	pub   *testutil.Recorder
	clock *testutil.Clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, nil)
}

// newFixtureWithRepo lets a test wrap the store. wrap may be nil.
func newFixtureWithRepo(t *testing.T, wrap func(repository.Repository) repository.Repository) *fixture {
	t.Helper()
	repo := testutil.NewRepo(t)
	require.NoError(t, SeedReferenceData(context.Background(), repo))

	f := &fixture{
		repo:  repo,
		pub:   &testutil.Recorder{},
		clock: testutil.NewClock(time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC)),
	}
	var r repository.Repository = repo
	if wrap != nil {
		r = wrap(repo)
	}
	f.svc = New(Options{
		Repo:      r,
		Publisher: f.pub,
		Now:       func() time.Time { return f.clock.Now() },
	})
	return f
}

func (f *fixture) user(t *testing.T, id, name string) *models.User {
	t.Helper()
	u, err := f.svc.Users.EnsureUser(context.Background(), id, name)
	require.NoError(t, err)
	return u
}

func (f *fixture) submit(t *testing.T, in SubmitReflectionInput) *SubmitReflectionResult {
	t.Helper()
	res, err := f.svc.Engagement.SubmitReflection(context.Background(), in)
	require.NoError(t, err)
	return res
}

func (f *fixture) group(t *testing.T, owner string, members ...string) *models.Group {
	t.Helper()
	g, err := f.svc.Groups.CreateGroup(context.Background(), CreateGroupInput{
		ActorID: owner,
		Name:    "Study Circle",
		Members: members,
	})
	require.NoError(t, err)
	f.pub.Reset()
	return g
}

func strPtr(s string) *string { return &s }

// failingSaves makes every SaveUser inside a transaction fail.
type failingSaves struct {
	repository.Repository
}

func (f failingSaves) Transaction(ctx context.Context, fn func(tx repository.Repository) error) error {
	return f.Repository.Transaction(ctx, func(tx repository.Repository) error {
		return fn(failingSaves{tx})
	})
}

func (failingSaves) SaveUser(context.Context, *models.User) error {
	return errDiskFull
}

var errDiskFull = errors.New("disk full")
