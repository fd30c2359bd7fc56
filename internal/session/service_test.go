package session_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/vocabdrill/internal/database"
	"github.com/example/vocabdrill/internal/session"
	"github.com/example/vocabdrill/internal/spaced_repetition"
	"github.com/example/vocabdrill/pkg/models"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newStore(t *testing.T) *database.Store {
	t.Helper()
	s, err := database.Open(context.Background(), database.Config{
		Path:   filepath.Join(t.TempDir(), "reviews.db"),
		Logger: quietLogger(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newService(t *testing.T, store session.Store, clock *fakeClock) *session.Service {
	t.Helper()
	return session.NewService(store, session.WithClock(clock.Now), session.WithLogger(quietLogger()))
}

func TestSubmitGradeScenarios(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := &fakeClock{now: t0}
	svc := newService(t, store, clock)

	fresh := svc.InitOrFetchItem(ctx, "Ambiguous")
	assert.Equal(t, models.NewReviewItem("Ambiguous", t0), fresh)

	// A
	a, err := svc.SubmitGrade(ctx, "Ambiguous", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, a.Interval)
	assert.Equal(t, 1, a.Repetition)
	assert.InDelta(t, 2.5, a.EasinessFactor, 1e-9)
	assert.Equal(t, t0.UnixMilli()+models.DayMillis, a.DueDate)

	// B
	b, err := svc.SubmitGrade(ctx, "Ambiguous", 5)
	require.NoError(t, err)
	assert.Equal(t, 6, b.Interval)
	assert.Equal(t, 2, b.Repetition)
	assert.InDelta(t, 2.6, b.EasinessFactor, 1e-9)
	assert.Equal(t, t0.UnixMilli()+6*models.DayMillis, b.DueDate)

	// C
	c, err := svc.SubmitGrade(ctx, "Ambiguous", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Interval)
	assert.Equal(t, 0, c.Repetition)
	assert.InDelta(t, 2.28, c.EasinessFactor, 1e-9)

	stored, err := store.Get(ctx, "Ambiguous")
	require.NoError(t, err)
	assert.Equal(t, c, *stored)

	// D
	_, err = svc.SubmitGrade(ctx, "Ambiguous", 7)
	assert.True(t, errors.Is(err, spaced_repetition.ErrInvalidGrade), "got %v", err)
	unchanged, err := store.Get(ctx, "Ambiguous")
	require.NoError(t, err)
	assert.Equal(t, c, *unchanged)
}

func TestInvalidGradeCreatesNothing(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := newService(t, store, &fakeClock{now: t0})

	_, err := svc.SubmitGrade(ctx, "Velocity", -1)
	assert.True(t, errors.Is(err, spaced_repetition.ErrInvalidGrade))

	got, err := store.Get(ctx, "Velocity")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestInitOrFetchItemKeepsExisting(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := &fakeClock{now: t0}
	svc := newService(t, store, clock)

	graded, err := svc.SubmitGrade(ctx, "Kinetic", 5)
	require.NoError(t, err)

	clock.now = t0.Add(48 * time.Hour)
	assert.Equal(t, graded, svc.InitOrFetchItem(ctx, "Kinetic"))

	created := svc.InitOrFetchItem(ctx, "Molecule")
	assert.Equal(t, models.NewReviewItem("Molecule", clock.now), created)
	assert.Len(t, svc.AllItems(ctx), 2)
}

func TestQueryDueItems(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := newService(t, store, &fakeClock{now: t0})

	for id, due := range map[string]time.Time{
		"early": t0.Add(-time.Millisecond),
		"exact": t0,
		"late":  t0.Add(time.Millisecond),
	} {
		require.NoError(t, store.Put(ctx, models.NewReviewItem(id, due)))
	}

	due := svc.QueryDueItems(ctx, t0)
	require.Len(t, due, 2)
	assert.Equal(t, "early", due[0].ID)
	assert.Equal(t, "exact", due[1].ID)
}

func TestReadAfterWrite(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := &fakeClock{now: t0}
	svc := newService(t, store, clock)

	svc.InitOrFetchItem(ctx, "Hypothesis")
	assert.Len(t, svc.QueryDueItems(ctx, t0), 1)

	_, err := svc.SubmitGrade(ctx, "Hypothesis", 5)
	require.NoError(t, err)
	assert.Empty(t, svc.QueryDueItems(ctx, t0))
	assert.Len(t, svc.QueryDueItems(ctx, t0.Add(24*time.Hour)), 1)
}

func TestSettingsPassthrough(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, newStore(t), &fakeClock{now: t0})

	_, ok := svc.GetSetting(ctx, "isPro")
	assert.False(t, ok)

	svc.PutSetting(ctx, "isPro", true)
	value, ok := svc.GetSetting(ctx, "isPro")
	assert.True(t, ok)
	assert.Equal(t, true, value)
	assert.True(t, svc.Persistent())
}

func TestWithoutStore(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, nil, &fakeClock{now: t0})

	assert.False(t, svc.Persistent())
	assert.Equal(t, models.NewReviewItem("Eloquent", t0), svc.InitOrFetchItem(ctx, "Eloquent"))

	next, err := svc.SubmitGrade(ctx, "Eloquent", 4)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Interval)

	_, err = svc.SubmitGrade(ctx, "Eloquent", 9)
	assert.True(t, errors.Is(err, spaced_repetition.ErrInvalidGrade))

	assert.Empty(t, svc.QueryDueItems(ctx, t0.Add(time.Hour)))
	assert.NotNil(t, svc.QueryDueItems(ctx, t0))
	assert.Empty(t, svc.AllItems(ctx))

	svc.PutSetting(ctx, "sound", true)
	_, ok := svc.GetSetting(ctx, "sound")
	assert.False(t, ok)

	stats := svc.Stats(ctx, t0)
	assert.Zero(t, stats.Total)
	assert.Equal(t, models.DefaultEasinessFactor, stats.AverageEasiness)
}

// brokenStore fails every call, as a backend that went away would
type brokenStore struct{ puts int }

var errBackend = errors.New("disk I/O error")

func (b *brokenStore) Put(context.Context, models.ReviewItem) error {
	b.puts++
	return errBackend
}
func (b *brokenStore) Get(context.Context, string) (*models.ReviewItem, error) {
	return nil, errBackend
}
func (b *brokenStore) GetAllDue(context.Context, time.Time) ([]models.ReviewItem, error) {
	return nil, errBackend
}
func (b *brokenStore) GetAll(context.Context) ([]models.ReviewItem, error) {
	return nil, errBackend
}
func (b *brokenStore) GetSetting(context.Context, string) (interface{}, bool, error) {
	return nil, false, errBackend
}
func (b *brokenStore) PutSetting(context.Context, string, interface{}) error {
	return errBackend
}

// rejectingStore reads from a real store but refuses writes
type rejectingStore struct {
	*database.Store
}

func (r rejectingStore) Put(context.Context, models.ReviewItem) error {
	return errBackend
}

func TestEnsureItemStates(t *testing.T) {
	ctx := context.Background()
	clock := &fakeClock{now: t0}

	store := newStore(t)
	svc := newService(t, store, clock)
	_, state := svc.EnsureItem(ctx, "Vivid")
	assert.Equal(t, session.ItemCreated, state)
	_, state = svc.EnsureItem(ctx, "Vivid")
	assert.Equal(t, session.ItemExisting, state)

	// the read succeeds, the write does not
	rejecting := newService(t, rejectingStore{store}, clock)
	item, state := rejecting.EnsureItem(ctx, "Obscure")
	assert.Equal(t, session.ItemUnsaved, state)
	assert.Equal(t, models.NewReviewItem("Obscure", t0), item)
	stored, err := store.Get(ctx, "Obscure")
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, state = newService(t, &brokenStore{}, clock).EnsureItem(ctx, "Obscure")
	assert.Equal(t, session.ItemUnsaved, state)

	_, state = newService(t, nil, clock).EnsureItem(ctx, "Obscure")
	assert.Equal(t, session.ItemUnsaved, state)

	assert.Equal(t, "exists", session.ItemExisting.String())
	assert.Equal(t, "created", session.ItemCreated.String())
	assert.Equal(t, "not saved", session.ItemUnsaved.String())
}

func TestStoreFailuresDegrade(t *testing.T) {
	ctx := context.Background()
	broken := &brokenStore{}
	svc := newService(t, broken, &fakeClock{now: t0})

	item := svc.InitOrFetchItem(ctx, "Relieve")
	assert.Equal(t, models.NewReviewItem("Relieve", t0), item)
	assert.Zero(t, broken.puts, "an unreadable item must not be overwritten on fetch")

	next, err := svc.SubmitGrade(ctx, "Relieve", 3)
	require.NoError(t, err)
	assert.Equal(t, 1, next.Repetition)
	assert.Equal(t, 1, broken.puts)

	assert.Empty(t, svc.QueryDueItems(ctx, t0))
	assert.Empty(t, svc.AllItems(ctx))
	svc.PutSetting(ctx, "theme", "dark")
	_, ok := svc.GetSetting(ctx, "theme")
	assert.False(t, ok)
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	svc := newService(t, store, &fakeClock{now: t0})

	require.NoError(t, store.Put(ctx, models.ReviewItem{ID: "a", EasinessFactor: 2.0, DueDate: t0.UnixMilli()}))
	require.NoError(t, store.Put(ctx, models.ReviewItem{ID: "b", Interval: 40, Repetition: 6, EasinessFactor: 3.0,
		DueDate: t0.Add(40 * 24 * time.Hour).UnixMilli()}))
	require.NoError(t, store.Put(ctx, models.ReviewItem{ID: "c", Interval: 6, Repetition: 2, EasinessFactor: 2.5,
		DueDate: t0.Add(6 * 24 * time.Hour).UnixMilli()}))

	stats := svc.Stats(ctx, t0)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Due)
	assert.Equal(t, 1, stats.Mastered)
	assert.InDelta(t, 2.5, stats.AverageEasiness, 1e-9)
	require.NotNil(t, stats.NextDue)
	assert.True(t, stats.NextDue.Equal(t0.Add(6*24*time.Hour)))
}

func TestOnPassAlgorithmOption(t *testing.T) {
	ctx := context.Background()
	algo := spaced_repetition.NewSM2()
	algo.EFUpdate = spaced_repetition.EFUpdateOnPass
	svc := session.NewService(nil, session.WithAlgorithm(algo), session.WithLogger(quietLogger()))

	failed, err := svc.SubmitGrade(ctx, "Pragmatic", 0)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultEasinessFactor, failed.EasinessFactor)
	assert.Same(t, algo, svc.Algorithm())
}
