package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

type appliedContent struct {
	displayID   int
	contentData string
	images      []model.ScheduledImage
}

type executedMark struct {
	id         int
	executedAt time.Time
	next       *time.Time
	deactivate bool
}

// fakeStore is an in-memory Store whose claim and write behavior the tests
// script per schedule ID.
type fakeStore struct {
	due    []model.ScheduledDisplay
	images map[int][]model.ScheduledImage

	refuseClaim map[int]bool
	applyErr    error

	claims   []int
	releases []int
	applied  []appliedContent
	executed []executedMark
}

func newFakeStore(due ...model.ScheduledDisplay) *fakeStore {
	return &fakeStore{
		due:         due,
		images:      map[int][]model.ScheduledImage{},
		refuseClaim: map[int]bool{},
	}
}

func (f *fakeStore) ListDueScheduledDisplays(now time.Time) ([]model.ScheduledDisplay, error) {
	return f.due, nil
}

func (f *fakeStore) ClaimScheduledDisplay(id int, expectedNext time.Time, now time.Time) (bool, error) {
	if f.refuseClaim[id] {
		return false, nil
	}
	f.claims = append(f.claims, id)
	return true, nil
}

func (f *fakeStore) ReleaseScheduledDisplayClaim(id int) error {
	f.releases = append(f.releases, id)
	return nil
}

func (f *fakeStore) MarkScheduledDisplayExecuted(id int, executedAt time.Time, next *time.Time, deactivate bool) error {
	f.executed = append(f.executed, executedMark{id, executedAt, next, deactivate})
	return nil
}

func (f *fakeStore) ListScheduledImages(scheduledDisplayID int) ([]model.ScheduledImage, error) {
	return f.images[scheduledDisplayID], nil
}

func (f *fakeStore) ApplyContentToDisplay(displayID int, contentData string, images []model.ScheduledImage) error {
	if f.applyErr != nil {
		return f.applyErr
	}
	f.applied = append(f.applied, appliedContent{displayID, contentData, images})
	return nil
}

type fakeNotifier struct {
	displayIDs []int
}

func (n *fakeNotifier) DisplayUpdated(displayID int) {
	n.displayIDs = append(n.displayIDs, displayID)
}

func dueSchedule(id, displayID int, scheduleType string, next time.Time) model.ScheduledDisplay {
	s := model.ScheduledDisplay{
		ID:              id,
		Name:            "listing rotation",
		TargetDisplayID: displayID,
		StartDate:       next,
		IsActive:        true,
		ScheduleType:    scheduleType,
		ContentData:     `{"address":"12 Harbour St","price":"$750,000"}`,
		NextExecution:   &next,
	}
	if scheduleType != model.ScheduleOnce {
		s.ScheduleTime = strPtr("09:00")
	}
	return s
}

func testApplier(store Store, notifier Notifier, now time.Time) *Applier {
	a := NewApplier(Config{}, store, notifier)
	a.clock = func() time.Time { return now }
	return a
}

func TestApplier_OnceScheduleFiresAndDeactivates(t *testing.T) {
	now := at(baseDay, 9, 5)
	store := newFakeStore(dueSchedule(1, 3, model.ScheduleOnce, at(baseDay, 9, 0)))
	store.images[1] = []model.ScheduledImage{
		{ID: 10, ScheduledDisplayID: 1, ImageType: model.ImageTypeMain, FileName: "front.jpg", FilePath: "/uploads/1/front.jpg"},
	}
	notifier := &fakeNotifier{}

	testApplier(store, notifier, now).tick()

	require.Len(t, store.applied, 1)
	assert.Equal(t, 3, store.applied[0].displayID)
	assert.Equal(t, store.due[0].ContentData, store.applied[0].contentData)
	assert.Len(t, store.applied[0].images, 1)

	require.Len(t, store.executed, 1)
	mark := store.executed[0]
	assert.Equal(t, 1, mark.id)
	assert.True(t, mark.deactivate)
	assert.Nil(t, mark.next)
	assert.True(t, mark.executedAt.Equal(now))

	assert.Equal(t, []int{3}, notifier.displayIDs)
	assert.Empty(t, store.releases)
}

func TestApplier_RepeatingScheduleAdvances(t *testing.T) {
	now := at(baseDay, 9, 5)
	store := newFakeStore(dueSchedule(2, 4, model.ScheduleDaily, at(baseDay, 9, 0)))

	testApplier(store, &fakeNotifier{}, now).tick()

	require.Len(t, store.executed, 1)
	mark := store.executed[0]
	assert.False(t, mark.deactivate)
	require.NotNil(t, mark.next)
	// 09:00 already passed today, so the next occurrence is tomorrow.
	assert.True(t, mark.next.Equal(at(baseDay, 9, 0).AddDate(0, 0, 1)))
}

// A daily schedule that has been alive for days must advance to tomorrow
// when it fires, not to a stale date that would leave it due again on the
// next tick.
func TestApplier_OldDailyScheduleAdvancesPastNow(t *testing.T) {
	now := at(baseDay.AddDate(0, 0, 9), 9, 0).Add(30 * time.Second)
	s := dueSchedule(2, 4, model.ScheduleDaily, at(baseDay.AddDate(0, 0, 9), 9, 0))
	s.StartDate = baseDay // created nine days ago
	store := newFakeStore(s)

	testApplier(store, &fakeNotifier{}, now).tick()

	require.Len(t, store.executed, 1)
	mark := store.executed[0]
	require.NotNil(t, mark.next)
	assert.True(t, mark.next.After(now), "next %v must be strictly after now %v", mark.next, now)
	assert.True(t, mark.next.Equal(at(baseDay.AddDate(0, 0, 10), 9, 0)), "got %v", mark.next)
}

func TestApplier_LostClaimSkipsSchedule(t *testing.T) {
	now := at(baseDay, 9, 5)
	store := newFakeStore(
		dueSchedule(1, 3, model.ScheduleOnce, at(baseDay, 9, 0)),
		dueSchedule(2, 4, model.ScheduleOnce, at(baseDay, 9, 0)),
	)
	store.refuseClaim[1] = true
	notifier := &fakeNotifier{}

	testApplier(store, notifier, now).tick()

	require.Len(t, store.applied, 1)
	assert.Equal(t, 4, store.applied[0].displayID)
	require.Len(t, store.executed, 1)
	assert.Equal(t, 2, store.executed[0].id)
	assert.Equal(t, []int{4}, notifier.displayIDs)
}

func TestApplier_FailedDisplayWriteStaysDue(t *testing.T) {
	now := at(baseDay, 9, 5)
	store := newFakeStore(dueSchedule(1, 3, model.ScheduleOnce, at(baseDay, 9, 0)))
	store.applyErr = errors.New("display write failed")
	notifier := &fakeNotifier{}

	testApplier(store, notifier, now).tick()

	assert.Empty(t, store.applied)
	assert.Empty(t, store.executed, "a failed write must not count as an execution")
	assert.Equal(t, []int{1}, store.releases, "the claim must be released so the next tick retries")
	assert.Empty(t, notifier.displayIDs)
}

func TestApplier_NilNextExecutionIgnored(t *testing.T) {
	s := dueSchedule(1, 3, model.ScheduleDaily, at(baseDay, 9, 0))
	s.NextExecution = nil
	store := newFakeStore(s)

	testApplier(store, &fakeNotifier{}, at(baseDay, 9, 5)).tick()

	assert.Empty(t, store.claims)
	assert.Empty(t, store.applied)
}

func TestApplier_DefaultTickInterval(t *testing.T) {
	a := NewApplier(Config{}, newFakeStore(), nil)
	assert.Equal(t, time.Minute, a.config.TickInterval)
}
