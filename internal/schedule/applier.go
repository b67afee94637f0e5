package schedule

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// Store is the slice of the persistence layer the applier needs. The full
// db.Store satisfies it.
type Store interface {
	ListDueScheduledDisplays(now time.Time) ([]model.ScheduledDisplay, error)
	ClaimScheduledDisplay(id int, expectedNext time.Time, now time.Time) (bool, error)
	ReleaseScheduledDisplayClaim(id int) error
	MarkScheduledDisplayExecuted(id int, executedAt time.Time, next *time.Time, deactivate bool) error
	ListScheduledImages(scheduledDisplayID int) ([]model.ScheduledImage, error)
	ApplyContentToDisplay(displayID int, contentData string, images []model.ScheduledImage) error
}

// Notifier is told about displays whose content just changed, so caches can
// be dropped and connected panels refreshed. Failures are the notifier's
// problem; the applier has already committed the execution.
type Notifier interface {
	DisplayUpdated(displayID int)
}

type Config struct {
	TickInterval time.Duration
}

// Applier is the worker that fires due schedules: it claims each due
// scheduled display, copies its content payload onto the target display,
// records the execution and advances the next occurrence.
type Applier struct {
	config   Config
	store    Store
	notifier Notifier
	clock    func() time.Time
}

func NewApplier(config Config, store Store, notifier Notifier) *Applier {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Minute
	}
	return &Applier{
		config:   config,
		store:    store,
		notifier: notifier,
		clock:    time.Now,
	}
}

// Run ticks until the context is cancelled. Tick errors are logged and the
// loop keeps going; a schedule that failed to apply stays due and is retried
// on the next tick.
func (a *Applier) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.config.TickInterval)
	defer ticker.Stop()

	log.Info().Dur("tick", a.config.TickInterval).Msg("schedule applier started")

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("schedule applier stopped")
			return ctx.Err()
		case <-ticker.C:
			a.tick()
		}
	}
}

func (a *Applier) tick() {
	now := a.clock()

	due, err := a.store.ListDueScheduledDisplays(now)
	if err != nil {
		log.Error().Err(err).Msg("applier: failed to list due schedules")
		return
	}

	for _, s := range due {
		if err := a.apply(s, now); err != nil {
			log.Error().Err(err).
				Int("schedule_id", s.ID).
				Int("display_id", s.TargetDisplayID).
				Msg("applier: failed to apply schedule")
		}
	}
}

// apply pushes one due schedule onto its target display. The claim is the
// serialization point: only the instance that wins the compare-and-swap on
// (id, next_execution) proceeds, so overlapping ticks or multiple applier
// processes never double-apply an occurrence.
func (a *Applier) apply(s model.ScheduledDisplay, now time.Time) error {
	if s.NextExecution == nil {
		return nil
	}

	claimed, err := a.store.ClaimScheduledDisplay(s.ID, *s.NextExecution, now)
	if err != nil {
		return err
	}
	if !claimed {
		// Another instance holds it, or the schedule changed underneath us.
		return nil
	}

	images, err := a.store.ListScheduledImages(s.ID)
	if err != nil {
		a.release(s.ID)
		return err
	}

	if err := a.store.ApplyContentToDisplay(s.TargetDisplayID, s.ContentData, images); err != nil {
		// The display write failed, so the execution must not be recorded.
		// Releasing the claim leaves the schedule due for the next tick.
		a.release(s.ID)
		return err
	}

	deactivate := s.ScheduleType == model.ScheduleOnce
	var next *time.Time
	if !deactivate {
		next = NextExecution(ParamsOf(s), now)
	}

	if err := a.store.MarkScheduledDisplayExecuted(s.ID, now, next, deactivate); err != nil {
		// The content is already on the display; a crash here means the
		// schedule fires again next tick. At-least-once, never silent skip.
		return err
	}

	log.Info().
		Int("schedule_id", s.ID).
		Int("display_id", s.TargetDisplayID).
		Str("type", s.ScheduleType).
		Msg("applied scheduled content to display")

	if a.notifier != nil {
		a.notifier.DisplayUpdated(s.TargetDisplayID)
	}
	return nil
}

func (a *Applier) release(id int) {
	if err := a.store.ReleaseScheduledDisplayClaim(id); err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("applier: failed to release claim")
	}
}
