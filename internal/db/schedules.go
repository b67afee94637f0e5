package db

import (
	"database/sql"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

const scheduledDisplayColumns = `
	id, name, description, target_display_id, start_date, end_date, is_active,
	schedule_type, schedule_time, schedule_days, schedule_date, content_data,
	last_executed, execution_count, next_execution, claimed_at,
	created_at, updated_at`

const scheduledImageColumns = `
	id, scheduled_display_id, image_type, file_name, file_path, file_size,
	mime_type, created_at, updated_at`

func (p *pgStore) CreateScheduledDisplay(s model.ScheduledDisplay) (model.ScheduledDisplay, error) {
	var out model.ScheduledDisplay
	const q = `
	INSERT INTO scheduled_displays
	  (name, description, target_display_id, start_date, end_date, is_active,
	   schedule_type, schedule_time, schedule_days, schedule_date, content_data,
	   execution_count, next_execution, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,0,$12,now(),now())
	RETURNING ` + scheduledDisplayColumns + `;`
	err := p.db.Get(&out, q,
		s.Name, s.Description, s.TargetDisplayID, s.StartDate, s.EndDate,
		s.IsActive, s.ScheduleType, s.ScheduleTime, s.ScheduleDays,
		s.ScheduleDate, s.ContentData, s.NextExecution)
	if err != nil {
		log.Error().Err(err).Str("name", s.Name).Msg("CreateScheduledDisplay failed")
		return model.ScheduledDisplay{}, err
	}
	return out, nil
}

func (p *pgStore) GetScheduledDisplay(id int) (model.ScheduledDisplay, error) {
	var s model.ScheduledDisplay
	err := p.db.Get(&s, `SELECT `+scheduledDisplayColumns+` FROM scheduled_displays WHERE id = $1;`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledDisplay{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("GetScheduledDisplay failed")
	}
	return s, err
}

// ListScheduledDisplays returns schedules newest-first, optionally filtered
// by active state.
func (p *pgStore) ListScheduledDisplays(activeOnly *bool) ([]model.ScheduledDisplay, error) {
	var out []model.ScheduledDisplay
	const q = `
	SELECT ` + scheduledDisplayColumns + `
	  FROM scheduled_displays
	 WHERE $1::boolean IS NULL OR is_active = $1
	 ORDER BY created_at DESC;`
	if err := p.db.Select(&out, q, activeOnly); err != nil {
		log.Error().Err(err).Msg("ListScheduledDisplays failed")
		return nil, err
	}
	return out, nil
}

// ScheduledDisplayUpdate holds optional field changes for a scheduled
// display; nil fields keep their stored value. When the caller changed a
// recurrence-affecting field it sets RecomputeNext and supplies the freshly
// computed NextExecution (which may be nil for uncomputable parameters).
type ScheduledDisplayUpdate struct {
	Name            *string
	Description     *string
	TargetDisplayID *int
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        *bool
	ScheduleType    *string
	ScheduleTime    *string
	ScheduleDays    *string
	ScheduleDate    *int
	ContentData     *string

	RecomputeNext bool
	NextExecution *time.Time
}

func (p *pgStore) UpdateScheduledDisplay(id int, update ScheduledDisplayUpdate) (model.ScheduledDisplay, error) {
	var out model.ScheduledDisplay
	const q = `
	UPDATE scheduled_displays
	   SET name              = COALESCE($2,  name),
	       description       = COALESCE($3,  description),
	       target_display_id = COALESCE($4,  target_display_id),
	       start_date        = COALESCE($5,  start_date),
	       end_date          = COALESCE($6,  end_date),
	       is_active         = COALESCE($7,  is_active),
	       schedule_type     = COALESCE($8,  schedule_type),
	       schedule_time     = COALESCE($9,  schedule_time),
	       schedule_days     = COALESCE($10, schedule_days),
	       schedule_date     = COALESCE($11, schedule_date),
	       content_data      = COALESCE($12, content_data),
	       next_execution    = CASE WHEN $13 THEN $14 ELSE next_execution END,
	       updated_at        = now()
	 WHERE id = $1
	 RETURNING ` + scheduledDisplayColumns + `;`
	err := p.db.Get(&out, q, id,
		update.Name, update.Description, update.TargetDisplayID,
		update.StartDate, update.EndDate, update.IsActive,
		update.ScheduleType, update.ScheduleTime, update.ScheduleDays,
		update.ScheduleDate, update.ContentData,
		update.RecomputeNext, update.NextExecution)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ScheduledDisplay{}, ErrNotFound
	}
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("UpdateScheduledDisplay failed")
		return model.ScheduledDisplay{}, err
	}
	return out, nil
}

// SetScheduledDisplayActive toggles a schedule without touching its
// next_execution.
func (p *pgStore) SetScheduledDisplayActive(id int, active bool) error {
	res, err := p.db.Exec(`
	UPDATE scheduled_displays SET is_active = $2, updated_at = now() WHERE id = $1;`, id, active)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("SetScheduledDisplayActive failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteScheduledDisplay removes a schedule and its images as one unit.
// Images go first inside the transaction so a parent row can never outlive
// them, and a failed parent delete rolls the image delete back.
func (p *pgStore) DeleteScheduledDisplay(id int) error {
	tx, err := p.db.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM scheduled_images WHERE scheduled_display_id = $1;`, id); err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteScheduledDisplay: images failed")
		return err
	}
	res, err := tx.Exec(`DELETE FROM scheduled_displays WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("DeleteScheduledDisplay failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// UpsertScheduledImage inserts or replaces the image for the schedule's slot;
// the (scheduled_display_id, image_type) pair is unique and the latest save
// wins.
func (p *pgStore) UpsertScheduledImage(img model.ScheduledImage) (model.ScheduledImage, error) {
	var out model.ScheduledImage
	const q = `
	INSERT INTO scheduled_images
	  (scheduled_display_id, image_type, file_name, file_path, file_size, mime_type, created_at, updated_at)
	VALUES ($1,$2,$3,$4,$5,$6,now(),now())
	ON CONFLICT (scheduled_display_id, image_type) DO UPDATE
	   SET file_name  = EXCLUDED.file_name,
	       file_path  = EXCLUDED.file_path,
	       file_size  = EXCLUDED.file_size,
	       mime_type  = EXCLUDED.mime_type,
	       updated_at = now()
	RETURNING ` + scheduledImageColumns + `;`
	err := p.db.Get(&out, q,
		img.ScheduledDisplayID, img.ImageType, img.FileName, img.FilePath,
		img.FileSize, img.MimeType)
	if err != nil {
		log.Error().Err(err).
			Int("schedule_id", img.ScheduledDisplayID).
			Str("image_type", img.ImageType).
			Msg("UpsertScheduledImage failed")
		return model.ScheduledImage{}, err
	}
	return out, nil
}

// DeleteScheduledImage removes the row if present; deleting a missing slot is
// a no-op, not an error.
func (p *pgStore) DeleteScheduledImage(scheduledDisplayID int, imageType string) error {
	_, err := p.db.Exec(`
	DELETE FROM scheduled_images WHERE scheduled_display_id = $1 AND image_type = $2;`,
		scheduledDisplayID, imageType)
	if err != nil {
		log.Error().Err(err).
			Int("schedule_id", scheduledDisplayID).
			Str("image_type", imageType).
			Msg("DeleteScheduledImage failed")
	}
	return err
}

func (p *pgStore) ListScheduledImages(scheduledDisplayID int) ([]model.ScheduledImage, error) {
	var out []model.ScheduledImage
	const q = `
	SELECT ` + scheduledImageColumns + `
	  FROM scheduled_images
	 WHERE scheduled_display_id = $1
	 ORDER BY image_type;`
	if err := p.db.Select(&out, q, scheduledDisplayID); err != nil {
		log.Error().Err(err).Int("schedule_id", scheduledDisplayID).Msg("ListScheduledImages failed")
		return nil, err
	}
	return out, nil
}

// ListDueScheduledDisplays returns active schedules whose next execution has
// arrived and whose end date has not passed, oldest occurrence first.
func (p *pgStore) ListDueScheduledDisplays(now time.Time) ([]model.ScheduledDisplay, error) {
	var out []model.ScheduledDisplay
	const q = `
	SELECT ` + scheduledDisplayColumns + `
	  FROM scheduled_displays
	 WHERE is_active = true
	   AND next_execution IS NOT NULL
	   AND next_execution <= $1
	   AND (end_date IS NULL OR end_date >= $1)
	 ORDER BY next_execution;`
	if err := p.db.Select(&out, q, now); err != nil {
		log.Error().Err(err).Msg("ListDueScheduledDisplays failed")
		return nil, err
	}
	return out, nil
}

// staleClaimAfter is how long a claim survives a crashed applier before
// another instance may take the schedule over.
const staleClaimAfter = 5 * time.Minute

// ClaimScheduledDisplay is the applier's serialization point: a
// compare-and-swap on (id, next_execution) that marks the row as being
// processed. It reports false when another instance already holds the claim
// or the schedule changed since it was read.
func (p *pgStore) ClaimScheduledDisplay(id int, expectedNext time.Time, now time.Time) (bool, error) {
	const q = `
	UPDATE scheduled_displays
	   SET claimed_at = $3
	 WHERE id = $1
	   AND is_active = true
	   AND next_execution = $2
	   AND (claimed_at IS NULL OR claimed_at < $4);`
	res, err := p.db.Exec(q, id, expectedNext, now, now.Add(-staleClaimAfter))
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("ClaimScheduledDisplay failed")
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// ReleaseScheduledDisplayClaim puts a claimed schedule back in the Due state
// after a failed display write.
func (p *pgStore) ReleaseScheduledDisplayClaim(id int) error {
	_, err := p.db.Exec(`UPDATE scheduled_displays SET claimed_at = NULL WHERE id = $1;`, id)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("ReleaseScheduledDisplayClaim failed")
	}
	return err
}

// MarkScheduledDisplayExecuted records a successful firing: bump the counter,
// stamp last_executed, advance next_execution (nil for a schedule that can no
// longer compute one) and deactivate once-type schedules.
func (p *pgStore) MarkScheduledDisplayExecuted(id int, executedAt time.Time, next *time.Time, deactivate bool) error {
	const q = `
	UPDATE scheduled_displays
	   SET last_executed   = $2,
	       execution_count = execution_count + 1,
	       next_execution  = $3,
	       is_active       = CASE WHEN $4 THEN false ELSE is_active END,
	       claimed_at      = NULL,
	       updated_at      = now()
	 WHERE id = $1;`
	res, err := p.db.Exec(q, id, executedAt, next, deactivate)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("MarkScheduledDisplayExecuted failed")
		return err
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNotFound
	}
	return nil
}
