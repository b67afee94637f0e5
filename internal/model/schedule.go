package model

import "time"

// Recurrence types for a scheduled display.
const (
	ScheduleOnce    = "once"
	ScheduleDaily   = "daily"
	ScheduleWeekly  = "weekly"
	ScheduleMonthly = "monthly"
)

// Image slots a scheduled display can carry.
const (
	ImageTypeMain        = "mainImage"
	ImageTypeImage1      = "image1"
	ImageTypeImage2      = "image2"
	ImageTypeImage3      = "image3"
	ImageTypeQRCode      = "qrCode"
	ImageTypeCompanyLogo = "companyLogo"
)

// ScheduledDisplay is a rule describing when and what content to push to a display.
// ContentData is an opaque JSON payload copied verbatim onto the target display
// when the schedule fires; its shape is owned by the display layer.
type ScheduledDisplay struct {
	ID              int        `db:"id"                json:"id"`
	Name            string     `db:"name"              json:"name"`
	Description     *string    `db:"description"       json:"description"`
	TargetDisplayID int        `db:"target_display_id" json:"target_display_id"`
	StartDate       time.Time  `db:"start_date"        json:"start_date"`
	EndDate         *time.Time `db:"end_date"          json:"end_date"`
	IsActive        bool       `db:"is_active"         json:"is_active"`
	ScheduleType    string     `db:"schedule_type"     json:"schedule_type"`
	ScheduleTime    *string    `db:"schedule_time"     json:"schedule_time"`
	ScheduleDays    *string    `db:"schedule_days"     json:"schedule_days"`
	ScheduleDate    *int       `db:"schedule_date"     json:"schedule_date"`
	ContentData     string     `db:"content_data"      json:"content_data"`
	LastExecuted    *time.Time `db:"last_executed"     json:"last_executed"`
	ExecutionCount  int        `db:"execution_count"   json:"execution_count"`
	NextExecution   *time.Time `db:"next_execution"    json:"next_execution"`
	ClaimedAt       *time.Time `db:"claimed_at"        json:"-"`
	CreatedAt       time.Time  `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at"        json:"updated_at"`
}

// ScheduledImage is an uploaded image attached to a scheduled display for one
// image slot. At most one row exists per (scheduled_display_id, image_type).
type ScheduledImage struct {
	ID                 int       `db:"id"                   json:"id"`
	ScheduledDisplayID int       `db:"scheduled_display_id" json:"scheduled_display_id"`
	ImageType          string    `db:"image_type"           json:"image_type"`
	FileName           string    `db:"file_name"            json:"file_name"`
	FilePath           string    `db:"file_path"            json:"file_path"`
	FileSize           *int64    `db:"file_size"            json:"file_size"`
	MimeType           *string   `db:"mime_type"            json:"mime_type"`
	CreatedAt          time.Time `db:"created_at"           json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at"           json:"updated_at"`
}
