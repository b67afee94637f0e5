package packets

import (
	"time"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

type CreateScheduledDisplayRequest struct {
	Name            string     `json:"name" binding:"required"`
	Description     *string    `json:"description"`
	TargetDisplayID int        `json:"target_display_id" binding:"required"`
	StartDate       time.Time  `json:"start_date" binding:"required"`
	EndDate         *time.Time `json:"end_date"`
	ScheduleType    string     `json:"schedule_type" binding:"required,oneof=once daily weekly monthly"`
	ScheduleTime    *string    `json:"schedule_time"`
	ScheduleDays    *string    `json:"schedule_days"`
	ScheduleDate    *int       `json:"schedule_date"`
	ContentData     string     `json:"content_data" binding:"required"`
	IsActive        *bool      `json:"is_active"`
}

// UpdateScheduledDisplayRequest carries partial changes; absent fields keep
// their stored value.
type UpdateScheduledDisplayRequest struct {
	Name            *string    `json:"name"`
	Description     *string    `json:"description"`
	TargetDisplayID *int       `json:"target_display_id"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	ScheduleType    *string    `json:"schedule_type"`
	ScheduleTime    *string    `json:"schedule_time"`
	ScheduleDays    *string    `json:"schedule_days"`
	ScheduleDate    *int       `json:"schedule_date"`
	ContentData     *string    `json:"content_data"`
	IsActive        *bool      `json:"is_active"`
}

type UpdateDisplayRequest struct {
	Address            *string `json:"address"`
	Location           *string `json:"location"`
	Price              *string `json:"price"`
	PriceType          *string `json:"price_type"`
	Bedrooms           *int    `json:"bedrooms"`
	Bathrooms          *int    `json:"bathrooms"`
	Garage             *int    `json:"garage"`
	PropertyType       *string `json:"property_type"`
	Description        *string `json:"description"`
	Features           *string `json:"features"`
	ContactNumber      *string `json:"contact_number"`
	Email              *string `json:"email"`
	SidebarColor       *string `json:"sidebar_color"`
	CarouselEnabled    *bool   `json:"carousel_enabled"`
	CarouselDuration   *int    `json:"carousel_duration"`
	CarouselTransition *string `json:"carousel_transition"`
	DeviceID           *string `json:"device_id"`
}

type GenerateQRRequest struct {
	URL string `json:"url" binding:"required,url"`
}

type ImportDisplaysRequest struct {
	Version  string          `json:"version"`
	Displays []model.Display `json:"displays" binding:"required"`
}
