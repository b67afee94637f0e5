package packets

import (
	"time"

	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

type ScheduledImageResponse struct {
	ID        int     `json:"id"`
	ImageType string  `json:"image_type"`
	FileName  string  `json:"file_name"`
	FilePath  string  `json:"file_path"`
	FileSize  *int64  `json:"file_size"`
	MimeType  *string `json:"mime_type"`
}

type ScheduledDisplayResponse struct {
	ID              int                      `json:"id"`
	Name            string                   `json:"name"`
	Description     *string                  `json:"description"`
	TargetDisplayID int                      `json:"target_display_id"`
	StartDate       string                   `json:"start_date"`
	EndDate         *string                  `json:"end_date"`
	IsActive        bool                     `json:"is_active"`
	ScheduleType    string                   `json:"schedule_type"`
	ScheduleTime    *string                  `json:"schedule_time"`
	ScheduleDays    *string                  `json:"schedule_days"`
	ScheduleDate    *int                     `json:"schedule_date"`
	ContentData     string                   `json:"content_data"`
	LastExecuted    *string                  `json:"last_executed"`
	ExecutionCount  int                      `json:"execution_count"`
	NextExecution   *string                  `json:"next_execution"`
	CreatedAt       string                   `json:"created_at"`
	UpdatedAt       string                   `json:"updated_at"`
	Images          []ScheduledImageResponse `json:"images"`
}

type ExportDisplaysResponse struct {
	ExportedAt string          `json:"exported_at"`
	Version    string          `json:"version"`
	Displays   []model.Display `json:"displays"`
}

func NewScheduledImageResponse(img model.ScheduledImage) ScheduledImageResponse {
	return ScheduledImageResponse{
		ID:        img.ID,
		ImageType: img.ImageType,
		FileName:  img.FileName,
		FilePath:  img.FilePath,
		FileSize:  img.FileSize,
		MimeType:  img.MimeType,
	}
}

func NewScheduledDisplayResponse(s model.ScheduledDisplay, images []model.ScheduledImage) ScheduledDisplayResponse {
	out := ScheduledDisplayResponse{
		ID:              s.ID,
		Name:            s.Name,
		Description:     s.Description,
		TargetDisplayID: s.TargetDisplayID,
		StartDate:       s.StartDate.Format(time.RFC3339),
		EndDate:         formatTimePtr(s.EndDate),
		IsActive:        s.IsActive,
		ScheduleType:    s.ScheduleType,
		ScheduleTime:    s.ScheduleTime,
		ScheduleDays:    s.ScheduleDays,
		ScheduleDate:    s.ScheduleDate,
		ContentData:     s.ContentData,
		LastExecuted:    formatTimePtr(s.LastExecuted),
		ExecutionCount:  s.ExecutionCount,
		NextExecution:   formatTimePtr(s.NextExecution),
		CreatedAt:       s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.Format(time.RFC3339),
		Images:          make([]ScheduledImageResponse, 0, len(images)),
	}
	for _, img := range images {
		out.Images = append(out.Images, NewScheduledImageResponse(img))
	}
	return out
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
