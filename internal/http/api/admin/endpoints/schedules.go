package endpoints

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api/admin/packets"
	"github.com/mihalykrich/real-estate-display-system/internal/model"
	"github.com/mihalykrich/real-estate-display-system/internal/schedule"
	"github.com/mihalykrich/real-estate-display-system/internal/storage"
)

var validImageTypes = map[string]bool{
	model.ImageTypeMain:        true,
	model.ImageTypeImage1:      true,
	model.ImageTypeImage2:      true,
	model.ImageTypeImage3:      true,
	model.ImageTypeQRCode:      true,
	model.ImageTypeCompanyLogo: true,
}

type ScheduleController struct {
	store   db.Store
	storage storage.Storage
	clock   func() time.Time
}

func NewScheduleController(store db.Store, storageSystem storage.Storage) *ScheduleController {
	return &ScheduleController{store: store, storage: storageSystem, clock: time.Now}
}

func ScheduleModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewScheduleController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/schedules", ctl.listSchedules)
		c.POST("/schedules", ctl.createSchedule)
		c.GET("/schedules/:id", ctl.getSchedule)
		c.PATCH("/schedules/:id", ctl.updateSchedule)
		c.DELETE("/schedules/:id", ctl.deleteSchedule)
		c.POST("/schedules/:id/activate", ctl.activateSchedule)
		c.POST("/schedules/:id/deactivate", ctl.deactivateSchedule)

		// image slots
		c.POST("/schedules/:id/images", ctl.uploadScheduleImage)
		c.DELETE("/schedules/:id/images/:image_type", ctl.deleteScheduleImage)
	})
}

// GET /api/admin/schedules?active=true
func (s *ScheduleController) listSchedules(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var activeOnly *bool
	if raw, present := ctx.GetQuery("active"); present {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: "active must be true or false"}
		}
		activeOnly = &active
	}

	list, err := s.store.ListScheduledDisplays(activeOnly)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedules"}
	}

	response := make([]packets.ScheduledDisplayResponse, 0, len(list))
	for _, it := range list {
		images, err := s.store.ListScheduledImages(it.ID)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedule images"}
		}
		response = append(response, packets.NewScheduledDisplayResponse(it, images))
	}
	return response, nil
}

// POST /api/admin/schedules
func (s *ScheduleController) createSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.CreateScheduledDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if _, err := s.store.GetDisplayByID(request.TargetDisplayID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "target display not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not look up target display"}
	}

	params, err := schedule.NormalizeParams(schedule.Params{
		Type:         request.ScheduleType,
		StartDate:    request.StartDate,
		ScheduleTime: request.ScheduleTime,
		ScheduleDays: request.ScheduleDays,
		ScheduleDate: request.ScheduleDate,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	isActive := true
	if request.IsActive != nil {
		isActive = *request.IsActive
	}

	created, storeErr := s.store.CreateScheduledDisplay(model.ScheduledDisplay{
		Name:            request.Name,
		Description:     request.Description,
		TargetDisplayID: request.TargetDisplayID,
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		IsActive:        isActive,
		ScheduleType:    params.Type,
		ScheduleTime:    params.ScheduleTime,
		ScheduleDays:    params.ScheduleDays,
		ScheduleDate:    params.ScheduleDate,
		ContentData:     request.ContentData,
		NextExecution:   schedule.NextExecution(params, s.clock()),
	})
	if storeErr != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not create schedule"}
	}

	return packets.NewScheduledDisplayResponse(created, nil), nil
}

// GET /api/admin/schedules/:id
func (s *ScheduleController) getSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	sd, err := s.store.GetScheduledDisplay(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch schedule"}
	}

	images, err := s.store.ListScheduledImages(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedule images"}
	}
	return packets.NewScheduledDisplayResponse(sd, images), nil
}

// PATCH /api/admin/schedules/:id
//
// Any change to a recurrence-affecting field (type, time, days, date, start)
// recomputes next_execution against the merged parameters; toggling
// is_active alone leaves it untouched.
func (s *ScheduleController) updateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateScheduledDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	existing, err := s.store.GetScheduledDisplay(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch schedule"}
	}

	if request.TargetDisplayID != nil {
		if _, err := s.store.GetDisplayByID(*request.TargetDisplayID); err != nil {
			if errors.Is(err, db.ErrNotFound) {
				return nil, &api.APIError{Code: http.StatusNotFound, Message: "target display not found"}
			}
			return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not look up target display"}
		}
	}

	// merge recurrence parameters: request wins, stored value backs it up
	merged := schedule.ParamsOf(existing)
	recomputeNext := false
	if request.ScheduleType != nil {
		merged.Type = *request.ScheduleType
		recomputeNext = true
	}
	if request.StartDate != nil {
		merged.StartDate = *request.StartDate
		recomputeNext = true
	}
	if request.ScheduleTime != nil {
		merged.ScheduleTime = request.ScheduleTime
		recomputeNext = true
	}
	if request.ScheduleDays != nil {
		merged.ScheduleDays = request.ScheduleDays
		recomputeNext = true
	}
	if request.ScheduleDate != nil {
		merged.ScheduleDate = request.ScheduleDate
		recomputeNext = true
	}

	update := db.ScheduledDisplayUpdate{
		Name:            request.Name,
		Description:     request.Description,
		TargetDisplayID: request.TargetDisplayID,
		StartDate:       request.StartDate,
		EndDate:         request.EndDate,
		IsActive:        request.IsActive,
		ContentData:     request.ContentData,
	}

	if recomputeNext {
		params, err := schedule.NormalizeParams(merged)
		if err != nil {
			return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
		}
		update.ScheduleType = &params.Type
		update.ScheduleTime = params.ScheduleTime
		update.ScheduleDays = params.ScheduleDays
		update.ScheduleDate = params.ScheduleDate
		update.RecomputeNext = true
		update.NextExecution = schedule.NextExecution(params, s.clock())
	}

	updated, err := s.store.UpdateScheduledDisplay(id, update)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update schedule"}
	}

	images, err := s.store.ListScheduledImages(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list schedule images"}
	}
	return packets.NewScheduledDisplayResponse(updated, images), nil
}

// POST /api/admin/schedules/:id/activate
func (s *ScheduleController) activateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return s.setActive(ctx, true)
}

// POST /api/admin/schedules/:id/deactivate
func (s *ScheduleController) deactivateSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return s.setActive(ctx, false)
}

// setActive toggles a schedule without touching its next_execution, so
// reactivating resumes the original cadence.
func (s *ScheduleController) setActive(ctx *gin.Context, active bool) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.SetScheduledDisplayActive(id, active); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update schedule"}
	}

	sd, err := s.store.GetScheduledDisplay(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch schedule"}
	}
	return packets.NewScheduledDisplayResponse(sd, nil), nil
}

// DELETE /api/admin/schedules/:id
func (s *ScheduleController) deleteSchedule(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if err := s.store.DeleteScheduledDisplay(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete schedule"}
	}

	return gin.H{"message": "deleted"}, nil
}

// POST /api/admin/schedules/:id/images (multipart: image_type, file)
func (s *ScheduleController) uploadScheduleImage(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	if _, err := s.store.GetScheduledDisplay(id); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "schedule not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch schedule"}
	}

	imageType := ctx.PostForm("image_type")
	if !validImageTypes[imageType] {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "image_type: unknown image slot"}
	}

	fileHeader, err := ctx.FormFile("file")
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "file is required"}
	}

	path, err := s.storage.SaveFile(fileHeader, strconv.Itoa(id), fileHeader.Filename)
	if err != nil {
		log.Error().Err(err).Int("schedule_id", id).Msg("failed to store schedule image")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store image"}
	}

	size := fileHeader.Size
	var mimeType *string
	if ct := fileHeader.Header.Get("Content-Type"); ct != "" {
		mimeType = &ct
	}

	img, err := s.store.UpsertScheduledImage(model.ScheduledImage{
		ScheduledDisplayID: id,
		ImageType:          imageType,
		FileName:           fileHeader.Filename,
		FilePath:           path,
		FileSize:           &size,
		MimeType:           mimeType,
	})
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save image record"}
	}

	return packets.NewScheduledImageResponse(img), nil
}

// DELETE /api/admin/schedules/:id/images/:image_type
func (s *ScheduleController) deleteScheduleImage(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	imageType := ctx.Param("image_type")
	if !validImageTypes[imageType] {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "image_type: unknown image slot"}
	}

	// deleting an absent slot is fine; the row delete is a no-op
	if err := s.store.DeleteScheduledImage(id, imageType); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not delete image"}
	}

	return gin.H{"message": "deleted"}, nil
}
