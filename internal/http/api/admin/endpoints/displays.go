package endpoints

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api/admin/packets"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/model"
	"github.com/mihalykrich/real-estate-display-system/internal/redis"
	"github.com/mihalykrich/real-estate-display-system/internal/storage"
)

type DisplayController struct {
	store   db.Store
	storage storage.Storage
}

func NewDisplayController(store db.Store, storageSystem storage.Storage) *DisplayController {
	return &DisplayController{store: store, storage: storageSystem}
}

func DisplayModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewDisplayController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/displays", ctl.listDisplays)
		c.GET("/displays/:id", ctl.getDisplay)
		c.PATCH("/displays/:id", ctl.updateDisplay)
		c.POST("/displays/:id/qr", ctl.generateQR)
	})
}

// DataModule mounts whole-dataset export/import. It is wired behind the
// admin-role middleware, not just authentication.
func DataModule(store db.Store, storageSystem storage.Storage) api.Module {
	ctl := NewDisplayController(store, storageSystem)
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/export", ctl.exportDisplays)
		c.POST("/import", ctl.importDisplays)
	})
}

func (d *DisplayController) listDisplays(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	displays, err := d.store.ListDisplays()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list displays"}
	}
	return displays, nil
}

func (d *DisplayController) getDisplay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	display, err := d.store.GetDisplayByID(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch display"}
	}
	return display, nil
}

func (d *DisplayController) updateDisplay(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.UpdateDisplayRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	display, err := d.store.UpdateDisplay(id, db.DisplayUpdate{
		Address:            request.Address,
		Location:           request.Location,
		Price:              request.Price,
		PriceType:          request.PriceType,
		Bedrooms:           request.Bedrooms,
		Bathrooms:          request.Bathrooms,
		Garage:             request.Garage,
		PropertyType:       request.PropertyType,
		Description:        request.Description,
		Features:           request.Features,
		ContactNumber:      request.ContactNumber,
		Email:              request.Email,
		SidebarColor:       request.SidebarColor,
		CarouselEnabled:    request.CarouselEnabled,
		CarouselDuration:   request.CarouselDuration,
		CarouselTransition: request.CarouselTransition,
		DeviceID:           request.DeviceID,
	})
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not update display"}
	}

	invalidateDisplayCache(ctx, display)
	return display, nil
}

// POST /api/admin/displays/:id/qr
// renders a QR code PNG pointing at the display's public page and stores it
// alongside the display's other images.
func (d *DisplayController) generateQR(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	var request packets.GenerateQRRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	png, err := qrcode.Encode(request.URL, qrcode.Medium, 512)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not generate QR code"}
	}

	fileName := fmt.Sprintf("qr-%d.png", time.Now().UnixMilli())
	path, err := d.storage.SaveBytes(png, strconv.Itoa(id), fileName)
	if err != nil {
		log.Error().Err(err).Int("display_id", id).Msg("failed to store QR code")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not store QR code"}
	}

	if err := d.store.SetDisplayQRCode(id, path); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not save QR code path"}
	}

	display, err := d.store.GetDisplayByID(id)
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch display"}
	}

	invalidateDisplayCache(ctx, display)
	return display, nil
}

// GET /api/admin/data/export
func (d *DisplayController) exportDisplays(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	displays, err := d.store.ListDisplays()
	if err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "failed to list displays"}
	}

	return packets.ExportDisplaysResponse{
		ExportedAt: time.Now().Format(time.RFC3339),
		Version:    "1.0",
		Displays:   displays,
	}, nil
}

// POST /api/admin/data/import
func (d *DisplayController) importDisplays(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	var request packets.ImportDisplaysRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	if err := d.store.ReplaceDisplays(request.Displays); err != nil {
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not import displays"}
	}

	return gin.H{"message": "imported", "count": len(request.Displays)}, nil
}

// invalidateDisplayCache drops the panel-facing cache entry and pokes the
// paired panel, if any. Both are best effort.
func invalidateDisplayCache(ctx context.Context, display model.Display) {
	redis.Del(ctx, fmt.Sprintf("display:%d", display.ID))
	if display.DeviceID != nil {
		if err := middleware.NotifyPanelRefresh(*display.DeviceID, display.ID); err != nil {
			log.Debug().Err(err).Int("display_id", display.ID).Msg("panel refresh notification skipped")
		}
	}
}
