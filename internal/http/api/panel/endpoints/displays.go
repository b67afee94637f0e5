package endpoints

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/redis"
)

// displayCacheTTL bounds how stale a panel can see a display after an edit
// that somehow missed invalidation.
const displayCacheTTL = 60 * time.Second

type PanelController struct {
	store db.Store
}

func NewPanelController(store db.Store) *PanelController {
	return &PanelController{store: store}
}

func PanelModule(store db.Store) api.Module {
	ctl := NewPanelController(store)
	return api.ModuleFunc(func(c *api.Controller) {
		c.PUBLIC_GET("/displays/:id", ctl.getDisplay)
		c.PUBLIC_POST("/connect", ctl.connectPanel)
	})
}

type connectRequest struct {
	DeviceID string `json:"device_id" binding:"required"`
}

// GET /api/panel/displays/:id
// the read path panels hit every refresh, so it goes through Redis.
func (p *PanelController) getDisplay(ctx *gin.Context) (any, *api.APIError) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: "invalid id"}
	}

	key := fmt.Sprintf("display:%d", id)
	if cached, ok := redis.Get(ctx, key); ok {
		return json.RawMessage(cached), nil
	}

	display, err := p.store.GetDisplayByID(id)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusNotFound, Message: "display not found"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not fetch display"}
	}

	if body, err := json.Marshal(display); err == nil {
		redis.Set(ctx, key, body, displayCacheTTL)
	}
	return display, nil
}

// POST /api/panel/connect
// a panel announces itself by device id and gets subscribed to its MQTT
// command topic.
func (p *PanelController) connectPanel(ctx *gin.Context) (any, *api.APIError) {
	var request connectRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		return nil, &api.APIError{Code: http.StatusBadRequest, Message: err.Error()}
	}

	display, err := p.store.GetDisplayByDeviceID(request.DeviceID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, &api.APIError{Code: http.StatusUnauthorized, Message: "unknown device"}
		}
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not look up device"}
	}

	if err := middleware.RegisterPanel(request.DeviceID); err != nil {
		log.Error().Err(err).Str("device_id", request.DeviceID).Msg("panel MQTT registration failed")
		return nil, &api.APIError{Code: http.StatusInternalServerError, Message: "could not connect panel"}
	}

	return gin.H{"message": "connected", "display_id": display.ID}, nil
}
