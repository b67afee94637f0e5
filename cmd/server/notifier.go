package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/redis"
)

// panelNotifier reacts to the applier pushing content onto a display: it
// drops the cached panel payload and tells the paired panel to re-fetch.
type panelNotifier struct {
	store db.Store
}

func (n *panelNotifier) DisplayUpdated(displayID int) {
	redis.Del(context.Background(), fmt.Sprintf("display:%d", displayID))

	display, err := n.store.GetDisplayByID(displayID)
	if err != nil || display.DeviceID == nil {
		return
	}
	if err := middleware.NotifyPanelRefresh(*display.DeviceID, displayID); err != nil {
		log.Debug().Err(err).Int("display_id", displayID).Msg("panel refresh notification skipped")
	}
}
