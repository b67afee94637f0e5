package endpoints

import (
	"github.com/gin-gonic/gin"

	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/model"
)

// PanelAdminModule exposes the live MQTT panel registry to admins.
func PanelAdminModule() api.Module {
	return api.ModuleFunc(func(c *api.Controller) {
		c.GET("/panels", listConnectedPanels)
		c.DELETE("/panels/:device_id", disconnectPanel)
	})
}

// GET /api/admin/panels
func listConnectedPanels(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	return gin.H{"devices": middleware.GetConnectedPanels()}, nil
}

// DELETE /api/admin/panels/:device_id
// force-disconnects a panel; it re-registers through /api/panel/connect.
func disconnectPanel(ctx *gin.Context, user *model.User) (any, *api.APIError) {
	deviceID := ctx.Param("device_id")
	middleware.DisconnectPanel(deviceID)
	return gin.H{"message": "disconnected", "device_id": deviceID}, nil
}
