package main

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mihalykrich/real-estate-display-system/internal/db"
	"github.com/mihalykrich/real-estate-display-system/internal/http/api"
	authapi "github.com/mihalykrich/real-estate-display-system/internal/http/api/admin/auth/endpoints"
	adminapi "github.com/mihalykrich/real-estate-display-system/internal/http/api/admin/endpoints"
	panelapi "github.com/mihalykrich/real-estate-display-system/internal/http/api/panel/endpoints"
	"github.com/mihalykrich/real-estate-display-system/internal/http/middleware"
	"github.com/mihalykrich/real-estate-display-system/internal/storage"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes(r *gin.Engine, env Environment, store db.Store, storageSystem storage.Storage) {
	// CORS
	r.Use(cors.New(cors.Config{
		AllowOriginFunc: func(origin string) bool { return true },
		AllowMethods: []string{
			"GET",
			"POST",
			"PUT",
			"PATCH",
			"DELETE",
			"OPTIONS",
			"HEAD",
		},
		AllowHeaders: []string{
			"Origin",
			"Content-Type",
			"Authorization",
			"Accept",
		},
		ExposeHeaders: []string{
			"Content-Length",
		},
		AllowCredentials: false,
	}))

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/admin",
		Auth:   false,
	},
		authapi.AuthPublicModule(env.SecretKey, store),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix:    "/api/admin",
		Auth:      true,
		SecretKey: env.SecretKey,
		Store:     store,
	},
		adminapi.DisplayModule(store, storageSystem),
		adminapi.ScheduleModule(store, storageSystem),
		adminapi.PanelAdminModule(),
		// session endpoints that require auth
		authapi.AuthSessionModule(env.SecretKey, store),
	)

	// export/import replaces the whole dataset; restricted to role=admin
	api.MountGroup(r, api.GroupConfig{
		Prefix:     "/api/admin/data",
		Auth:       true,
		SecretKey:  env.SecretKey,
		Store:      store,
		Middleware: []gin.HandlerFunc{middleware.AdminRequired()},
	},
		adminapi.DataModule(store, storageSystem),
	)

	api.MountGroup(r, api.GroupConfig{
		Prefix: "/api/panel",
	},
		panelapi.PanelModule(store),
	)

	// Static content
	if !env.UseSpaces {
		r.Static("/uploads", "./uploads")
	}
}
