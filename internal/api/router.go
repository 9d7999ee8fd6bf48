package api

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/nordlabs/datacache/internal/app"
	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/internal/handlers"
	"github.com/nordlabs/datacache/internal/middleware"
	"github.com/nordlabs/datacache/internal/repository"
	"github.com/nordlabs/datacache/internal/services"
)

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(db *gorm.DB, caches *cache.Manager, cfg *app.Config) (*gin.Engine, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if caches == nil {
		return nil, fmt.Errorf("cache manager must be provided")
	}
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}

	repo, err := repository.NewDataItemRepository(db)
	if err != nil {
		return nil, err
	}

	dataSvc, err := services.NewDataService(repo, caches)
	if err != nil {
		return nil, err
	}

	adminSvc, err := services.NewCacheAdminService(caches)
	if err != nil {
		return nil, err
	}

	dataHandler, err := handlers.NewDataHandler(dataSvc)
	if err != nil {
		return nil, err
	}

	adminHandler, err := handlers.NewCacheAdminHandler(adminSvc)
	if err != nil {
		return nil, err
	}

	demoHandler, err := handlers.NewDemoHandler(dataSvc, handlers.AppInfo{
		Name:           cfg.App.Name,
		Version:        cfg.App.Version,
		Environment:    cfg.App.Environment,
		FeatureEnabled: cfg.App.FeatureEnabled,
	})
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())

	// Health endpoint (public)
	r.GET("/health", handlers.Health())

	api := r.Group("/api")

	// Demo endpoints
	api.GET("/hello", demoHandler.Hello)
	api.GET("/info", demoHandler.Info)
	api.GET("/config", demoHandler.Config)

	// Data CRUD
	data := api.Group("/data")
	{
		data.POST("", dataHandler.Create)
		data.GET("", dataHandler.List)
		data.GET("/:id", dataHandler.Get)
		data.PUT("/:id", dataHandler.Update)
		data.DELETE("/:id", dataHandler.Delete)
	}

	// Cache management
	cacheGroup := api.Group("/cache")
	{
		cacheGroup.GET("/stats", adminHandler.Stats)
		cacheGroup.GET("/keys", adminHandler.ListKeys)
		cacheGroup.GET("/keys/:pattern", adminHandler.SearchKeys)
		cacheGroup.DELETE("/clear", adminHandler.ClearAll)
		cacheGroup.DELETE("/clear/:cacheName", adminHandler.Clear)
		cacheGroup.DELETE("/evict/:cacheName/:key", adminHandler.Evict)
		cacheGroup.GET("/info", adminHandler.Info)
		cacheGroup.PUT("/ttl/:cacheName/:key", adminHandler.SetTTL)
	}

	// NotFound fallback
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
