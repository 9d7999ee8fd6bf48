package handlers

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nordlabs/datacache/internal/services"
	"github.com/nordlabs/datacache/pkg/response"
)

// AppInfo carries the application metadata shown by the demo endpoints.
type AppInfo struct {
	Name           string
	Version        string
	Environment    string
	FeatureEnabled bool
}

// DemoHandler serves the informational endpoints carried over from the demo:
// hello, runtime info and effective configuration.
type DemoHandler struct {
	svc  *services.DataService
	info AppInfo
}

// NewDemoHandler constructs the handler.
func NewDemoHandler(svc *services.DataService, info AppInfo) (*DemoHandler, error) {
	if svc == nil {
		return nil, errors.New("demo handler: data service is required")
	}
	return &DemoHandler{svc: svc, info: info}, nil
}

// Hello handles GET /api/hello.
func (h *DemoHandler) Hello(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"message":   "Hello from " + h.info.Name,
		"hostname":  hostname(),
		"timestamp": time.Now().UnixMilli(),
	})
}

// Info handles GET /api/info, including the always-fresh item count, which
// intentionally bypasses the cache.
func (h *DemoHandler) Info(c *gin.Context) {
	count, err := h.svc.Count(c.Request.Context())
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"application": h.info.Name,
		"version":     h.info.Version,
		"environment": h.info.Environment,
		"itemCount":   count,
		"hostname":    hostname(),
	})
}

// Config handles GET /api/config, echoing the environment-derived settings.
func (h *DemoHandler) Config(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{
		"environment":    h.info.Environment,
		"version":        h.info.Version,
		"featureEnabled": h.info.FeatureEnabled,
		"source":         "configuration file and environment variables",
	})
}

func hostname() string {
	name, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return name
}
