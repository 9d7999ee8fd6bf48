package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nordlabs/datacache/internal/cache"
	"github.com/nordlabs/datacache/internal/services"
	apperrors "github.com/nordlabs/datacache/pkg/errors"
	"github.com/nordlabs/datacache/pkg/response"
)

// CacheAdminHandler serves the cache management endpoints under /api/cache.
type CacheAdminHandler struct {
	svc *services.CacheAdminService
}

// NewCacheAdminHandler constructs the handler.
func NewCacheAdminHandler(svc *services.CacheAdminService) (*CacheAdminHandler, error) {
	if svc == nil {
		return nil, errors.New("cache admin handler: service is required")
	}
	return &CacheAdminHandler{svc: svc}, nil
}

// Stats handles GET /api/cache/stats. The call always succeeds; backend
// unreachability is part of the report.
func (h *CacheAdminHandler) Stats(c *gin.Context) {
	response.Success(c, http.StatusOK, h.svc.Stats(c.Request.Context()))
}

// ListKeys handles GET /api/cache/keys.
func (h *CacheAdminHandler) ListKeys(c *gin.Context) {
	listing, err := h.svc.ListKeys(c.Request.Context())
	if err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}
	response.Success(c, http.StatusOK, listing)
}

// SearchKeys handles GET /api/cache/keys/:pattern.
func (h *CacheAdminHandler) SearchKeys(c *gin.Context) {
	result, err := h.svc.SearchKeys(c.Request.Context(), c.Param("pattern"))
	if err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}
	response.Success(c, http.StatusOK, result)
}

// ClearAll handles DELETE /api/cache/clear.
func (h *CacheAdminHandler) ClearAll(c *gin.Context) {
	if _, err := h.svc.ClearAll(c.Request.Context()); err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}
	response.NoContent(c)
}

// Clear handles DELETE /api/cache/clear/:cacheName.
func (h *CacheAdminHandler) Clear(c *gin.Context) {
	if _, err := h.svc.Clear(c.Request.Context(), c.Param("cacheName")); err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}
	response.NoContent(c)
}

// Evict handles DELETE /api/cache/evict/:cacheName/:key.
func (h *CacheAdminHandler) Evict(c *gin.Context) {
	if err := h.svc.Evict(c.Request.Context(), c.Param("cacheName"), c.Param("key")); err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}
	response.NoContent(c)
}

// Info handles GET /api/cache/info. Unreachable backends yield a 503 with the
// diagnostic body.
func (h *CacheAdminHandler) Info(c *gin.Context) {
	info := h.svc.Info(c.Request.Context())
	status := http.StatusOK
	if !info.Connected {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, response.Response{Success: info.Connected, Data: info})
}

type ttlUpdateRequest struct {
	TTL int64 `json:"ttl"`
}

// SetTTL handles PUT /api/cache/ttl/:cacheName/:key.
func (h *CacheAdminHandler) SetTTL(c *gin.Context) {
	var req ttlUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("request body must contain a ttl field"))
		return
	}

	update, err := h.svc.SetTTL(c.Request.Context(), c.Param("cacheName"), c.Param("key"), req.TTL)
	if err != nil {
		response.Error(c, mapCacheAdminError(err))
		return
	}

	response.Success(c, http.StatusOK, update)
}

func mapCacheAdminError(err error) error {
	switch {
	case errors.Is(err, cache.ErrUnknownCache):
		return apperrors.NewNotFound("Cache not found")
	case errors.Is(err, services.ErrEntryNotFound):
		return apperrors.NewNotFound("Cache entry not found")
	case errors.Is(err, services.ErrEmptyPattern):
		return apperrors.NewBadRequest("Pattern must not be empty")
	case errors.Is(err, services.ErrEmptyKey):
		return apperrors.NewBadRequest("Key must not be empty")
	case errors.Is(err, services.ErrInvalidTTL):
		return apperrors.NewBadRequest("TTL must be a positive integer")
	case errors.Is(err, cache.ErrBackendUnavailable):
		return apperrors.ErrCacheUnavailable
	default:
		return apperrors.Wrap(err, "cache admin operation failed")
	}
}
