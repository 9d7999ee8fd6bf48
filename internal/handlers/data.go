package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nordlabs/datacache/internal/services"
	apperrors "github.com/nordlabs/datacache/pkg/errors"
	"github.com/nordlabs/datacache/pkg/response"
)

// DataHandler serves the CRUD endpoints for data items.
type DataHandler struct {
	svc *services.DataService
}

// NewDataHandler constructs the handler.
func NewDataHandler(svc *services.DataService) (*DataHandler, error) {
	if svc == nil {
		return nil, errors.New("data handler: service is required")
	}
	return &DataHandler{svc: svc}, nil
}

type createDataItemRequest struct {
	ID          string `json:"id"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

type updateDataItemRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// Create handles POST /api/data.
func (h *DataHandler) Create(c *gin.Context) {
	var req createDataItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("name is required"))
		return
	}

	item, err := h.svc.Create(c.Request.Context(), services.CreateDataItemInput{
		ID:          req.ID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	response.Success(c, http.StatusCreated, item)
}

// Get handles GET /api/data/:id.
func (h *DataHandler) Get(c *gin.Context) {
	item, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, item)
}

// List handles GET /api/data.
func (h *DataHandler) List(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context())
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, items)
}

// Update handles PUT /api/data/:id.
func (h *DataHandler) Update(c *gin.Context) {
	var req updateDataItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperrors.NewBadRequest("name is required"))
		return
	}

	item, err := h.svc.Update(c.Request.Context(), c.Param("id"), services.UpdateDataItemInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	response.Success(c, http.StatusOK, item)
}

// Delete handles DELETE /api/data/:id. Deleting a missing item yields a 404
// with deleted=false; the operation is idempotent.
func (h *DataHandler) Delete(c *gin.Context) {
	deleted, err := h.svc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, mapDataServiceError(err))
		return
	}

	if !deleted {
		c.JSON(http.StatusNotFound, response.Response{
			Success: true,
			Data:    gin.H{"deleted": false, "message": "Item not found"},
		})
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true, "message": "Item deleted successfully"})
}

func mapDataServiceError(err error) error {
	switch {
	case errors.Is(err, services.ErrDataItemNotFound):
		return apperrors.NewNotFound("Data item not found")
	case errors.Is(err, services.ErrNameRequired):
		return apperrors.NewBadRequest("name is required")
	default:
		return apperrors.Wrap(err, "persistent store failure")
	}
}
