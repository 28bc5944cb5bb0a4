package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/service"
)

// CollectionHandler handles collection endpoints.
type CollectionHandler struct {
	collections *service.CollectionService
	nodes       *service.NodeService
}

// NewCollectionHandler creates a new CollectionHandler.
func NewCollectionHandler(collections *service.CollectionService, nodes *service.NodeService) *CollectionHandler {
	return &CollectionHandler{collections: collections, nodes: nodes}
}

// List handles GET /api/v1/collections.
func (h *CollectionHandler) List(c *gin.Context) {
	collections, err := h.collections.List(c.Request.Context())
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.Collection]{Data: collections})
}

// Create handles POST /api/v1/collections.
func (h *CollectionHandler) Create(c *gin.Context) {
	var req models.CollectionRequest
	if err := bindJSON(c, &req); err != nil {
		mapErrorToResponse(c, err)
		return
	}

	created, err := h.collections.Create(c.Request.Context(), &req)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusCreated, models.MutationResponse[models.Collection]{
		Message: models.MessageSuccess,
		Data:    created,
	})
}

// Get handles GET /api/v1/collections/:id.
func (h *CollectionHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	collection, err := h.collections.Get(c.Request.Context(), id)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ItemResponse[models.Collection]{Data: *collection})
}

// Update handles PUT /api/v1/collections/:id.
func (h *CollectionHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.CollectionRequest
	if err := bindJSON(c, &req); err != nil {
		mapErrorToResponse(c, err)
		return
	}

	updated, err := h.collections.Update(c.Request.Context(), id, &req)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MutationResponse[models.Collection]{
		Message: models.MessageUpdated,
		Data:    updated,
		Changes: changed(1),
	})
}

// Delete handles DELETE /api/v1/collections/:id. Nodes in the collection
// are kept and keep their collection id.
func (h *CollectionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.collections.Delete(c.Request.Context(), id); err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MutationResponse[models.Collection]{
		Message: models.MessageDeleted,
		Changes: changed(1),
	})
}

// Info handles GET /api/v1/collections/:id/info.
func (h *CollectionHandler) Info(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	info, err := h.collections.Info(c.Request.Context(), id)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ItemResponse[models.CollectionInfo]{Data: *info})
}

// Nodes handles GET /api/v1/collections/:id/nodes.
func (h *CollectionHandler) Nodes(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	nodes, err := h.nodes.ListByCollection(c.Request.Context(), id)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.Node]{Data: nodes})
}
