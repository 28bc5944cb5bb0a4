package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/server/internal/service"
)

// NodeHandler handles node endpoints.
type NodeHandler struct {
	service *service.NodeService
}

// NewNodeHandler creates a new NodeHandler.
func NewNodeHandler(service *service.NodeService) *NodeHandler {
	return &NodeHandler{service: service}
}

// List handles GET /api/v1/nodes.
func (h *NodeHandler) List(c *gin.Context) {
	nodes, err := h.service.List(c.Request.Context())
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ListResponse[models.Node]{Data: nodes})
}

// Create handles POST /api/v1/nodes.
func (h *NodeHandler) Create(c *gin.Context) {
	var req models.NodeRequest
	if err := bindJSON(c, &req); err != nil {
		mapErrorToResponse(c, err)
		return
	}

	node, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		mapScopedError(c, err, scopeNodeWrite)
		return
	}
	c.JSON(http.StatusCreated, models.MutationResponse[models.Node]{
		Message: models.MessageSuccess,
		Data:    node,
	})
}

// Get handles GET /api/v1/nodes/:id.
func (h *NodeHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	node, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.ItemResponse[models.Node]{Data: *node})
}

// Update handles PUT /api/v1/nodes/:id. Every field is replaced.
func (h *NodeHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.NodeRequest
	if err := bindJSON(c, &req); err != nil {
		mapErrorToResponse(c, err)
		return
	}

	node, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		mapScopedError(c, err, scopeNodeWrite)
		return
	}
	c.JSON(http.StatusOK, models.MutationResponse[models.Node]{
		Message: models.MessageUpdated,
		Data:    node,
		Changes: changed(1),
	})
}

// Delete handles DELETE /api/v1/nodes/:id.
func (h *NodeHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MutationResponse[models.Node]{
		Message: models.MessageDeleted,
		Changes: changed(1),
	})
}
