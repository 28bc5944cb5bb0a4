package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dobriak/mini-ipam/server/internal/service"
)

// LookupHandler serves the most-specific collection lookup.
type LookupHandler struct {
	service *service.LookupService
}

// NewLookupHandler creates a new LookupHandler.
func NewLookupHandler(service *service.LookupService) *LookupHandler {
	return &LookupHandler{service: service}
}

// Lookup handles GET /api/v1/lookup?ip=a.b.c.d. A miss is a 200 with a null match.
func (h *LookupHandler) Lookup(c *gin.Context) {
	ip := strings.TrimSpace(c.Query("ip"))
	if ip == "" {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "ip query parameter required")
		return
	}

	resp, err := h.service.Suggest(c.Request.Context(), ip)
	if err != nil {
		mapErrorToResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
