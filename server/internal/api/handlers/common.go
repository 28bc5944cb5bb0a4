// Package handlers provides HTTP handlers for the mini-ipam REST API.
//
// This package implements request handlers for collections, nodes, the
// most-specific collection lookup and health checks.
package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dobriak/mini-ipam/models"
	"github.com/dobriak/mini-ipam/pkg/cidr"
	"github.com/dobriak/mini-ipam/server/internal/api/middleware"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 64 << 10

// Error codes returned in the "code" field of error responses.
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeMissingFields      = "MISSING_FIELDS"
	CodeInvalidPort        = "INVALID_PORT"
	CodeInvalidCIDR        = "INVALID_CIDR"
	CodeNotPrivate         = "NOT_PRIVATE"
	CodeOverlap            = "CIDR_OVERLAP"
	CodeInvalidIP          = "INVALID_IP"
	CodeNotInCollection    = "IP_NOT_IN_COLLECTION"
	CodeCollectionNotFound = "COLLECTION_NOT_FOUND"
	CodeNotFound           = "NOT_FOUND"
	CodeStrayNodes         = "STRAY_NODES"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeRateLimited        = "RATE_LIMITED"
	CodeUnavailable        = "SERVICE_UNAVAILABLE"
	CodeInternal           = "INTERNAL_ERROR"
)

// respondError sends a standardized error response.
func respondError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, models.ErrorResponse{
		Error:     message,
		Code:      code,
		RequestID: middleware.GetRequestID(c),
	})
}

// errorScope changes how a missing collection is reported. A node that
// refers to an unknown collection is a bad request; fetching one is a 404.
type errorScope int

const (
	scopeResource errorScope = iota
	scopeNodeWrite
)

// mapErrorToResponse converts a service error to an HTTP response.
//
// Engine and request failures become 4xx with their stable message.
// Anything unrecognized is logged and reported as a generic 500.
func mapErrorToResponse(c *gin.Context, err error) {
	mapScopedError(c, err, scopeResource)
}

func mapScopedError(c *gin.Context, err error, scope errorScope) {
	var maxBytes *http.MaxBytesError

	switch {
	// 400 Bad Request: address engine
	case errors.Is(err, cidr.ErrInvalidCIDR):
		respondError(c, http.StatusBadRequest, CodeInvalidCIDR, cidr.ErrInvalidCIDR.Error())
	case errors.Is(err, cidr.ErrNotPrivateRange):
		respondError(c, http.StatusBadRequest, CodeNotPrivate, cidr.ErrNotPrivateRange.Error())
	case errors.Is(err, cidr.ErrOverlapsExisting):
		var overlap *cidr.OverlapError
		if errors.As(err, &overlap) {
			middleware.GetLogger(c).Info("collection overlap",
				zap.Int64("conflict_id", overlap.ConflictID), zap.String("conflict_cidr", overlap.ConflictCIDR))
		}
		respondError(c, http.StatusBadRequest, CodeOverlap, cidr.ErrOverlapsExisting.Error())
	case errors.Is(err, cidr.ErrInvalidAddress):
		respondError(c, http.StatusBadRequest, CodeInvalidIP, cidr.ErrInvalidAddress.Error())
	case errors.Is(err, cidr.ErrAddressNotInRange):
		respondError(c, http.StatusBadRequest, CodeNotInCollection, cidr.ErrAddressNotInRange.Error())

	// 400 Bad Request: request shape
	case errors.Is(err, models.ErrMissingCollectionFields):
		respondError(c, http.StatusBadRequest, CodeMissingFields, models.ErrMissingCollectionFields.Error())
	case errors.Is(err, models.ErrMissingNodeFields):
		respondError(c, http.StatusBadRequest, CodeMissingFields, models.ErrMissingNodeFields.Error())
	case errors.Is(err, models.ErrInvalidPort):
		respondError(c, http.StatusBadRequest, CodeInvalidPort, models.ErrInvalidPort.Error())
	case errors.Is(err, models.ErrInvalidRequest):
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, err.Error())

	// 404 Not Found, or 400 when a node names an unknown collection
	case errors.Is(err, models.ErrCollectionNotFound):
		if scope == scopeNodeWrite {
			respondError(c, http.StatusBadRequest, CodeCollectionNotFound, models.ErrCollectionNotFound.Error())
			return
		}
		respondError(c, http.StatusNotFound, CodeNotFound, models.ErrCollectionNotFound.Error())
	case errors.Is(err, models.ErrNodeNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, models.ErrNodeNotFound.Error())
	case errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, CodeNotFound, models.ErrNotFound.Error())

	// 409 Conflict
	case errors.Is(err, models.ErrCollectionHasStrayNodes):
		respondError(c, http.StatusConflict, CodeStrayNodes, err.Error())

	// 401 Unauthorized
	case errors.Is(err, models.ErrUnauthorized), errors.Is(err, models.ErrInvalidToken):
		respondError(c, http.StatusUnauthorized, CodeUnauthorized, models.ErrUnauthorized.Error())

	// 413 Payload Too Large
	case errors.As(err, &maxBytes), errors.Is(err, models.ErrPayloadTooLarge):
		respondError(c, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, models.ErrPayloadTooLarge.Error())

	// 429 Too Many Requests
	case errors.Is(err, models.ErrRateLimitExceeded):
		respondError(c, http.StatusTooManyRequests, CodeRateLimited, models.ErrRateLimitExceeded.Error())

	// 503 Service Unavailable
	case errors.Is(err, models.ErrServiceUnavailable):
		respondError(c, http.StatusServiceUnavailable, CodeUnavailable, models.ErrServiceUnavailable.Error())

	default:
		middleware.GetLogger(c).Error("request failed", zap.Error(err))
		_ = c.Error(err)
		respondError(c, http.StatusInternalServerError, CodeInternal, models.ErrInternalError.Error())
	}
}

// bindJSON decodes the request body into dst with a size cap. Decode
// failures are reported as models.ErrInvalidRequest.
func bindJSON(c *gin.Context, dst any) error {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes)
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return models.ErrPayloadTooLarge
		}
		return models.ErrInvalidRequest
	}
	return nil
}

// parseID reads the :id path parameter as a positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, http.StatusBadRequest, CodeInvalidRequest, "invalid id")
		return 0, false
	}
	return id, true
}

func changed(n int64) *int64 { return &n }
