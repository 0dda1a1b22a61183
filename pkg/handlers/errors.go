package handlers

import (
	"errors"
	"net/http"

	"github.com/arnavshah/manifest-api-go/pkg/coordinator"
	"github.com/arnavshah/manifest-api-go/pkg/manifest"
	"github.com/arnavshah/manifest-api-go/pkg/models"
	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, errorResponse{Error: msg, Code: code, RequestID: GetRequestID(c)})
}

// RespondDomainError maps manifest and coordinator errors onto HTTP statuses
func RespondDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, manifest.ErrInvalidDate),
		errors.Is(err, manifest.ErrInvalidTrip),
		errors.Is(err, manifest.ErrInvalidBucket),
		errors.Is(err, manifest.ErrTripNotInBucket):
		respondError(c, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, coordinator.ErrTripNotFound), errors.Is(err, models.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, coordinator.ErrBucketBusy):
		respondError(c, http.StatusConflict, "conflict", err.Error())
	case coordinator.IsSyncError(err):
		respondError(c, http.StatusBadGateway, "sync_failed", "changes could not be saved; the manifest was reloaded")
	default:
		respondError(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
