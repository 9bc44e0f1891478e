package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"spotiscience/internal/models"
	"spotiscience/internal/services"
)

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	var platformErr *services.PlatformError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrUnsupportedOption),
		errors.Is(err, models.ErrUnrecognizedIdentifier),
		errors.Is(err, models.ErrInsufficientData):
		return http.StatusBadRequest
	case errors.As(err, &platformErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the error body used by every endpoint
func respondError(c *gin.Context, operation string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "operation", operation, "status", status, "error", err)
	} else {
		slog.Warn("Request rejected", "operation", operation, "status", status, "error", err)
	}
	c.JSON(status, gin.H{
		"error":   operation + " failed",
		"details": err.Error(),
	})
}

func badRequest(c *gin.Context, message string, err error) {
	body := gin.H{"error": message}
	if err != nil {
		body["details"] = err.Error()
	}
	c.JSON(http.StatusBadRequest, body)
}

// ItemFailure is one entry of a partially failed download
type ItemFailure struct {
	Group string `json:"group,omitempty"`
	ID    string `json:"id"`
	Error string `json:"error"`
}

// splitBatchError separates per-item failures from errors that abort the
// request. The returned error is nil when only items failed.
func splitBatchError(err error) ([]ItemFailure, error) {
	if err == nil {
		return nil, nil
	}
	var batch *services.BatchError
	if !errors.As(err, &batch) {
		return nil, err
	}

	failures := make([]ItemFailure, len(batch.Items))
	for i, item := range batch.Items {
		failures[i] = ItemFailure{Group: item.Group, ID: item.ID, Error: item.Err.Error()}
	}

	// A batch joined with a context error still aborts
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return failures, err
	}
	return failures, nil
}
