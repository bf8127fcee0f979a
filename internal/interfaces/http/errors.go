package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/homologa/vehicle-homologation/internal/application/port"
	"github.com/homologa/vehicle-homologation/internal/application/service"
	"github.com/homologa/vehicle-homologation/internal/domain/workflow"
)

// Response represents a standard JSON response
type Response struct {
	Success bool         `json:"success"`
	Data    interface{}  `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
	Details *ErrorDetail `json:"details,omitempty"`
}

// ErrorDetail carries the machine-readable part of a failure
type ErrorDetail struct {
	Kind               string   `json:"kind"`
	Allowed            []string `json:"allowed,omitempty"`
	MissingFields      []string `json:"missing_fields,omitempty"`
	MissingAttachments bool     `json:"missing_attachments,omitempty"`
	Retryable          bool     `json:"retryable,omitempty"`
}

// statusForKind maps workflow error kinds to HTTP status codes
func statusForKind(kind workflow.Kind) int {
	switch kind {
	case workflow.KindNotFound:
		return http.StatusNotFound
	case workflow.KindInvalidTransition, workflow.KindConflict:
		return http.StatusConflict
	case workflow.KindRequiresElevatedPrivilege:
		return http.StatusForbidden
	case workflow.KindMissingPrerequisites:
		return http.StatusUnprocessableEntity
	case workflow.KindInvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as a JSON failure. Unexpected failures are logged
// and reported with an opaque message.
func (h *Handlers) writeError(c *gin.Context, err error) {
	var wfErr *workflow.Error
	switch {
	case errors.As(err, &wfErr):
		status := statusForKind(wfErr.Kind)
		if status == http.StatusInternalServerError {
			break
		}
		detail := &ErrorDetail{
			Kind:               wfErr.Kind.String(),
			MissingFields:      wfErr.MissingFields,
			MissingAttachments: wfErr.MissingAttachments,
			Retryable:          wfErr.Kind.Retryable(),
		}
		for _, s := range wfErr.Allowed {
			detail.Allowed = append(detail.Allowed, s.String())
		}
		c.JSON(status, Response{Success: false, Error: wfErr.Error(), Details: detail})
		return

	case errors.Is(err, port.ErrNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "submission not found",
			Details: &ErrorDetail{Kind: workflow.KindNotFound.String()},
		})
		return

	case errors.Is(err, port.ErrVersionConflict):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   "submission was modified concurrently; reload and retry",
			Details: &ErrorDetail{Kind: workflow.KindConflict.String(), Retryable: true},
		})
		return

	case errors.Is(err, service.ErrNotEditable):
		c.JSON(http.StatusConflict, Response{
			Success: false,
			Error:   err.Error(),
			Details: &ErrorDetail{Kind: "NOT_EDITABLE"},
		})
		return

	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   err.Error(),
			Details: &ErrorDetail{Kind: "INVALID_INPUT"},
		})
		return
	}

	h.logger.Error("Request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"request_id", c.GetString(ctxRequestID),
		"error", err,
	)
	c.JSON(http.StatusInternalServerError, Response{
		Success: false,
		Error:   "internal error",
		Details: &ErrorDetail{Kind: workflow.KindUnexpected.String(), Retryable: true},
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{
		Success: false,
		Error:   msg,
		Details: &ErrorDetail{Kind: "INVALID_INPUT"},
	})
}
