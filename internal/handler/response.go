package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"parking/internal/repository"
	"parking/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidSpaceID),
		errors.Is(err, service.ErrInvalidLotID),
		errors.Is(err, service.ErrInvalidOccupancyID),
		errors.Is(err, service.ErrInvalidBillID),
		errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidVehicleID),
		errors.Is(err, service.ErrInvalidVehicleClass),
		errors.Is(err, service.ErrInvalidRegistration),
		errors.Is(err, service.ErrInvalidCheckName),
		errors.Is(err, service.ErrInvalidHistoryFilter),
		errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidUserRole),
		errors.Is(err, service.ErrInvalidBaseRate):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrSpaceConflict),
		errors.Is(err, service.ErrSpaceUnavailable),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyPaid),
		errors.Is(err, service.ErrPhoneExists),
		errors.Is(err, service.ErrRegistrationExists):
		return http.StatusConflict

	// Checkout blocked until the exit checklist is complete
	case errors.Is(err, service.ErrVerificationIncomplete):
		return http.StatusPreconditionFailed

	// Role-gated operations
	case errors.Is(err, service.ErrPermissionDenied):
		return http.StatusForbidden

	// Allocation exhausted its retry budget
	case errors.Is(err, service.ErrNoAvailability):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
