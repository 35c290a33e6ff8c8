package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/estate/internal/middleware"
	"github.com/stwalsh4118/estate/internal/models"
)

// Error code constants for standardized error responses
const (
	ErrNotFound           = "NOT_FOUND"
	ErrBadRequest         = "BAD_REQUEST"
	ErrUnauthorized       = "UNAUTHORIZED"
	ErrInternalServer     = "INTERNAL_SERVER_ERROR"
	ErrValidation         = "VALIDATION_ERROR"
	ErrDatabaseConnection = "DATABASE_CONNECTION_ERROR"
	ErrConstraint         = "CONSTRAINT_VIOLATION"
	ErrBusinessRule       = "BUSINESS_RULE_VIOLATION"
)

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond logs a client error at warn level and writes the envelope.
func respond(c *gin.Context, status int, code, logMsg, message string, details map[string]interface{}) {
	requestID := middleware.GetRequestID(c)

	if log := middleware.GetLogger(c); log != nil {
		fields := map[string]interface{}{
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if details != nil {
			fields["details"] = details
		}
		log.Warn(logMsg, fields)
	}

	c.JSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, "Resource not found", message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, "Bad request", message, details)
}

// Unauthorized returns a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, message string) {
	respond(c, http.StatusUnauthorized, ErrUnauthorized, "Unauthorized request", message, nil)
}

// Conflict returns a 409 Conflict response for a rejected domain action.
// The prior state is unchanged when this is sent.
func Conflict(c *gin.Context, message string) {
	respond(c, http.StatusConflict, ErrBusinessRule, "Business rule violation", message, nil)
}

// Unprocessable returns a 422 Unprocessable Entity response for data that
// breaks a record constraint.
func Unprocessable(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusUnprocessableEntity, ErrConstraint, "Constraint violation", message, details)
}

// InternalServerError returns a 500 Internal Server Error response.
// The error is logged with full context; only message reaches the client.
func InternalServerError(c *gin.Context, message string, err error) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:      ErrInternalServer,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// FromDomain writes the response for an error returned by the domain layer.
// Constraint errors become 422 and business rule errors 409, both carrying
// the domain message; anything else is a 500 with the given message.
func FromDomain(c *gin.Context, err error, message string) {
	var constraint *models.ConstraintError
	if stderrors.As(err, &constraint) {
		var details map[string]interface{}
		if constraint.Field != "" {
			details = map[string]interface{}{"field": constraint.Field}
		}
		Unprocessable(c, constraint.Message, details)
		return
	}

	var rule *models.BusinessRuleError
	if stderrors.As(err, &rule) {
		Conflict(c, rule.Message)
		return
	}

	InternalServerError(c, message, err)
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{})
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}

	respond(c, http.StatusBadRequest, ErrValidation, "Validation error",
		"Validation failed for one or more fields", details)
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Must be a valid email address"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "len":
		return "Must have length of " + err.Param()
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "datetime":
		return "Must be a date formatted as " + err.Param()
	case "dive":
		return "Contains an invalid element"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
