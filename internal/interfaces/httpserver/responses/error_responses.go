package responses

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nollidnosnhoj/ggpx/internal/utils/platformerrors"
)

// ErrorResponse represents an error response with platform error details
type ErrorResponse struct {
	Code          string `json:"code"` // UUID from PlatformError
	Type          string `json:"type"`
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	ErrorInstance error  `json:"-"`
	RequestID     string `json:"request_id,omitempty"`
}

// HandleError handles domain errors and returns appropriate HTTP responses.
// Messages of server-side failures are replaced with message.
func HandleError(reqCtx *gin.Context, err error, message string) {
	_ = reqCtx.Error(err)

	var domainErr *platformerrors.PlatformError
	if errors.As(err, &domainErr) {
		statusCode := platformerrors.ErrorTypeToHTTPStatus(domainErr.GetErrorType())

		errorMessage := domainErr.Message
		if errorMessage == "" || hidesDetail(statusCode) {
			errorMessage = message
		}

		requestID := domainErr.GetRequestID()
		if requestID == "" {
			requestID = platformerrors.RequestIDFromContext(reqCtx.Request.Context())
		}

		reqCtx.AbortWithStatusJSON(statusCode, ErrorResponse{
			Code:          domainErr.GetUUID(),
			Type:          string(domainErr.GetErrorType()),
			Error:         errorMessage,
			Message:       errorMessage,
			ErrorInstance: domainErr,
			RequestID:     requestID,
		})
		return
	}
	// Non-platform errors
	reqCtx.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Type:          string(platformerrors.ErrorTypeInternal),
		Error:         message,
		Message:       message,
		ErrorInstance: err,
		RequestID:     platformerrors.RequestIDFromContext(reqCtx.Request.Context()),
	})
}

// HandleNewError creates a new typed error at the route layer and handles it
func HandleNewError(reqCtx *gin.Context, errorType platformerrors.ErrorType, message string, uuid string) {
	ctx := reqCtx.Request.Context()
	err := platformerrors.NewError(ctx, platformerrors.LayerRoute, errorType, message, nil, uuid)
	HandleError(reqCtx, err, message)
}

// hidesDetail reports whether the status represents a server-side failure
// whose message must not reach the client.
func hidesDetail(statusCode int) bool {
	return statusCode >= http.StatusInternalServerError && statusCode != http.StatusBadGateway
}
