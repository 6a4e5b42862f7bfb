package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/eaglebank/purchase-service/internal/apperror"
)

// SuccessResponse wraps every successful payload.
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the error envelope. Details carries field errors for
// validation failures only.
type ErrorResponse struct {
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Code    string                `json:"code,omitempty"`
	Details []apperror.FieldError `json:"details,omitempty"`
}

func RespondWithData(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{Success: true, Data: data})
}

func RespondWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Message: message, Code: code})
}

// RespondWithAppError writes err using its kind's status, or generalStatus for
// persistence and internal failures. The underlying cause is never written.
func RespondWithAppError(c *gin.Context, err *apperror.Error, generalStatus int) {
	c.AbortWithStatusJSON(err.HTTPStatus(generalStatus), ErrorResponse{
		Message: err.Message,
		Code:    err.Code(),
		Details: err.Fields,
	})
}
